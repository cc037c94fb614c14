// Package panelfill reconstructs a dense entity by year panel from sparse observations.
//
// Observations are grouped by entity, every entity is laid out on the same target year
// grid, identity attributes are propagated across the timeline and numeric indicators
// are filled by linear interpolation between known years and carried forward after the
// last known year. Entities are independent so they are reconstructed concurrently and
// merged back in a deterministic order.
package panelfill

import (
	"context"

	"github.com/aouyang1/go-panelfill/entity"
	"github.com/aouyang1/go-panelfill/grid"
	"github.com/aouyang1/go-panelfill/observation"
	"github.com/aouyang1/go-panelfill/panel"
	"github.com/aouyang1/go-panelfill/timedataset"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reconstructor turns observation sets into dense panels. It holds no state between
// calls so the same input always yields the same panel.
type Reconstructor struct {
	opt  *Options
	grid *grid.Grid
}

// New creates a Reconstructor using the provided options. If no options are provided a
// default is used.
func New(opt *Options) (*Reconstructor, error) {
	opt, g, err := opt.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize reconstructor")
	}
	return &Reconstructor{opt: opt, grid: g}, nil
}

// Options returns the validated options.
func (r *Reconstructor) Options() *Options {
	return r.opt
}

// Grid returns the target year grid.
func (r *Reconstructor) Grid() *grid.Grid {
	return r.grid
}

// Reconstruct groups the observations by entity, rebuilds every entity timeline and
// assembles the panel. Data quality problems never abort the run: observations without
// an entity id are returned in Results.Rejected and every other entity is still
// reconstructed. The context is only checked between entities.
func (r *Reconstructor) Reconstruct(ctx context.Context, obs []observation.Observation) (*Results, error) {
	logger := r.opt.Logger

	groups, rejected := entity.Partition(obs)
	for _, rej := range rejected {
		logger.Debug("rejected observation",
			zap.Int("index", rej.Index),
			zap.Int("year", rej.Observation.Year),
			zap.Error(rej.Err),
		)
	}
	if len(rejected) > 0 {
		logger.Warn("observations rejected", zap.Int("count", len(rejected)))
	}

	timelines := make([]*timedataset.TimeDataset, groups.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opt.Parallelization)
	for i := 0; i < groups.Len(); i++ {
		grp := groups.At(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			td, err := timedataset.Reconstruct(grp.EntityID, grp.Observations, r.grid, r.opt.Schema)
			if err != nil {
				return err
			}
			timelines[i] = td
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "unable to reconstruct timelines")
	}

	p, err := panel.Assemble(timelines, r.grid, r.opt.Schema, &panel.Options{SortByEntity: r.opt.SortByEntity})
	if err != nil {
		return nil, errors.Wrap(err, "unable to assemble panel")
	}

	res := &Results{
		Panel:     p,
		Timelines: timelines,
		Rejected:  rejected,
	}
	for _, td := range timelines {
		res.OffGrid += td.OffGrid
		res.Merged += td.Merged
		if !anyAvailable(td) {
			res.WithoutIndicators++
		}
	}

	if res.OffGrid > 0 {
		logger.Info("observations outside of target years ignored", zap.Int("count", res.OffGrid))
	}
	if res.Merged > 0 {
		logger.Warn("duplicate entity year observations merged", zap.Int("count", res.Merged))
	}
	logger.Info("panel reconstructed",
		zap.Int("observations", len(obs)),
		zap.Int("entities", groups.Len()),
		zap.Int("rows", p.Len()),
		zap.Int("entities_without_indicators", res.WithoutIndicators),
		zap.Stringer("years", r.grid),
	)
	return res, nil
}

func anyAvailable(td *timedataset.TimeDataset) bool {
	for _, col := range td.Schema().Indicators {
		if td.Available(col) {
			return true
		}
	}
	return false
}
