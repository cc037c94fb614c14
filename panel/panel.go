// Package panel assembles per entity timelines into a flat, dense entity by year panel.
package panel

import (
	"math"
	"slices"
	"sort"

	"github.com/aouyang1/go-panelfill/grid"
	"github.com/aouyang1/go-panelfill/interpolate"
	"github.com/aouyang1/go-panelfill/timedataset"
	"github.com/cockroachdb/errors"
)

var (
	ErrSchemaMismatch = errors.New("timeline schema does not match panel schema")
	ErrDuplicateRow   = errors.New("duplicate entity year row")
	ErrMissingRow     = errors.New("missing entity year row")
	ErrUnknownColumn  = errors.New("unknown column")
)

// Row is a single entity/year record of the panel. Identity, Indicators and Fills are
// aligned with the panel schema columns. Unset indicators are NaN.
type Row struct {
	EntityID   string
	Year       int
	Identity   []string
	Indicators []float64
	Fills      []interpolate.Fill
}

type key struct {
	entityID string
	year     int
}

// Panel is the concatenation of every reconstructed timeline.
type Panel struct {
	schema timedataset.Schema
	grid   *grid.Grid

	rows     []Row
	entities []string
	index    map[key]int
}

// Options configures the assembly.
type Options struct {
	// SortByEntity orders entities by id. When false entities keep their input order.
	SortByEntity bool `json:"sort_by_entity"`
}

// Assemble concatenates the timelines keeping each entity's year order. Rows whose year
// is not part of the grid are dropped.
func Assemble(timelines []*timedataset.TimeDataset, g *grid.Grid, s timedataset.Schema, opt *Options) (*Panel, error) {
	if g == nil {
		return nil, timedataset.ErrNilGrid
	}
	if opt == nil {
		opt = &Options{}
	}

	ordered := make([]*timedataset.TimeDataset, 0, len(timelines))
	for _, td := range timelines {
		if td == nil {
			continue
		}
		if !sameSchema(td.Schema(), s) {
			return nil, errors.Wrapf(ErrSchemaMismatch, "entity %s", td.EntityID)
		}
		ordered = append(ordered, td)
	}
	if opt.SortByEntity {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].EntityID < ordered[j].EntityID
		})
	}

	p := &Panel{
		schema:   s,
		grid:     g,
		rows:     make([]Row, 0, len(ordered)*g.Len()),
		entities: make([]string, 0, len(ordered)),
		index:    make(map[key]int, len(ordered)*g.Len()),
	}
	for _, td := range ordered {
		p.entities = append(p.entities, td.EntityID)
		for i, year := range td.Years {
			if !g.Contains(year) {
				continue
			}
			p.append(rowAt(td, i, s))
		}
	}
	return p, nil
}

func (p *Panel) append(r Row) {
	k := key{entityID: r.EntityID, year: r.Year}
	if _, exists := p.index[k]; !exists {
		p.index[k] = len(p.rows)
	}
	p.rows = append(p.rows, r)
}

func rowAt(td *timedataset.TimeDataset, i int, s timedataset.Schema) Row {
	r := Row{
		EntityID:   td.EntityID,
		Year:       td.Years[i],
		Identity:   make([]string, len(s.Identity)),
		Indicators: make([]float64, len(s.Indicators)),
		Fills:      make([]interpolate.Fill, len(s.Indicators)),
	}
	for j, col := range s.Identity {
		r.Identity[j] = td.Identity[col][i]
	}
	for j, col := range s.Indicators {
		r.Indicators[j] = td.Indicators[col][i]
		r.Fills[j] = td.Fills[col][i]
	}
	return r
}

func sameSchema(a, b timedataset.Schema) bool {
	return slices.Equal(a.Identity, b.Identity) && slices.Equal(a.Indicators, b.Indicators)
}

// Schema returns the panel columns.
func (p *Panel) Schema() timedataset.Schema {
	return p.schema
}

// Grid returns the target year grid the panel realises.
func (p *Panel) Grid() *grid.Grid {
	return p.grid
}

// Len returns the number of rows.
func (p *Panel) Len() int {
	return len(p.rows)
}

// Rows returns the panel rows in entity then year order. The slice must not be modified.
func (p *Panel) Rows() []Row {
	return p.rows
}

// Entities returns the entity ids in panel order.
func (p *Panel) Entities() []string {
	return slices.Clone(p.entities)
}

// Lookup returns the row for an entity and year.
func (p *Panel) Lookup(entityID string, year int) (Row, bool) {
	i, exists := p.index[key{entityID: entityID, year: year}]
	if !exists {
		return Row{}, false
	}
	return p.rows[i], true
}

// IndicatorIndex returns the position of an indicator column within Row.Indicators.
func (p *Panel) IndicatorIndex(name string) (int, error) {
	i := slices.Index(p.schema.Indicators, name)
	if i < 0 {
		return 0, errors.Wrapf(ErrUnknownColumn, "indicator %q", name)
	}
	return i, nil
}

// IdentityIndex returns the position of an identity column within Row.Identity.
func (p *Panel) IdentityIndex(name string) (int, error) {
	i := slices.Index(p.schema.Identity, name)
	if i < 0 {
		return 0, errors.Wrapf(ErrUnknownColumn, "identity %q", name)
	}
	return i, nil
}

// Series returns the values of one indicator for an entity in grid order.
func (p *Panel) Series(entityID, indicator string) ([]float64, error) {
	j, err := p.IndicatorIndex(indicator)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, p.grid.Len())
	for _, year := range p.grid.Years() {
		r, exists := p.Lookup(entityID, year)
		if !exists {
			out = append(out, math.NaN())
			continue
		}
		out = append(out, r.Indicators[j])
	}
	return out, nil
}

// Validate checks that the panel holds exactly one row per entity and grid year.
func (p *Panel) Validate() error {
	if len(p.index) != len(p.rows) {
		return errors.Wrapf(ErrDuplicateRow, "%d rows, %d distinct keys", len(p.rows), len(p.index))
	}
	for _, id := range p.entities {
		for _, year := range p.grid.Years() {
			if _, exists := p.index[key{entityID: id, year: year}]; !exists {
				return errors.Wrapf(ErrMissingRow, "entity %s year %d", id, year)
			}
		}
	}
	return nil
}
