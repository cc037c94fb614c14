// Package timedataset reconstructs the dense per entity timeline over a target year grid
// from the entity's sparse observations.
package timedataset

import (
	"math"

	"github.com/aouyang1/go-panelfill/grid"
	"github.com/aouyang1/go-panelfill/interpolate"
	"github.com/aouyang1/go-panelfill/observation"
	"github.com/cockroachdb/errors"
)

var ErrNilGrid = errors.New("nil target year grid")

// TimeDataset is the reconstructed timeline of a single entity. Columns are stored as
// slices aligned with Years, one value per target year.
type TimeDataset struct {
	EntityID string
	Years    []int

	Identity   map[string][]string
	Indicators map[string][]float64
	Fills      map[string][]interpolate.Fill

	// OffGrid counts observations whose year is not part of the grid.
	OffGrid int
	// Merged counts observations that landed on a year already seeded by another one.
	Merged int

	schema           Schema
	identityFallback map[string]string
}

// Reconstruct builds the scaffold for one entity, propagates its identity attributes
// and fills its numeric indicators. It only reads its inputs.
func Reconstruct(entityID string, obs []observation.Observation, g *grid.Grid, s Schema) (*TimeDataset, error) {
	td, err := Scaffold(entityID, obs, g, s)
	if err != nil {
		return nil, err
	}
	td.PropagateIdentity()
	if err := td.Interpolate(); err != nil {
		return nil, errors.Wrapf(err, "entity %s", entityID)
	}
	return td, nil
}

// Scaffold returns one row per grid year in grid order. Rows with an observation are
// seeded with its values, all others start unset: NaN for indicators and an empty string
// for identity attributes. When several observations share a year the later one only
// overrides the fields it actually carries.
func Scaffold(entityID string, obs []observation.Observation, g *grid.Grid, s Schema) (*TimeDataset, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	n := g.Len()

	td := &TimeDataset{
		EntityID:         entityID,
		Years:            g.Years(),
		Identity:         make(map[string][]string, len(s.Identity)),
		Indicators:       make(map[string][]float64, len(s.Indicators)),
		Fills:            make(map[string][]interpolate.Fill, len(s.Indicators)),
		schema:           s,
		identityFallback: make(map[string]string),
	}
	for _, col := range s.Identity {
		td.Identity[col] = make([]string, n)
	}
	for _, col := range s.Indicators {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.NaN()
		}
		td.Indicators[col] = vals
		td.Fills[col] = make([]interpolate.Fill, n)
	}

	seeded := make([]bool, n)
	for _, o := range obs {
		i, err := g.Index(o.Year)
		if err != nil {
			td.OffGrid++
			td.rememberIdentity(o)
			continue
		}
		if seeded[i] {
			td.Merged++
		}
		seeded[i] = true

		for _, col := range s.Identity {
			if v := o.IdentityValue(col); v != "" {
				td.Identity[col][i] = v
			}
		}
		for _, col := range s.Indicators {
			if v := o.Indicator(col); !math.IsNaN(v) {
				td.Indicators[col][i] = v
			}
		}
	}
	return td, nil
}

// rememberIdentity keeps the first identity values seen on observations outside of the
// grid. They are only used for columns no grid year carries.
func (td *TimeDataset) rememberIdentity(o observation.Observation) {
	for _, col := range td.schema.Identity {
		if _, exists := td.identityFallback[col]; exists {
			continue
		}
		if v := o.IdentityValue(col); v != "" {
			td.identityFallback[col] = v
		}
	}
}

// Len returns the number of rows.
func (td *TimeDataset) Len() int {
	return len(td.Years)
}

// Schema returns the columns the dataset was built with.
func (td *TimeDataset) Schema() Schema {
	return td.schema
}

// PropagateIdentity forward fills and then backward fills every identity column over the
// year ordered rows. A column with no known value on any grid year falls back to a value
// carried by an off grid observation, if any, and otherwise stays unset.
func (td *TimeDataset) PropagateIdentity() {
	for _, col := range td.schema.Identity {
		vals := td.Identity[col]

		var last string
		for i := range vals {
			if vals[i] != "" {
				last = vals[i]
				continue
			}
			vals[i] = last
		}

		var next string
		for i := len(vals) - 1; i >= 0; i-- {
			if vals[i] != "" {
				next = vals[i]
				continue
			}
			vals[i] = next
		}

		if fallback, exists := td.identityFallback[col]; exists {
			for i := range vals {
				if vals[i] == "" {
					vals[i] = fallback
				}
			}
		}
	}
}

// Interpolate fills every indicator column: interior gaps by linear interpolation in
// year units and trailing gaps by carrying the last known value forward. Leading gaps
// stay NaN and a column without any known value is left entirely unset.
func (td *TimeDataset) Interpolate() error {
	x := make([]float64, len(td.Years))
	for i, y := range td.Years {
		x[i] = float64(y)
	}
	for _, col := range td.schema.Indicators {
		fills, err := interpolate.Linear(x, td.Indicators[col])
		if err != nil {
			return errors.Wrapf(err, "indicator %s", col)
		}
		td.Fills[col] = fills
	}
	return nil
}

// Available reports whether the indicator has at least one value on the timeline.
func (td *TimeDataset) Available(indicator string) bool {
	for _, v := range td.Indicators[indicator] {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DropNan returns the years and values of an indicator skipping unset rows.
func (td *TimeDataset) DropNan(indicator string) ([]int, []float64) {
	vals := td.Indicators[indicator]
	years := make([]int, 0, len(vals))
	out := make([]float64, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		years = append(years, td.Years[i])
		out = append(out, v)
	}
	return years, out
}
