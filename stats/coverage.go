// Package stats summarises how the values of a reconstructed panel were obtained.
package stats

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/aouyang1/go-panelfill/interpolate"
	"github.com/aouyang1/go-panelfill/panel"
	"gonum.org/v1/gonum/stat"
)

// IndicatorCoverage counts the cells of one indicator by fill kind.
type IndicatorCoverage struct {
	Indicator      string  `json:"indicator"`
	Observed       int     `json:"observed"`
	Interpolated   int     `json:"interpolated"`
	CarriedForward int     `json:"carried_forward"`
	Unset          int     `json:"unset"`
	Unavailable    int     `json:"unavailable_entities"`
	Mean           float64 `json:"-"`
}

// Filled returns the number of cells holding a value.
func (c IndicatorCoverage) Filled() int {
	return c.Observed + c.Interpolated + c.CarriedForward
}

// Coverage is the per indicator fill breakdown of a panel.
type Coverage struct {
	Entities   int                 `json:"entities"`
	Rows       int                 `json:"rows"`
	Indicators []IndicatorCoverage `json:"indicators"`
}

// Compute walks the panel once and counts every indicator cell by fill kind. An entity
// is counted as unavailable for an indicator when none of its rows hold a value.
func Compute(p *panel.Panel) *Coverage {
	s := p.Schema()
	c := &Coverage{
		Entities:   len(p.Entities()),
		Rows:       p.Len(),
		Indicators: make([]IndicatorCoverage, len(s.Indicators)),
	}
	for j, name := range s.Indicators {
		c.Indicators[j].Indicator = name
	}

	values := make([][]float64, len(s.Indicators))
	available := make([]bool, len(s.Indicators))
	var current string
	flush := func() {
		if current == "" {
			return
		}
		for j := range available {
			if !available[j] {
				c.Indicators[j].Unavailable++
			}
			available[j] = false
		}
	}

	for _, r := range p.Rows() {
		if r.EntityID != current {
			flush()
			current = r.EntityID
		}
		for j, f := range r.Fills {
			ic := &c.Indicators[j]
			switch f {
			case interpolate.Observed:
				ic.Observed++
			case interpolate.Interpolated:
				ic.Interpolated++
			case interpolate.CarriedForward:
				ic.CarriedForward++
			default:
				ic.Unset++
			}
			if v := r.Indicators[j]; !math.IsNaN(v) {
				available[j] = true
				values[j] = append(values[j], v)
			}
		}
	}
	flush()

	for j := range c.Indicators {
		c.Indicators[j].Mean = math.NaN()
		if len(values[j]) > 0 {
			c.Indicators[j].Mean = stat.Mean(values[j], nil)
		}
	}
	return c
}

// TablePrint writes the coverage as an aligned table.
func (c *Coverage) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%sCoverage:\n", prefix); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sEntities: %d    Rows: %d\n",
		prefix, indent, c.Entities, c.Rows); err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sIndicator\tObserved\tInterpolated\tCarried\tUnset\tUnavailable\tMean\t\n",
		prefix, indent); err != nil {
		return err
	}
	for _, ic := range c.Indicators {
		mean := "..."
		if !math.IsNaN(ic.Mean) {
			mean = fmt.Sprintf("%.3f", ic.Mean)
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%d\t%d\t%d\t%d\t%d\t%s\t\n",
			prefix, indent,
			ic.Indicator, ic.Observed, ic.Interpolated, ic.CarriedForward, ic.Unset, ic.Unavailable, mean); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
