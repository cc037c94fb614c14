// Package interpolate fills gaps in a univariate series sampled at strictly increasing
// positions. Missing values are represented as NaN.
//
// Two policies are applied and never mixed:
//   - gaps strictly between two known points are linearly interpolated in x units
//   - gaps strictly after the last known point carry the last known value forward
//
// Gaps before the first known point are left as NaN.
package interpolate

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var (
	ErrLenMismatch  = errors.New("positions have a different length than values")
	ErrNonMonotonic = errors.New("positions are not strictly increasing")
	ErrUnknownFill  = errors.New("unknown fill")
)

// Fill describes where a value in a filled series came from.
type Fill uint8

const (
	Unset Fill = iota
	Observed
	Interpolated
	CarriedForward
)

var fillNames = [...]string{
	Unset:          "unset",
	Observed:       "observed",
	Interpolated:   "interpolated",
	CarriedForward: "carried_forward",
}

func (f Fill) String() string {
	if int(f) < len(fillNames) {
		return fillNames[f]
	}
	return "unknown"
}

// MarshalText encodes the fill by name.
func (f Fill) MarshalText() ([]byte, error) {
	if int(f) >= len(fillNames) {
		return nil, ErrUnknownFill
	}
	return []byte(fillNames[f]), nil
}

// UnmarshalText decodes a fill from its name.
func (f *Fill) UnmarshalText(b []byte) error {
	for i, name := range fillNames {
		if name == string(b) {
			*f = Fill(i)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownFill, "%q", string(b))
}

// Known returns the indices of the non NaN values in y.
func Known(y []float64) []int {
	idx := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Linear fills the NaN values of y in place using positions x and returns how every
// value was obtained. x must be strictly increasing and the same length as y.
// A series without any known value is left untouched with every position Unset.
func Linear(x, y []float64) ([]Fill, error) {
	if len(x) != len(y) {
		return nil, errors.Wrapf(ErrLenMismatch, "%d positions, %d values", len(x), len(y))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, errors.Wrapf(ErrNonMonotonic, "at %d", i)
		}
	}

	fills := make([]Fill, len(y))
	if !floats.HasNaN(y) {
		for i := range fills {
			fills[i] = Observed
		}
		return fills, nil
	}

	known := Known(y)
	if len(known) == 0 {
		return fills, nil
	}
	for _, i := range known {
		fills[i] = Observed
	}

	first, last := known[0], known[len(known)-1]
	if err := fillInterior(x, y, fills, known, first, last); err != nil {
		return nil, err
	}

	for i := last + 1; i < len(y); i++ {
		y[i] = y[last]
		fills[i] = CarriedForward
	}
	return fills, nil
}

func fillInterior(x, y []float64, fills []Fill, known []int, first, last int) error {
	if last-first+1 == len(known) {
		// no gaps between the first and last known point
		return nil
	}

	xs := make([]float64, len(known))
	ys := make([]float64, len(known))
	for j, i := range known {
		xs[j] = x[i]
		ys[j] = y[i]
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return errors.Wrap(err, "unable to fit known points")
	}

	for i := first + 1; i < last; i++ {
		if fills[i] == Observed {
			continue
		}
		y[i] = pl.Predict(x[i])
		fills[i] = Interpolated
	}
	return nil
}
