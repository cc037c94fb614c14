// Package grid defines the ordered set of target years a reconstructed panel must
// realise for every entity.
package grid

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyGrid     = errors.New("target year grid is empty")
	ErrNonMonotonic  = errors.New("target year grid is not strictly increasing")
	ErrYearNotInGrid = errors.New("year not in target year grid")
)

// Grid is an immutable, strictly increasing sequence of years.
type Grid struct {
	years []int
	index map[int]int
}

// New validates the years and returns a Grid. Years must be strictly increasing.
func New(years ...int) (*Grid, error) {
	if len(years) == 0 {
		return nil, ErrEmptyGrid
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return nil, errors.Wrapf(ErrNonMonotonic, "at %d, %d follows %d", i, years[i], years[i-1])
		}
	}

	g := &Grid{
		years: slices.Clone(years),
		index: make(map[int]int, len(years)),
	}
	for i, y := range g.years {
		g.index[y] = i
	}
	return g, nil
}

// MustNew is like New but panics on an invalid grid. Intended for package level
// defaults and tests.
func MustNew(years ...int) *Grid {
	g, err := New(years...)
	if err != nil {
		panic(err)
	}
	return g
}

// Years returns a copy of the grid years in order.
func (g *Grid) Years() []int {
	if g == nil {
		return nil
	}
	return slices.Clone(g.years)
}

// Len returns the number of years in the grid.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.years)
}

// Year returns the year at position i.
func (g *Grid) Year(i int) int {
	return g.years[i]
}

// Index returns the position of year in the grid.
func (g *Grid) Index(year int) (int, error) {
	if g == nil {
		return 0, ErrEmptyGrid
	}
	i, exists := g.index[year]
	if !exists {
		return 0, errors.Wrapf(ErrYearNotInGrid, "%d", year)
	}
	return i, nil
}

// Contains reports whether year is part of the grid.
func (g *Grid) Contains(year int) bool {
	if g == nil {
		return false
	}
	_, exists := g.index[year]
	return exists
}

func (g *Grid) String() string {
	return fmt.Sprint(g.Years())
}
