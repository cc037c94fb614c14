// Package entity partitions a flat observation set into per entity sub-series.
package entity

import (
	"sort"
	"strings"

	"github.com/aouyang1/go-panelfill/observation"
	"github.com/cockroachdb/errors"
)

// Rejection records an observation that could not be grouped along with its position
// in the input and the reason.
type Rejection struct {
	Index       int                     `json:"index"`
	Observation observation.Observation `json:"observation"`
	Err         error                   `json:"-"`
}

func (r Rejection) Error() string {
	return errors.Wrapf(r.Err, "observation %d", r.Index).Error()
}

// Group holds every observation belonging to a single entity in input order.
type Group struct {
	EntityID     string
	Observations []observation.Observation
}

// Groups is an ordered map of entity id to its observations. Iteration order is the
// order in which entities were first encountered unless Sort is called.
type Groups struct {
	order  []string
	groups map[string]*Group
}

// NewGroups returns an empty set of groups.
func NewGroups() *Groups {
	return &Groups{
		groups: make(map[string]*Group),
	}
}

// Add appends the observation to its entity group. Observations with an empty entity id
// are refused with observation.ErrMissingEntityID.
func (g *Groups) Add(o observation.Observation) error {
	if strings.TrimSpace(o.EntityID) == "" {
		return observation.ErrMissingEntityID
	}
	grp, exists := g.groups[o.EntityID]
	if !exists {
		grp = &Group{EntityID: o.EntityID}
		g.groups[o.EntityID] = grp
		g.order = append(g.order, o.EntityID)
	}
	grp.Observations = append(grp.Observations, o)
	return nil
}

// Len returns the number of entities.
func (g *Groups) Len() int {
	return len(g.order)
}

// EntityIDs returns a copy of the entity ids in iteration order.
func (g *Groups) EntityIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Get returns the group for an entity id.
func (g *Groups) Get(entityID string) (*Group, bool) {
	grp, exists := g.groups[entityID]
	return grp, exists
}

// At returns the i-th group in iteration order.
func (g *Groups) At(i int) *Group {
	return g.groups[g.order[i]]
}

// Sort orders the groups by entity id ascending.
func (g *Groups) Sort() {
	sort.Strings(g.order)
}

// Partition groups the observations by entity id. Observations without an entity id are
// returned as rejections and never grouped under an empty key.
func Partition(obs []observation.Observation) (*Groups, []Rejection) {
	groups := NewGroups()
	var rejected []Rejection
	for i, o := range obs {
		if err := groups.Add(o); err != nil {
			rejected = append(rejected, Rejection{Index: i, Observation: o, Err: err})
		}
	}
	return groups, rejected
}
