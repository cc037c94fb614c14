package panelfill

import (
	"github.com/aouyang1/go-panelfill/entity"
	"github.com/aouyang1/go-panelfill/panel"
	"github.com/aouyang1/go-panelfill/stats"
	"github.com/aouyang1/go-panelfill/timedataset"
)

// Results holds the reconstructed panel along with the per entity timelines it was
// assembled from and the data quality counters of the run.
type Results struct {
	Panel     *panel.Panel
	Timelines []*timedataset.TimeDataset

	Rejected []entity.Rejection

	// OffGrid counts observations whose year is not a target year.
	OffGrid int
	// Merged counts observations sharing an entity and year with an earlier one.
	Merged int
	// WithoutIndicators counts entities for which no indicator holds any value.
	WithoutIndicators int
}

// Coverage summarises how the panel values were obtained.
func (r *Results) Coverage() *stats.Coverage {
	return stats.Compute(r.Panel)
}

// Timeline returns the reconstructed timeline of an entity.
func (r *Results) Timeline(entityID string) (*timedataset.TimeDataset, bool) {
	for _, td := range r.Timelines {
		if td.EntityID == entityID {
			return td, true
		}
	}
	return nil, false
}
