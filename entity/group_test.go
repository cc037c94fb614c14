package entity

import (
	"testing"

	"github.com/aouyang1/go-panelfill/observation"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	testData := map[string]struct {
		obs         []observation.Observation
		expectedIDs []string
		expectedLen map[string]int
		rejected    []int
	}{
		"no observations": {
			expectedIDs: []string{},
			expectedLen: map[string]int{},
		},
		"first encounter order": {
			obs: []observation.Observation{
				{EntityID: "0002000", Year: 2000},
				{EntityID: "0001000", Year: 2000},
				{EntityID: "0002000", Year: 2010},
				{EntityID: "0003000", Year: 2010},
				{EntityID: "0001000", Year: 2010},
			},
			expectedIDs: []string{"0002000", "0001000", "0003000"},
			expectedLen: map[string]int{"0002000": 2, "0001000": 2, "0003000": 1},
		},
		"missing entity ids rejected": {
			obs: []observation.Observation{
				{EntityID: "", Year: 2000},
				{EntityID: "0001000", Year: 2000},
				{EntityID: "  ", Year: 2010},
			},
			expectedIDs: []string{"0001000"},
			expectedLen: map[string]int{"0001000": 1},
			rejected:    []int{0, 2},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			groups, rejected := Partition(td.obs)
			require.NotNil(t, groups)
			assert.Equal(t, td.expectedIDs, groups.EntityIDs())
			assert.Equal(t, len(td.expectedIDs), groups.Len())
			for id, n := range td.expectedLen {
				grp, exists := groups.Get(id)
				require.True(t, exists)
				assert.Len(t, grp.Observations, n)
				for _, o := range grp.Observations {
					assert.Equal(t, id, o.EntityID)
				}
			}

			require.Len(t, rejected, len(td.rejected))
			for i, idx := range td.rejected {
				assert.Equal(t, idx, rejected[i].Index)
				assert.True(t, errors.Is(rejected[i].Err, observation.ErrMissingEntityID))
				assert.Contains(t, rejected[i].Error(), "missing entity id")
			}
		})
	}
}

func TestGroupsPreserveObservationOrder(t *testing.T) {
	obs := []observation.Observation{
		{EntityID: "a", Year: 2010},
		{EntityID: "a", Year: 2000},
		{EntityID: "a", Year: 2010, Indicators: map[string]float64{"x": 1}},
	}
	groups, rejected := Partition(obs)
	require.Empty(t, rejected)

	grp := groups.At(0)
	assert.Equal(t, "a", grp.EntityID)
	assert.Equal(t, obs, grp.Observations)
}

func TestGroupsSort(t *testing.T) {
	groups := NewGroups()
	for _, id := range []string{"0003000", "0001000", "0002000"} {
		require.Nil(t, groups.Add(observation.Observation{EntityID: id}))
	}
	groups.Sort()
	assert.Equal(t, []string{"0001000", "0002000", "0003000"}, groups.EntityIDs())
	assert.Equal(t, "0002000", groups.At(1).EntityID)

	_, exists := groups.Get("0004000")
	assert.False(t, exists)
}
