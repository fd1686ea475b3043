package imputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

func unidentified(addr string, at time.Time) waypoint.Waypoint {
	return waypoint.Waypoint{Timestamp: at, Address: addr}
}

func TestGroupContiguousEmpty(t *testing.T) {
	assert.Empty(t, groupContiguous(nil, nil, 20*time.Minute))
}

func TestGroupContiguousGapSplits(t *testing.T) {
	base := ts(2025, time.May, 1, 10, 0, 0)
	batch := waypoint.Batch{
		unidentified("AAA111", base),
		unidentified("AAA111", base.Add(20*time.Minute)),     // exactly at the gap: same group
		unidentified("AAA111", base.Add(40*time.Minute+time.Second)), // just over: new group
	}
	groups := groupContiguous(batch, []int{0, 1, 2}, 20*time.Minute)

	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 1}, groups[0].Members)
	assert.Equal(t, base, groups[0].Start)
	assert.Equal(t, base.Add(20*time.Minute), groups[0].End)
	assert.Equal(t, []int{2}, groups[1].Members)
}

func TestGroupContiguousAddressSplits(t *testing.T) {
	base := ts(2025, time.May, 1, 10, 0, 0)
	batch := waypoint.Batch{
		unidentified("AAA111", base),
		unidentified("AAA111", base.Add(time.Minute)),
		unidentified("BBB222", base.Add(2*time.Minute)), // same time vicinity, new address
	}
	groups := groupContiguous(batch, []int{0, 1, 2}, 20*time.Minute)

	require.Len(t, groups, 2)
	assert.Equal(t, "AAA111", groups[0].Address)
	assert.Equal(t, "BBB222", groups[1].Address)
}

func TestGroupContiguousDisjointAndOrdered(t *testing.T) {
	base := ts(2025, time.May, 1, 8, 0, 0)
	batch := waypoint.Batch{
		unidentified("AAA111", base),
		unidentified("AAA111", base.Add(2*time.Hour)),
		unidentified("AAA111", base.Add(4*time.Hour)),
	}
	groups := groupContiguous(batch, []int{0, 1, 2}, 20*time.Minute)

	require.Len(t, groups, 3)
	for i := 1; i < len(groups); i++ {
		assert.True(t, groups[i-1].End.Before(groups[i].Start),
			"groups for one address must be disjoint and ordered")
	}
}
