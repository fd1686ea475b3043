package imputation

import (
	"time"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

// Group is a maximal run of unidentified waypoints sharing one aircraft
// address, where consecutive waypoints are no more than the configured
// gap apart. Groups are ephemeral: they live for one imputation call.
type Group struct {
	Address string
	Start   time.Time // min timestamp among members
	End     time.Time // max timestamp among members
	Members []int     // indices into the working batch, in timestamp order
}

// groupContiguous partitions the unidentified waypoints into groups.
//
// missing must hold indices into batch sorted by (address, timestamp).
// A new group starts when the address changes or the gap to the previous
// waypoint exceeds gap. Pure function; empty input yields nil.
func groupContiguous(batch waypoint.Batch, missing []int, gap time.Duration) []Group {
	var groups []Group
	for _, idx := range missing {
		w := &batch[idx]
		last := len(groups) - 1
		if last < 0 || w.Address != groups[last].Address || w.Timestamp.Sub(groups[last].End) > gap {
			groups = append(groups, Group{
				Address: w.Address,
				Start:   w.Timestamp,
				End:     w.Timestamp,
				Members: []int{idx},
			})
			continue
		}
		groups[last].End = w.Timestamp
		groups[last].Members = append(groups[last].Members, idx)
	}
	return groups
}
