// Package imputation assigns a flight identifier to every waypoint in a
// batch. Waypoints that arrive without one are grouped into temporally
// contiguous runs per aircraft address; each run either inherits the
// identifier of a temporally nearby identified waypoint or receives a
// deterministic synthesized identifier.
package imputation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

// ErrUnresolved indicates the imputation postcondition was violated:
// waypoints remained without a flight ID after the policy ran. The
// policy is total by construction, so this signals a logic defect, not
// bad input, and must never be swallowed.
var ErrUnresolved = errors.New("waypoints left without a flight ID after imputation")

const defaultThreshold = 20 * time.Minute

// Config holds the imputation thresholds. The three knobs are
// independent even though they share a default.
type Config struct {
	// TimeThreshold is the maximum distance between a group boundary
	// and an identified waypoint for the group to inherit its ID.
	TimeThreshold time.Duration

	// MidnightThreshold is the window around midnight within which a
	// synthesized ID uses rollover/holdover formatting.
	MidnightThreshold time.Duration

	// GroupGap is the maximum inter-waypoint gap within one contiguous
	// group of unidentified waypoints.
	GroupGap time.Duration
}

// DefaultConfig returns the standard thresholds (20 minutes each)
func DefaultConfig() Config {
	return Config{
		TimeThreshold:     defaultThreshold,
		MidnightThreshold: defaultThreshold,
		GroupGap:          defaultThreshold,
	}
}

func (c Config) withDefaults() Config {
	if c.TimeThreshold <= 0 {
		c.TimeThreshold = defaultThreshold
	}
	if c.MidnightThreshold <= 0 {
		c.MidnightThreshold = defaultThreshold
	}
	if c.GroupGap <= 0 {
		c.GroupGap = defaultThreshold
	}
	return c
}

// Stats summarizes one imputation call
type Stats struct {
	InputRows   int `json:"input_rows"`
	OutputRows  int `json:"output_rows"`
	DroppedRows int `json:"dropped_rows"` // hygiene: duplicates, missing address/timestamp
	Groups      int `json:"groups"`
	Inherited   int `json:"inherited"`   // groups that inherited a neighbor's ID
	Synthesized int `json:"synthesized"` // groups that received a synthesized ID
}

// Impute returns a batch in which every waypoint carries a flight ID.
//
// If no waypoint is missing an ID the input batch is returned as-is and
// no grouping, matching, or synthesis runs. Otherwise the input is
// copied, hygiene-filtered (exact duplicates and rows without an
// address or timestamp are dropped, so the output may be shorter than
// the input), and each contiguous unidentified group is resolved by the
// decision policy. The caller's batch is never mutated.
func Impute(batch waypoint.Batch, cfg Config) (waypoint.Batch, Stats, error) {
	cfg = cfg.withDefaults()
	stats := Stats{InputRows: len(batch)}

	// Fast path: nothing to impute.
	if batch.CountUnidentified() == 0 {
		stats.OutputRows = len(batch)
		return batch, stats, nil
	}

	work := hygiene(batch.Clone())
	stats.DroppedRows = len(batch) - len(work)

	missing := make([]int, 0, len(work))
	for i := range work {
		if !work[i].Identified() {
			missing = append(missing, i)
		}
	}
	sortIndicesByAddressTime(work, missing)

	groups := groupContiguous(work, missing, cfg.GroupGap)
	stats.Groups = len(groups)

	ix := buildNearestIDIndex(work)
	for _, g := range groups {
		res := ix.resolve(g, cfg.TimeThreshold, cfg.MidnightThreshold)
		if res.inherited() {
			stats.Inherited++
		} else {
			stats.Synthesized++
		}
		for _, i := range g.Members {
			work[i].SetFlightID(res.id)
		}
	}

	if n := work.CountUnidentified(); n > 0 {
		return nil, stats, fmt.Errorf("%w: %d waypoint(s)", ErrUnresolved, n)
	}

	stats.OutputRows = len(work)
	return work, stats, nil
}

// hygiene drops exact duplicate rows and rows missing an address or
// timestamp, preserving first occurrences in input order
func hygiene(batch waypoint.Batch) waypoint.Batch {
	seen := make(map[string]struct{}, len(batch))
	out := batch[:0]
	for i := range batch {
		if batch[i].Address == "" || batch[i].Timestamp.IsZero() {
			continue
		}
		key := batch[i].Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, batch[i])
	}
	return out
}

// sortIndicesByAddressTime orders the index slice by the referenced
// waypoints' (address, timestamp), the input order the grouper requires
func sortIndicesByAddressTime(batch waypoint.Batch, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		wa, wb := &batch[idx[a]], &batch[idx[b]]
		if wa.Address != wb.Address {
			return wa.Address < wb.Address
		}
		return wa.Timestamp.Before(wb.Timestamp)
	})
}
