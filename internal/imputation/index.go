package imputation

import (
	"sort"
	"time"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

// idRef is one identified waypoint as seen by the nearest-ID index
type idRef struct {
	ts time.Time
	id string
}

// nearestIDIndex answers nearest-identified-waypoint queries per
// aircraft address. Built once per imputation call from the identified
// subset of the working batch; queries are binary searches over
// per-address timestamp-sorted slices.
type nearestIDIndex struct {
	byAddress map[string][]idRef
}

// buildNearestIDIndex collects every identified waypoint in the batch
// into a per-address index sorted by timestamp.
//
// Any identified waypoint of the matching address qualifies regardless
// of its collection source.
func buildNearestIDIndex(batch waypoint.Batch) *nearestIDIndex {
	ix := &nearestIDIndex{byAddress: make(map[string][]idRef)}
	for i := range batch {
		if !batch[i].Identified() {
			continue
		}
		ix.byAddress[batch[i].Address] = append(ix.byAddress[batch[i].Address], idRef{
			ts: batch[i].Timestamp,
			id: *batch[i].FlightID,
		})
	}
	for addr := range ix.byAddress {
		refs := ix.byAddress[addr]
		sort.Slice(refs, func(i, j int) bool { return refs[i].ts.Before(refs[j].ts) })
	}
	return ix
}

// internal returns the identified waypoint with the smallest timestamp
// >= g.Start, but only if that timestamp also falls within g.End: an
// identified waypoint physically interleaved inside the group's span.
func (ix *nearestIDIndex) internal(g Group) (idRef, bool) {
	refs := ix.byAddress[g.Address]
	i := sort.Search(len(refs), func(i int) bool { return !refs[i].ts.Before(g.Start) })
	if i < len(refs) && !refs[i].ts.After(g.End) {
		return refs[i], true
	}
	return idRef{}, false
}

// backward returns the identified waypoint with the largest timestamp
// <= g.Start.
func (ix *nearestIDIndex) backward(g Group) (idRef, bool) {
	refs := ix.byAddress[g.Address]
	i := sort.Search(len(refs), func(i int) bool { return refs[i].ts.After(g.Start) })
	if i > 0 {
		return refs[i-1], true
	}
	return idRef{}, false
}

// forward returns the identified waypoint with the smallest timestamp
// >= g.End.
func (ix *nearestIDIndex) forward(g Group) (idRef, bool) {
	refs := ix.byAddress[g.Address]
	i := sort.Search(len(refs), func(i int) bool { return !refs[i].ts.Before(g.End) })
	if i < len(refs) {
		return refs[i], true
	}
	return idRef{}, false
}

// resolutionSource tags how a group's flight ID was decided
type resolutionSource int

const (
	sourceInternal resolutionSource = iota
	sourceBackward
	sourceForward
	sourceSynthesized
)

// resolution is the outcome of the per-group decision policy
type resolution struct {
	id     string
	source resolutionSource
}

// inherited reports whether the ID came from an identified neighbor
// rather than from synthesis
func (r resolution) inherited() bool {
	return r.source != sourceSynthesized
}

// resolve applies the decision policy for one group, in strict priority
// order:
//
//  1. An identified waypoint interleaved inside the group's span wins
//     unconditionally, however far it sits from either boundary.
//  2. Otherwise the nearest of the backward/forward candidates whose
//     distance to its group boundary is within timeThreshold; ties
//     resolve to the backward (earlier) candidate.
//  3. Otherwise a synthesized identifier.
//
// The function is total: every group receives an identifier.
func (ix *nearestIDIndex) resolve(g Group, timeThreshold, midnightThreshold time.Duration) resolution {
	if ref, ok := ix.internal(g); ok {
		return resolution{id: ref.id, source: sourceInternal}
	}

	prev, havePrev := ix.backward(g)
	next, haveNext := ix.forward(g)

	var distPrev, distNext time.Duration
	validPrev := false
	if havePrev {
		distPrev = absDuration(g.Start.Sub(prev.ts))
		validPrev = distPrev <= timeThreshold
	}
	validNext := false
	if haveNext {
		distNext = absDuration(next.ts.Sub(g.End))
		validNext = distNext <= timeThreshold
	}

	switch {
	case validPrev && validNext:
		if distPrev <= distNext {
			return resolution{id: prev.id, source: sourceBackward}
		}
		return resolution{id: next.id, source: sourceForward}
	case validPrev:
		return resolution{id: prev.id, source: sourceBackward}
	case validNext:
		return resolution{id: next.id, source: sourceForward}
	}

	return resolution{
		id:     Synthesize(g.Start, g.End, g.Address, midnightThreshold),
		source: sourceSynthesized,
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
