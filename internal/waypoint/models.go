package waypoint

import (
	"fmt"
	"sort"
	"time"
)

// Waypoint represents a single timestamped aircraft position report.
//
// Only FlightID is ever written by the imputation core; every other
// field is a read-only input that must survive imputation unmodified.
type Waypoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Address        string    `json:"icao_address"` // 24-bit transponder code rendered as hex
	FlightID       *string   `json:"flight_id"`    // nil when the report arrived without one
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AltitudeFt     float64   `json:"altitude_ft"`
	TailNumber     string    `json:"tail_number,omitempty"`
	CollectionType string    `json:"collection_type,omitempty"` // e.g. "terrestrial" or "satellite"
}

// Identified reports whether the waypoint carries a flight identifier
func (w *Waypoint) Identified() bool {
	return w.FlightID != nil && *w.FlightID != ""
}

// SetFlightID assigns a flight identifier to the waypoint
func (w *Waypoint) SetFlightID(id string) {
	w.FlightID = &id
}

// Key returns a string uniquely identifying the full row content,
// used to drop exact duplicate reports during the hygiene pass
func (w *Waypoint) Key() string {
	fid := ""
	if w.FlightID != nil {
		fid = *w.FlightID
	}
	return fmt.Sprintf("%d|%s|%s|%.6f|%.6f|%.1f|%s|%s",
		w.Timestamp.UnixNano(), w.Address, fid,
		w.Latitude, w.Longitude, w.AltitudeFt,
		w.TailNumber, w.CollectionType)
}

// Batch is an in-memory collection of waypoints
type Batch []Waypoint

// Clone returns a deep-enough copy of the batch: the slice and the
// FlightID pointers are fresh, so mutating the copy never touches the
// caller's batch
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	copy(out, b)
	for i := range out {
		if out[i].FlightID != nil {
			id := *out[i].FlightID
			out[i].FlightID = &id
		}
	}
	return out
}

// SortByAddressTime sorts the batch by (address, timestamp) in place
func (b Batch) SortByAddressTime() {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Address != b[j].Address {
			return b[i].Address < b[j].Address
		}
		return b[i].Timestamp.Before(b[j].Timestamp)
	})
}

// SortByTime sorts the batch by timestamp in place
func (b Batch) SortByTime() {
	sort.SliceStable(b, func(i, j int) bool {
		return b[i].Timestamp.Before(b[j].Timestamp)
	})
}

// CountUnidentified returns the number of waypoints without a flight ID
func (b Batch) CountUnidentified() int {
	n := 0
	for i := range b {
		if !b[i].Identified() {
			n++
		}
	}
	return n
}
