// Package flight groups a fully-identified waypoint batch into discrete
// flight trajectories and derives the geographic framing used to render
// them.
package flight

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

// ErrUnidentifiedWaypoints indicates the input batch contained
// waypoints without a flight ID. Reconstruction requires the imputed
// output contract: every row identified.
var ErrUnidentifiedWaypoints = errors.New("batch contains waypoints without a flight ID")

// Flight is one reconstructed trajectory: all waypoints sharing a
// flight identifier, ordered by time
type Flight struct {
	ID        string         `json:"flight_id"`
	Address   string         `json:"icao_address"`
	Waypoints waypoint.Batch `json:"waypoints"`
}

// Start returns the timestamp of the first waypoint
func (f *Flight) Start() time.Time {
	if len(f.Waypoints) == 0 {
		return time.Time{}
	}
	return f.Waypoints[0].Timestamp
}

// End returns the timestamp of the last waypoint
func (f *Flight) End() time.Time {
	if len(f.Waypoints) == 0 {
		return time.Time{}
	}
	return f.Waypoints[len(f.Waypoints)-1].Timestamp
}

// Span describes the geographic framing of a trajectory
type Span struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	LatRange  float64 `json:"lat_range"`
	LonRange  float64 `json:"lon_range"`
	Zoom      float64 `json:"zoom"`
}

// Span computes the trajectory's center (mean position) and spread, and
// a zoom scale such that the trajectory occupies a significant part of
// the frame: 1.0 is the full globe, clamped to [1, 20]
func (f *Flight) Span() Span {
	if len(f.Waypoints) == 0 {
		return Span{Zoom: 1}
	}

	var sumLat, sumLon float64
	minLat, maxLat := f.Waypoints[0].Latitude, f.Waypoints[0].Latitude
	minLon, maxLon := f.Waypoints[0].Longitude, f.Waypoints[0].Longitude
	for i := range f.Waypoints {
		w := &f.Waypoints[i]
		sumLat += w.Latitude
		sumLon += w.Longitude
		minLat = min(minLat, w.Latitude)
		maxLat = max(maxLat, w.Latitude)
		minLon = min(minLon, w.Longitude)
		maxLon = max(maxLon, w.Longitude)
	}

	n := float64(len(f.Waypoints))
	latRange := maxLat - minLat
	lonRange := maxLon - minLon
	maxRange := max(latRange, lonRange, 0.1)

	zoom := 100.0 / maxRange
	zoom = max(1.0, min(zoom, 20.0))

	return Span{
		CenterLat: sumLat / n,
		CenterLon: sumLon / n,
		LatRange:  latRange,
		LonRange:  lonRange,
		Zoom:      zoom,
	}
}

// Reconstruct groups a fully-identified batch into flights.
//
// The batch must satisfy the imputation output contract: every waypoint
// carries a flight ID. Flights are returned ordered by start time;
// waypoints within a flight are ordered by timestamp.
func Reconstruct(batch waypoint.Batch) ([]Flight, error) {
	byID := make(map[string]*Flight)
	var order []string
	for i := range batch {
		if !batch[i].Identified() {
			return nil, fmt.Errorf("%w: waypoint %d (address %s)", ErrUnidentifiedWaypoints, i, batch[i].Address)
		}
		id := *batch[i].FlightID
		f, ok := byID[id]
		if !ok {
			f = &Flight{ID: id, Address: batch[i].Address}
			byID[id] = f
			order = append(order, id)
		}
		f.Waypoints = append(f.Waypoints, batch[i])
	}

	flights := make([]Flight, 0, len(order))
	for _, id := range order {
		f := byID[id]
		f.Waypoints.SortByTime()
		flights = append(flights, *f)
	}
	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].Start().Before(flights[j].Start())
	})
	return flights, nil
}
