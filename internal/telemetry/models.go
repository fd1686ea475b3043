package telemetry

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

// record mirrors one row of the upstream parquet payload. Column names
// follow the provider's schema; they are renamed onto the waypoint
// model during conversion.
type record struct {
	Timestamp      time.Time `parquet:"timestamp"`
	ICAOAddress    string    `parquet:"icao_address"`
	FlightID       *string   `parquet:"flight_id,optional"`
	Latitude       float64   `parquet:"latitude"`
	Longitude      float64   `parquet:"longitude"`
	AltitudeBaro   float64   `parquet:"altitude_baro"`
	TailNumber     *string   `parquet:"tail_number,optional"`
	CollectionType *string   `parquet:"collection_type,optional"`
}

// toWaypoint converts an upstream row to the internal waypoint model,
// normalizing timestamps to UTC and renaming provider columns
func (r *record) toWaypoint() waypoint.Waypoint {
	w := waypoint.Waypoint{
		Timestamp:  r.Timestamp.UTC(),
		Address:    r.ICAOAddress,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		AltitudeFt: r.AltitudeBaro,
	}
	if r.FlightID != nil && *r.FlightID != "" {
		id := *r.FlightID
		w.FlightID = &id
	}
	if r.TailNumber != nil {
		w.TailNumber = *r.TailNumber
	}
	if r.CollectionType != nil {
		w.CollectionType = *r.CollectionType
	}
	return w
}

// decodePayload parses a parquet response body into waypoints
func decodePayload(body []byte) (waypoint.Batch, error) {
	rows, err := parquet.Read[record](bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse parquet payload: %w", err)
	}

	batch := make(waypoint.Batch, 0, len(rows))
	for i := range rows {
		batch = append(batch, rows[i].toWaypoint())
	}
	return batch, nil
}
