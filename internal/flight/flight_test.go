package flight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

func wp(addr, id string, at time.Time, lat, lon, alt float64) waypoint.Waypoint {
	w := waypoint.Waypoint{
		Timestamp:  at,
		Address:    addr,
		Latitude:   lat,
		Longitude:  lon,
		AltitudeFt: alt,
	}
	if id != "" {
		w.SetFlightID(id)
	}
	return w
}

func TestReconstructGroupsByFlightID(t *testing.T) {
	base := time.Date(2025, time.January, 24, 10, 0, 0, 0, time.UTC)
	batch := waypoint.Batch{
		wp("A00537", "UAL100", base.Add(10*time.Minute), 44, -80, 32000),
		wp("A00537", "UAL100", base, 43, -79, 31000),
		wp("C01234", "ACA9", base.Add(-time.Hour), 49, -123, 37000),
	}

	flights, err := Reconstruct(batch)
	require.NoError(t, err)
	require.Len(t, flights, 2)

	// Ordered by start time; waypoints sorted within each flight.
	assert.Equal(t, "ACA9", flights[0].ID)
	assert.Equal(t, "UAL100", flights[1].ID)
	require.Len(t, flights[1].Waypoints, 2)
	assert.Equal(t, base, flights[1].Start())
	assert.Equal(t, base.Add(10*time.Minute), flights[1].End())
	assert.Equal(t, "A00537", flights[1].Address)
}

func TestReconstructRejectsUnidentified(t *testing.T) {
	base := time.Date(2025, time.January, 24, 10, 0, 0, 0, time.UTC)
	batch := waypoint.Batch{
		wp("A00537", "UAL100", base, 43, -79, 31000),
		wp("A00537", "", base.Add(time.Minute), 43, -79, 31000),
	}

	_, err := Reconstruct(batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnidentifiedWaypoints)
}

func TestSpanCenterAndZoom(t *testing.T) {
	base := time.Date(2025, time.January, 24, 10, 0, 0, 0, time.UTC)
	f := Flight{ID: "UAL100", Waypoints: waypoint.Batch{
		wp("A00537", "UAL100", base, 40, -80, 30000),
		wp("A00537", "UAL100", base.Add(time.Hour), 50, -70, 30000),
	}}

	span := f.Span()
	assert.InDelta(t, 45, span.CenterLat, 0.001)
	assert.InDelta(t, -75, span.CenterLon, 0.001)
	assert.InDelta(t, 10, span.LatRange, 0.001)
	assert.InDelta(t, 10, span.LonRange, 0.001)
	// 100 / 10 = 10x, within the [1, 20] clamp.
	assert.InDelta(t, 10, span.Zoom, 0.001)
}

func TestSpanZoomClamped(t *testing.T) {
	base := time.Date(2025, time.January, 24, 10, 0, 0, 0, time.UTC)

	// A single point has no spread; the floor range of 0.1 degrees
	// yields the maximum zoom.
	point := Flight{ID: "X", Waypoints: waypoint.Batch{
		wp("A00537", "X", base, 40, -80, 30000),
	}}
	assert.Equal(t, 20.0, point.Span().Zoom)

	// A hemisphere-wide trajectory pins to minimum zoom.
	wide := Flight{ID: "Y", Waypoints: waypoint.Batch{
		wp("A00537", "Y", base, -60, -150, 30000),
		wp("A00537", "Y", base.Add(time.Hour), 60, 150, 30000),
	}}
	assert.Equal(t, 1.0, wide.Span().Zoom)
}

func TestRenderMap(t *testing.T) {
	base := time.Date(2025, time.January, 24, 10, 0, 0, 0, time.UTC)
	f := Flight{ID: "UAL100", Address: "A00537", Waypoints: waypoint.Batch{
		wp("A00537", "UAL100", base, 43, -79, 31000),
		wp("A00537", "UAL100", base.Add(time.Minute), 44, -80, 32000),
	}}

	html, err := RenderMap(&f)
	require.NoError(t, err)
	assert.Contains(t, string(html), "UAL100")

	empty := Flight{ID: "NONE"}
	_, err = RenderMap(&empty)
	assert.Error(t, err)
}
