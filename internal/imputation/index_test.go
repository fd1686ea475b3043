package imputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-data/flighttrace/internal/waypoint"
)

func identified(addr, id string, at time.Time) waypoint.Waypoint {
	w := waypoint.Waypoint{Timestamp: at, Address: addr}
	w.SetFlightID(id)
	return w
}

func TestIndexQueries(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	batch := waypoint.Batch{
		identified("AAA111", "UAL1", base.Add(-30*time.Minute)),
		identified("AAA111", "UAL2", base.Add(5*time.Minute)),
		identified("AAA111", "UAL3", base.Add(45*time.Minute)),
		identified("BBB222", "ACA9", base),
		unidentified("AAA111", base), // ignored by the index
	}
	ix := buildNearestIDIndex(batch)

	g := Group{Address: "AAA111", Start: base, End: base.Add(10 * time.Minute)}

	in, ok := ix.internal(g)
	require.True(t, ok)
	assert.Equal(t, "UAL2", in.id)

	back, ok := ix.backward(g)
	require.True(t, ok)
	assert.Equal(t, "UAL1", back.id)

	fwd, ok := ix.forward(g)
	require.True(t, ok)
	assert.Equal(t, "UAL3", fwd.id)
}

func TestIndexNoCandidates(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	ix := buildNearestIDIndex(waypoint.Batch{
		identified("BBB222", "ACA9", base),
	})

	g := Group{Address: "AAA111", Start: base, End: base}
	_, ok := ix.internal(g)
	assert.False(t, ok)
	_, ok = ix.backward(g)
	assert.False(t, ok)
	_, ok = ix.forward(g)
	assert.False(t, ok)
}

func TestIndexInternalMustFallInsideSpan(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	ix := buildNearestIDIndex(waypoint.Batch{
		identified("AAA111", "UAL7", base.Add(15*time.Minute)),
	})

	// The identified waypoint sits after the span: forward, not internal.
	g := Group{Address: "AAA111", Start: base, End: base.Add(10 * time.Minute)}
	_, ok := ix.internal(g)
	assert.False(t, ok)
	fwd, ok := ix.forward(g)
	require.True(t, ok)
	assert.Equal(t, "UAL7", fwd.id)
}

func TestResolveTieBreakPrefersBackward(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	ix := buildNearestIDIndex(waypoint.Batch{
		identified("AAA111", "EARLIER", base.Add(-10*time.Minute)),
		identified("AAA111", "LATER", base.Add(15*time.Minute)),
	})

	g := Group{Address: "AAA111", Start: base, End: base.Add(5 * time.Minute)}
	res := ix.resolve(g, 20*time.Minute, 20*time.Minute)
	assert.Equal(t, "EARLIER", res.id)
	assert.Equal(t, sourceBackward, res.source)
	assert.True(t, res.inherited())
}

func TestResolveNearerForwardWins(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	ix := buildNearestIDIndex(waypoint.Batch{
		identified("AAA111", "EARLIER", base.Add(-15*time.Minute)),
		identified("AAA111", "LATER", base.Add(10*time.Minute)),
	})

	g := Group{Address: "AAA111", Start: base, End: base}
	res := ix.resolve(g, 20*time.Minute, 20*time.Minute)
	assert.Equal(t, "LATER", res.id)
	assert.Equal(t, sourceForward, res.source)
}

func TestResolveInternalOverridesEdgeDistance(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	ix := buildNearestIDIndex(waypoint.Batch{
		// Interleaved inside the span, 50 minutes from the start boundary.
		identified("AAA111", "INSIDE", base.Add(50*time.Minute)),
		// Edge candidate just beyond the matching threshold.
		identified("AAA111", "EDGE", base.Add(-25*time.Minute)),
	})

	g := Group{Address: "AAA111", Start: base, End: base.Add(60 * time.Minute)}
	res := ix.resolve(g, 20*time.Minute, 20*time.Minute)
	assert.Equal(t, "INSIDE", res.id)
	assert.Equal(t, sourceInternal, res.source)
}

func TestResolveSynthesizesWhenNothingQualifies(t *testing.T) {
	base := ts(2025, time.June, 1, 12, 0, 0)
	ix := buildNearestIDIndex(waypoint.Batch{
		identified("AAA111", "FAR", base.Add(-2*time.Hour)),
	})

	g := Group{Address: "AAA111", Start: base, End: base.Add(time.Minute)}
	res := ix.resolve(g, 20*time.Minute, 20*time.Minute)
	assert.Equal(t, sourceSynthesized, res.source)
	assert.False(t, res.inherited())
	assert.Contains(t, res.id, "SPIRE-INFERRED-AAA111-")
}
