package imputation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func TestSynthesizeHoldover(t *testing.T) {
	// Span ends just after midnight: anchored to the previous day.
	at := ts(2025, time.January, 24, 0, 0, 1)
	id := Synthesize(at, at, "A00537", 20*time.Minute)
	assert.Equal(t, "SPIRE-INFERRED-A00537-2025-01-23-rollover-2025-01-24", id)
}

func TestSynthesizeRollover(t *testing.T) {
	// Span starts just before midnight: spans into the next day.
	at := ts(2025, time.January, 24, 23, 59, 59)
	id := Synthesize(at, at, "A00537", 20*time.Minute)
	assert.Equal(t, "SPIRE-INFERRED-A00537-2025-01-24-rollover-2025-01-25", id)
}

func TestSynthesizeStandard(t *testing.T) {
	at := ts(2025, time.January, 24, 12, 30, 0)
	id := Synthesize(at, at, "A00537", 20*time.Minute)
	assert.Equal(t, fmt.Sprintf("SPIRE-INFERRED-A00537-%d-%d", at.Unix(), at.Unix()), id)
}

func TestSynthesizeHoldoverBeatsRollover(t *testing.T) {
	// A span that starts before midnight and ends just after it
	// satisfies both conditions; holdover is checked first.
	start := ts(2025, time.January, 23, 23, 55, 0)
	end := ts(2025, time.January, 24, 0, 5, 0)
	id := Synthesize(start, end, "ABC123", 20*time.Minute)
	assert.Equal(t, "SPIRE-INFERRED-ABC123-2025-01-22-rollover-2025-01-23", id)
}

func TestSynthesizeThresholdBoundaries(t *testing.T) {
	addr := "ABC123"
	threshold := 20 * time.Minute

	// End exactly at 00:20:00 is still a holdover (inclusive).
	end := ts(2025, time.March, 10, 0, 20, 0)
	assert.Equal(t, "SPIRE-INFERRED-ABC123-2025-03-09-rollover-2025-03-10",
		Synthesize(end, end, addr, threshold))

	// End at 00:20:01 is not.
	past := ts(2025, time.March, 10, 0, 20, 1)
	assert.Equal(t, fmt.Sprintf("SPIRE-INFERRED-ABC123-%d-%d", past.Unix(), past.Unix()),
		Synthesize(past, past, addr, threshold))

	// Start exactly at 23:39:59 is a rollover (inclusive).
	start := ts(2025, time.March, 10, 23, 39, 59)
	assert.Equal(t, "SPIRE-INFERRED-ABC123-2025-03-10-rollover-2025-03-11",
		Synthesize(start, start, addr, threshold))

	// Start one second earlier is standard.
	early := ts(2025, time.March, 10, 23, 39, 58)
	assert.Equal(t, fmt.Sprintf("SPIRE-INFERRED-ABC123-%d-%d", early.Unix(), early.Unix()),
		Synthesize(early, early, addr, threshold))
}

func TestSynthesizeMonthBoundaryDates(t *testing.T) {
	// Holdover on the first of a month reaches back into the prior month.
	at := ts(2025, time.February, 1, 0, 0, 30)
	assert.Equal(t, "SPIRE-INFERRED-DEF456-2025-01-31-rollover-2025-02-01",
		Synthesize(at, at, "DEF456", 20*time.Minute))
}
