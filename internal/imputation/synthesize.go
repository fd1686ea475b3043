package imputation

import (
	"fmt"
	"time"
)

const (
	idPrefix   = "SPIRE-INFERRED"
	dateLayout = "2006-01-02"

	// last second of a day, 23:59:59
	lastSecondOfDay = 23*3600 + 59*60 + 59
)

// Synthesize produces a deterministic flight identifier from a group's
// time span and aircraft address.
//
// Rules, first match wins:
//
//  1. Holdover: the span ends within midnightThreshold after midnight.
//     "{prefix}-{address}-{date(start)-1d}-rollover-{date(start)}"
//  2. Rollover: the span starts within midnightThreshold before
//     23:59:59. "{prefix}-{address}-{date(start)}-rollover-{date(end)+1d}"
//  3. Standard: "{prefix}-{address}-{unix(start)}-{unix(end)}" with
//     truncated Unix seconds.
//
// Holdover is checked before rollover, so a span satisfying both is
// classified as a holdover. Time-of-day is taken in the timestamp's own
// location.
func Synthesize(start, end time.Time, address string, midnightThreshold time.Duration) string {
	thresholdSecs := int(midnightThreshold / time.Second)

	if secondOfDay(end) <= thresholdSecs {
		return fmt.Sprintf("%s-%s-%s-rollover-%s",
			idPrefix, address,
			start.AddDate(0, 0, -1).Format(dateLayout),
			start.Format(dateLayout))
	}

	if secondOfDay(start) >= lastSecondOfDay-thresholdSecs {
		return fmt.Sprintf("%s-%s-%s-rollover-%s",
			idPrefix, address,
			start.Format(dateLayout),
			end.AddDate(0, 0, 1).Format(dateLayout))
	}

	return fmt.Sprintf("%s-%s-%d-%d", idPrefix, address, start.Unix(), end.Unix())
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
