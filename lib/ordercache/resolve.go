package ordercache

import (
	"time"

	"ordersync-backend/lib/timezone"
)

// Decision is the outcome of Resolve: either reuse an existing cache
// file as-is, or fetch the [From, To] window from the remote source.
type Decision struct {
	UseCache bool
	// Path is only set when UseCache is true.
	Path string
	// From and To are only set when UseCache is false.
	From time.Time
	To   time.Time
}

// Resolve decides what a run should do given the most recent cache
// file (if any) and the current date. A cache file whose end date is
// today's calendar date is fresh and reused outright. Otherwise the
// fetch window starts at the cache's end date, deliberately refetching
// that day so late or corrected orders near the boundary are picked
// up; without a cache it starts at January 1 of the current year.
func Resolve(latest CacheFile, ok bool, today time.Time) Decision {
	today = timezone.Midnight(today)

	if ok {
		from := timezone.Midnight(latest.To)
		if from.Equal(today) {
			return Decision{UseCache: true, Path: latest.Path}
		}
		return Decision{From: from, To: today}
	}

	return Decision{
		From: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, timezone.Location),
		To:   today,
	}
}
