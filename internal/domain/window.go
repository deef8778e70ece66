package domain

import "time"

// WindowsOverlap reports whether two time windows share any instant.
// The comparison is strict on both ends: windows that merely touch
// (aEnd == bStart) do not overlap. This is the deduplication boundary rule
// and is pinned by tests; the same predicate is expressed in SQL by the
// event store's overlap query.
func WindowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
