package cache

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// Key derives the cache key for a tracked location. Locations with a
// registry identifier use it directly so renames and display formatting
// cannot split an entry; ad hoc queries fall back to the normalized name.
func Key(loc domain.TrackedLocation) string {
	if loc.ID != 0 {
		return fmt.Sprintf("id:%d", loc.ID)
	}
	return NormalizeQuery(loc.Name)
}

// NormalizeQuery canonicalizes a free-text location query: case-folded,
// trimmed, inner whitespace collapsed to single spaces. "  Da   Nang " and
// "da nang" address the same cache entry.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
