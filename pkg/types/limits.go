package types

import "time"

// ============================================================================
// Catalog Paging Limits
// ============================================================================
// These constants bound the paging behavior against the remote catalog.

const (
	// DefaultWaypointSize is the number of children a catalog returns per
	// children page ("waypoint"). A page shorter than this is the last one.
	DefaultWaypointSize = 200

	// MaxWaypointSize caps a configured waypoint size.
	MaxWaypointSize = 500

	// DefaultSearchPageSize is the number of hits per search results page.
	DefaultSearchPageSize = 20

	// MaxSearchPageSize caps a configured search page size.
	MaxSearchPageSize = 500

	// WildcardQuery replaces a blank query when facets are present.
	WildcardQuery = "*"
)

const (
	// DefaultDebounce is the quiet period after the last input change before
	// a search is issued.
	DefaultDebounce = 700 * time.Millisecond

	// MinDebounce and MaxDebounce bound a configured debounce.
	MinDebounce = 600 * time.Millisecond
	MaxDebounce = 800 * time.Millisecond

	// DefaultRequestTimeout bounds a single catalog request.
	DefaultRequestTimeout = 30 * time.Second
)

// ClampPageSize returns n clamped into [1, max], or def when n <= 0.
func ClampPageSize(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
