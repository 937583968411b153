// Package filter turns facet selections into catalog search options.
package filter

import (
	"strings"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/pkg/types"
)

// Backend filter terms for each status facet.
const (
	TermAvailable      = `{"status_class":"available"}`
	TermNeedsAttention = `{"status_class":"needs_attention"}`
	TermRestricted     = `{"restrictions_apply":true}`
)

// StatusTerm returns the fixed backend term for a status class. The second
// result is false for StatusNone or an unknown class.
func StatusTerm(c types.StatusClass) (string, bool) {
	switch c {
	case types.StatusSuccess:
		return TermAvailable, true
	case types.StatusWarning:
		return TermNeedsAttention, true
	case types.StatusError:
		return TermRestricted, true
	default:
		return "", false
	}
}

// Facets are the user's current filter selections.
type Facets struct {
	Levels   []string
	Statuses []types.StatusClass
	// Anchor scopes results to the subtree under this URI. Empty means the
	// whole collection.
	Anchor string
	// Advanced holds raw backend filter terms passed through verbatim.
	Advanced []string
}

// IsEmpty reports whether no facet is selected.
func (f Facets) IsEmpty() bool {
	return len(f.Levels) == 0 && len(f.Statuses) == 0 && f.Anchor == "" && len(f.Advanced) == 0
}

// Compose builds search options from facets. It is pure: the same input
// always yields the same output, duplicates are dropped keeping first-seen
// order, and empty facets yield empty options.
func Compose(f Facets) catalog.SearchOptions {
	var opts catalog.SearchOptions

	opts.Levels = dedupe(f.Levels, strings.ToLower)

	var terms []string
	for _, s := range f.Statuses {
		if t, ok := StatusTerm(s); ok {
			terms = append(terms, t)
		}
	}
	terms = append(terms, f.Advanced...)
	opts.FilterTerms = dedupe(terms, nil)

	if a := strings.TrimSpace(f.Anchor); a != "" {
		opts.AncestorURIs = []string{a}
	}
	return opts
}

func dedupe(in []string, norm func(string) string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if norm != nil {
			s = norm(s)
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
