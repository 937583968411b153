package search

import (
	"strings"

	"golang.org/x/text/language"
	textsearch "golang.org/x/text/search"

	"github.com/joshuapare/arctree/filter"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/tree"
)

// matcher folds case and diacritics so "Correspondencia" finds "Correspondência".
var matcher = textsearch.New(language.Und, textsearch.IgnoreCase, textsearch.IgnoreDiacritics)

// Local searches the materialized tree depth-first in server order. A
// wildcard query matches every record that passes the facets. Raw advanced
// terms are backend syntax and are not applied locally.
func Local(store *tree.Store, query string, field Field, facets filter.Facets) []Match {
	start := store.Root()
	if facets.Anchor != "" {
		n, ok := store.Get(facets.Anchor)
		if !ok {
			return nil
		}
		start = n
	}
	if start == nil {
		return nil
	}

	wildcard := strings.TrimSpace(query) == types.WildcardQuery || strings.TrimSpace(query) == ""
	var pat *textsearch.Pattern
	if !wildcard {
		pat = matcher.CompileString(query)
	}

	levels := make(map[string]bool, len(facets.Levels))
	for _, l := range facets.Levels {
		levels[strings.ToLower(l)] = true
	}
	statuses := make(map[types.StatusClass]bool, len(facets.Statuses))
	for _, s := range facets.Statuses {
		statuses[s] = true
	}

	var out []Match
	tree.Walk(start, func(n *tree.Node) bool {
		if n == start && facets.Anchor != "" {
			return true
		}
		if len(levels) > 0 && !levels[strings.ToLower(n.Level)] {
			return true
		}
		if len(statuses) > 0 && !statuses[n.Status.Class] {
			return true
		}
		var fields MatchFields
		if wildcard {
			fields = MatchFields{Title: true}
		} else {
			fields = matchFields(pat, n, field)
			if !fields.Any() {
				return true
			}
		}
		out = append(out, Match{
			URI:        n.URI,
			Title:      n.Title,
			Identifier: n.Identifier,
			Level:      n.Level,
			Status:     n.Status,
			Ancestors:  ancestorURIs(n),
			Fields:     fields,
		})
		return true
	})
	return out
}

func matchFields(pat *textsearch.Pattern, n *tree.Node, field Field) MatchFields {
	has := func(s string) bool {
		if s == "" {
			return false
		}
		start, _ := pat.IndexString(s)
		return start >= 0
	}
	var m MatchFields
	if field == FieldAll || field == FieldTitle {
		m.Title = has(n.Title)
	}
	if field == FieldAll || field == FieldIdentifier {
		m.Identifier = has(n.Identifier)
	}
	if field == FieldAll || field == FieldStatus {
		m.Status = has(n.Status.Label) || has(n.Status.Raw)
	}
	if field == FieldAll || field == FieldLocation {
		m.Location = has(n.Location)
	}
	return m
}

func ancestorURIs(n *tree.Node) []string {
	var out []string
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		out = append(out, cur.URI)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
