// Package search reconciles free-text and faceted search results with the
// tree.
//
// The Orchestrator is a pure state machine: it decides which strategy to
// use, builds requests, and applies responses, but never performs I/O. The
// engine runs the requests it returns and feeds the responses back through
// Apply or Fail together with the token they were issued with; only the
// latest token may change State.
package search

import (
	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/filter"
	"github.com/joshuapare/arctree/tree"
)

// Strategy is how a query is evaluated.
type Strategy int

const (
	// StrategyLocal walks the materialized tree in memory.
	StrategyLocal Strategy = iota
	// StrategyCollection asks the catalog, scoped to the bound resource.
	StrategyCollection
	// StrategyGlobal asks the catalog across resources, optionally one repository.
	StrategyGlobal
)

func (s Strategy) String() string {
	switch s {
	case StrategyCollection:
		return "collection"
	case StrategyGlobal:
		return "global"
	default:
		return "local"
	}
}

// Field restricts which record field a query matches.
type Field string

const (
	FieldAll        Field = ""
	FieldTitle      Field = "title"
	FieldIdentifier Field = "identifier"
	FieldStatus     Field = "status"
	FieldLocation   Field = "location"
)

// ParseField validates user input.
func ParseField(s string) (Field, bool) {
	switch f := Field(s); f {
	case FieldAll, FieldTitle, FieldIdentifier, FieldStatus, FieldLocation:
		return f, true
	}
	return FieldAll, false
}

// MatchFields records which fields matched a local query.
type MatchFields struct {
	Title      bool
	Identifier bool
	Status     bool
	Location   bool
}

// Any reports whether at least one field matched.
func (m MatchFields) Any() bool {
	return m.Title || m.Identifier || m.Status || m.Location
}

// Match is one search result, remote or local.
type Match struct {
	URI        string
	Title      string
	Identifier string
	Level      string
	Status     tree.Status
	// Ancestors lists ancestor URIs root-first when the catalog supplies them.
	Ancestors []string
	// Fields is set for local matches only.
	Fields MatchFields
}

func matchFromHit(h catalog.Hit) Match {
	return Match{
		URI:        h.URI,
		Title:      h.Title,
		Identifier: h.Identifier,
		Level:      h.Level,
		Status:     tree.DeriveStatus(h.StatusType),
		Ancestors:  h.Ancestors,
	}
}

// Scope is where the browser currently is, which drives strategy choice.
type Scope struct {
	ResourceID   string
	RepositoryID string
	// Global searches across resources even when one is bound.
	Global bool
	// LocalOnly forces in-memory search over the materialized tree.
	LocalOnly bool
}

// State is the observable search state.
type State struct {
	Query    string
	Field    Field
	Facets   filter.Facets
	Strategy Strategy

	Results  []Match // current page only, replaced wholesale
	Total    int
	Page     int // 1-based; 0 when nothing has been searched
	PageSize int

	// Active is the global ordinal of the highlighted match,
	// (Page-1)*PageSize + index within Results, or -1 for none.
	Active int

	Loading bool
	Err     error
}

// PageStart is the ordinal of Results[0].
func (s State) PageStart() int {
	if s.Page < 1 {
		return 0
	}
	return (s.Page - 1) * s.PageSize
}

// ActiveMatch returns the highlighted match when it is on the current page.
func (s State) ActiveMatch() (Match, bool) {
	i := s.Active - s.PageStart()
	if s.Active < 0 || i < 0 || i >= len(s.Results) {
		return Match{}, false
	}
	return s.Results[i], true
}

// Pages is the number of result pages.
func (s State) Pages() int {
	if s.PageSize <= 0 || s.Total == 0 {
		return 0
	}
	return (s.Total + s.PageSize - 1) / s.PageSize
}
