package catalog

import "strings"

// RawNode is a record as the catalog returns it, before normalization.
type RawNode struct {
	URI         string `json:"uri"`
	Title       string `json:"title,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	Level       string `json:"level,omitempty"`
	Type        string `json:"type,omitempty"`
	HasChildren bool   `json:"has_children"`
	ChildCount  int    `json:"child_count,omitempty"`
	Status      string `json:"status,omitempty"`
	StatusType  string `json:"status_type,omitempty"`
	Extent      string `json:"extent,omitempty"`
	Location    string `json:"location,omitempty"`
}

// RootResponse carries the collection root and its first page of children.
type RootResponse struct {
	Root         RawNode   `json:"root"`
	Children     []RawNode `json:"children"`
	WaypointSize int       `json:"waypoint_size,omitempty"`
}

// ChildrenResponse is one page ("waypoint") of a parent's children.
type ChildrenResponse struct {
	ParentURI string    `json:"parent_uri"`
	Offset    int       `json:"offset"`
	Children  []RawNode `json:"children"`
}

// Hit is one search result.
type Hit struct {
	URI        string   `json:"uri"`
	Title      string   `json:"title"`
	Identifier string   `json:"identifier,omitempty"`
	Level      string   `json:"level,omitempty"`
	StatusType string   `json:"status_type,omitempty"`
	Ancestors  []string `json:"ancestors,omitempty"`
}

// Scope selects how far a remote search reaches.
type Scope int

const (
	// ScopeCollection restricts results to one resource.
	ScopeCollection Scope = iota
	// ScopeGlobal searches the whole catalog, optionally narrowed by repository.
	ScopeGlobal
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "collection"
}

// SearchOptions are the facet filters sent alongside a query.
type SearchOptions struct {
	Levels       []string `json:"levels,omitempty"`
	AncestorURIs []string `json:"ancestor_uris,omitempty"`
	FilterTerms  []string `json:"filter_terms,omitempty"`
}

// IsEmpty reports whether no facet is set.
func (o SearchOptions) IsEmpty() bool {
	return len(o.Levels) == 0 && len(o.AncestorURIs) == 0 && len(o.FilterTerms) == 0
}

// SearchRequest describes a single remote search page.
type SearchRequest struct {
	Scope        Scope
	ResourceID   string
	RepositoryID string
	Query        string
	// Field restricts the text match to one field ("title", "identifier", ...).
	// Empty matches any field.
	Field    string
	Page     int
	PageSize int
	Options  SearchOptions
}

// SearchResponse is a page of hits plus the total across all pages.
type SearchResponse struct {
	Hits     []Hit `json:"results"`
	Total    int   `json:"total_hits"`
	Page     int   `json:"this_page"`
	PageSize int   `json:"page_size"`
}

// Step is one ancestor in a resolved path. WaypointOffset names the page of
// this node's children that holds the next step; it is absent on the target.
type Step struct {
	NodeURI        string `json:"node_uri"`
	WaypointOffset *int   `json:"waypoint_offset,omitempty"`
}

// PathResponse maps each requested node URI to its root-first ancestor steps.
type PathResponse struct {
	Paths map[string][]Step `json:"paths"`
}

// ResourceFromURI extracts the resource id from a record URI of the form
// /repositories/{repo}/resources/{id}[/...]. The second result is false when
// the URI does not name a resource.
func ResourceFromURI(uri string) (repo, resource string, ok bool) {
	parts := strings.Split(strings.Trim(uri, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "repositories" {
			repo = parts[i+1]
		}
		if parts[i] == "resources" {
			return repo, parts[i+1], true
		}
	}
	return repo, "", false
}
