// Package view holds the presentation-facing state of the tree: which nodes
// are expanded, which records the user has selected, and the flattened list
// of rows that results from both.
package view

import "sort"

// ExpansionSet is the set of expanded node URIs. It is never pruned
// implicitly; a URI stays expanded until collapsed.
type ExpansionSet struct {
	ids map[string]struct{}
}

// NewExpansionSet creates an empty set.
func NewExpansionSet() *ExpansionSet {
	return &ExpansionSet{ids: make(map[string]struct{})}
}

// Add expands uri. It reports whether the set changed.
func (e *ExpansionSet) Add(uri string) bool {
	if _, ok := e.ids[uri]; ok {
		return false
	}
	e.ids[uri] = struct{}{}
	return true
}

// Remove collapses uri. It reports whether the set changed.
func (e *ExpansionSet) Remove(uri string) bool {
	if _, ok := e.ids[uri]; !ok {
		return false
	}
	delete(e.ids, uri)
	return true
}

// Has reports whether uri is expanded.
func (e *ExpansionSet) Has(uri string) bool {
	_, ok := e.ids[uri]
	return ok
}

// Len is the number of expanded nodes.
func (e *ExpansionSet) Len() int { return len(e.ids) }

// IDs returns the expanded URIs sorted.
func (e *ExpansionSet) IDs() []string {
	out := make([]string, 0, len(e.ids))
	for id := range e.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear collapses everything.
func (e *ExpansionSet) Clear() {
	e.ids = make(map[string]struct{})
}

// Clone returns an independent copy.
func (e *ExpansionSet) Clone() *ExpansionSet {
	c := &ExpansionSet{ids: make(map[string]struct{}, len(e.ids))}
	for id := range e.ids {
		c.ids[id] = struct{}{}
	}
	return c
}
