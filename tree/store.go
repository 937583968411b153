// Package tree holds the partially materialized archival tree.
//
// A Store owns every Node of one browsed collection plus the per-node
// pagination state. Children arrive in waypoint pages; the Store reserves an
// offset before it is requested, applies pages in offset order regardless of
// arrival order, and marks a node fully loaded once its short (terminal)
// page has been applied.
//
// A Store is not safe for concurrent use. The engine drives it from a single
// update loop.
package tree

import (
	"fmt"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/internal/metrics"
	"github.com/joshuapare/arctree/pkg/types"
)

// ApplyResult describes what ApplyChildren did with a page.
type ApplyResult struct {
	Appended    int  // nodes appended to Children, including drained buffered pages
	Buffered    bool // page held until an earlier offset arrives
	Dropped     bool // duplicate or beyond the terminal page; nothing changed
	Skipped     int  // records without a URI
	FullyLoaded bool // node became fully loaded with this page
}

// Store is the materialized tree of one collection.
type Store struct {
	generation   uint64
	waypointSize int
	root         *Node
	index        map[string]*Node
}

// NewStore creates an empty store. generation distinguishes stores across
// collection switches so late responses for an old store can be dropped.
func NewStore(generation uint64, waypointSize int) *Store {
	return &Store{
		generation:   generation,
		waypointSize: types.ClampPageSize(waypointSize, types.DefaultWaypointSize, types.MaxWaypointSize),
		index:        make(map[string]*Node),
	}
}

// Generation returns the store's generation number.
func (s *Store) Generation() uint64 { return s.generation }

// WaypointSize is the page size used to detect a short (terminal) page.
func (s *Store) WaypointSize() int { return s.waypointSize }

// Root returns the collection root, or nil before ApplyRoot.
func (s *Store) Root() *Node { return s.root }

// Get looks up a materialized node by URI.
func (s *Store) Get(uri string) (*Node, bool) {
	n, ok := s.index[uri]
	return n, ok
}

// Len is the number of materialized nodes.
func (s *Store) Len() int { return len(s.index) }

// ApplyRoot installs the root and its first children page. The root's
// pagination is seeded as {loaded={0}, next=1, fullyLoaded=false}.
func (s *Store) ApplyRoot(resp *catalog.RootResponse) error {
	if resp == nil || resp.Root.URI == "" {
		return types.NewError(types.ErrKindMalformed, "root response has no uri", nil)
	}
	if resp.WaypointSize > 0 {
		s.waypointSize = types.ClampPageSize(resp.WaypointSize, types.DefaultWaypointSize, types.MaxWaypointSize)
	}

	root := Normalize(resp.Root)
	s.root = root
	s.index = map[string]*Node{root.URI: root}

	children, skipped := NormalizePage(resp.Children)
	for _, c := range children {
		s.attach(root, c)
	}
	if len(children) > 0 {
		root.HasChildren = true
	}

	p := newPagination()
	p.loaded[0] = true
	p.applied = 1
	p.next = 1
	root.pagination = p

	logger.Debug("root applied", "uri", root.URI, "children", len(children), "skipped", skipped, "generation", s.generation)
	return nil
}

// Reserve claims offset of uri's children for a request. It returns false,
// and the caller must not issue a request, when the node is unknown, the
// page is already received or in flight, or no further pages exist.
func (s *Store) Reserve(uri string, offset int) bool {
	n, ok := s.index[uri]
	if !ok || offset < 0 {
		return false
	}
	if !n.HasChildren && len(n.Children) == 0 {
		return false
	}
	if n.pagination == nil {
		n.pagination = newPagination()
	}
	p := n.pagination
	switch {
	case p.fullyLoaded:
		return false
	case p.last >= 0 && offset > p.last:
		return false
	case p.loaded[offset], p.inFlight[offset]:
		return false
	}
	p.inFlight[offset] = true
	delete(p.failed, offset)
	return true
}

// ReserveThrough reserves every offset from the first unapplied page up to
// and including offset that is neither received nor in flight. The returned
// offsets must each be requested. Used when a specific deep page is needed
// and earlier pages have to be filled in to keep children in server order.
func (s *Store) ReserveThrough(uri string, offset int) []int {
	n, ok := s.index[uri]
	if !ok {
		return nil
	}
	start := 0
	if n.pagination != nil {
		start = n.pagination.applied
	}
	var out []int
	for o := start; o <= offset; o++ {
		if s.Reserve(uri, o) {
			out = append(out, o)
		}
	}
	return out
}

// ApplyChildren records a received children page. Pages are appended in
// offset order; a page arriving ahead of a missing earlier one is buffered.
// A page shorter than the waypoint size marks the node terminal at that
// offset, and the node becomes fully loaded once that page is applied.
func (s *Store) ApplyChildren(uri string, offset int, raws []catalog.RawNode) (ApplyResult, error) {
	var res ApplyResult

	n, ok := s.index[uri]
	if !ok {
		return res, types.NewError(types.ErrKindNotFound, fmt.Sprintf("apply children: node %s not materialized", uri), nil)
	}
	if n.pagination == nil {
		n.pagination = newPagination()
	}
	p := n.pagination

	wasInFlight := p.inFlight[offset]
	delete(p.inFlight, offset)

	if p.loaded[offset] && !wasInFlight {
		res.Dropped = true
		return res, nil
	}
	if p.fullyLoaded || (p.last >= 0 && offset > p.last) {
		res.Dropped = true
		return res, nil
	}

	nodes, skipped := NormalizePage(raws)
	res.Skipped = skipped
	delete(p.failed, offset)
	p.loaded[offset] = true
	if offset+1 > p.next {
		p.next = offset + 1
	}

	if len(raws) < s.waypointSize && (p.last < 0 || offset < p.last) {
		p.last = offset
		for o := range p.pending {
			if o > offset {
				delete(p.pending, o)
			}
		}
	}

	p.pending[offset] = nodes
	for {
		page, ok := p.pending[p.applied]
		if !ok {
			break
		}
		for _, c := range page {
			s.attach(n, c)
		}
		res.Appended += len(page)
		delete(p.pending, p.applied)
		p.applied++
	}

	if _, held := p.pending[offset]; held {
		res.Buffered = true
		metrics.PageBuffered()
		logger.Debug("children page buffered", "uri", uri, "offset", offset, "waiting_for", p.applied)
	}

	if p.last >= 0 && p.applied > p.last {
		p.fullyLoaded = true
		res.FullyLoaded = true
	}
	if len(n.Children) > 0 {
		n.HasChildren = true
	}

	logger.Debug("children applied", "uri", uri, "offset", offset, "appended", res.Appended,
		"skipped", skipped, "fully_loaded", p.fullyLoaded)
	return res, nil
}

// FailChildren releases the reservation for offset and records err so the
// page can be retried. Other nodes are unaffected.
func (s *Store) FailChildren(uri string, offset int, err error) {
	n, ok := s.index[uri]
	if !ok || n.pagination == nil {
		return
	}
	delete(n.pagination.inFlight, offset)
	n.pagination.failed[offset] = err
	logger.Debug("children page failed", "uri", uri, "offset", offset, "error", err)
}

// FailedOffsets lists uri's offsets whose last attempt failed.
func (s *Store) FailedOffsets(uri string) []int {
	n, ok := s.index[uri]
	if !ok {
		return nil
	}
	return n.pagination.FailedOffsets()
}

func (s *Store) attach(parent, child *Node) {
	child.Parent = parent
	child.Depth = parent.Depth + 1
	parent.Children = append(parent.Children, child)
	if _, exists := s.index[child.URI]; !exists {
		s.index[child.URI] = child
	}
}
