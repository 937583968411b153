package tree

import "sort"

// LoadState summarizes how much of a node's child list is materialized.
// It only moves forward: Unknown -> Partial -> Full.
type LoadState int

const (
	LoadUnknown LoadState = iota // no page received yet
	LoadPartial                  // at least one page received, more may exist
	LoadFull                     // the terminal page has been applied
)

func (s LoadState) String() string {
	switch s {
	case LoadPartial:
		return "partial"
	case LoadFull:
		return "full"
	default:
		return "unknown"
	}
}

// Node is one materialized archival record. Identity is the URI.
// Nodes are owned by a Store; callers treat them as read-only.
type Node struct {
	URI         string
	Title       string
	Identifier  string
	Level       string
	Status      Status
	Extent      string
	Location    string
	HasChildren bool
	ChildCount  int // server-reported child count, 0 when unknown

	Children []*Node // ordered, possibly partial
	Parent   *Node
	Depth    int

	pagination *Pagination // created on first need
}

// Pagination returns the node's paging state, or nil if no page was ever requested.
func (n *Node) Pagination() *Pagination { return n.pagination }

// LoadState derives the node's load state from its pagination.
func (n *Node) LoadState() LoadState {
	p := n.pagination
	switch {
	case p == nil || len(p.loaded) == 0:
		return LoadUnknown
	case p.fullyLoaded:
		return LoadFull
	default:
		return LoadPartial
	}
}

// HasMore reports whether more children pages may exist.
func (n *Node) HasMore() bool {
	if !n.HasChildren {
		return false
	}
	return n.pagination == nil || !n.pagination.fullyLoaded
}

// Pagination tracks which waypoint pages of a node's children are known.
// Only the owning Store mutates it.
type Pagination struct {
	loaded   map[int]bool    // pages received (appended or buffered)
	inFlight map[int]bool    // reserved, request outstanding
	pending  map[int][]*Node // received ahead of a missing earlier page
	failed   map[int]error   // last failure per offset, cleared on success or retry

	applied     int // offsets below this are appended to Children
	next        int // next offset to request
	last        int // offset of the terminal page, -1 while unknown
	fullyLoaded bool
}

func newPagination() *Pagination {
	return &Pagination{
		loaded:   make(map[int]bool),
		inFlight: make(map[int]bool),
		pending:  make(map[int][]*Node),
		failed:   make(map[int]error),
		last:     -1,
	}
}

// IsLoaded reports whether the page at offset has been received.
func (p *Pagination) IsLoaded(offset int) bool { return p != nil && p.loaded[offset] }

// InFlight reports whether a request for offset is outstanding.
func (p *Pagination) InFlight(offset int) bool { return p != nil && p.inFlight[offset] }

// Failed returns the last error for offset, or nil.
func (p *Pagination) Failed(offset int) error {
	if p == nil {
		return nil
	}
	return p.failed[offset]
}

// Next is the next offset to request.
func (p *Pagination) Next() int {
	if p == nil {
		return 0
	}
	return p.next
}

// FullyLoaded reports whether every child page has been applied.
func (p *Pagination) FullyLoaded() bool { return p != nil && p.fullyLoaded }

// Applied reports whether the page at offset has been appended to Children.
func (p *Pagination) Applied(offset int) bool { return p != nil && offset < p.applied }

// Loading reports whether any request is outstanding.
func (p *Pagination) Loading() bool { return p != nil && len(p.inFlight) > 0 }

// LoadedOffsets returns the received offsets in ascending order.
func (p *Pagination) LoadedOffsets() []int {
	if p == nil {
		return nil
	}
	return sortedKeys(p.loaded)
}

// InFlightOffsets returns the reserved offsets in ascending order.
func (p *Pagination) InFlightOffsets() []int {
	if p == nil {
		return nil
	}
	return sortedKeys(p.inFlight)
}

// FailedOffsets returns offsets whose last attempt failed, ascending.
func (p *Pagination) FailedOffsets() []int {
	if p == nil {
		return nil
	}
	out := make([]int, 0, len(p.failed))
	for k := range p.failed {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}
