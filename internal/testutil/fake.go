// Package testutil provides an in-memory catalog and an HTTP server that
// speaks the catalog wire protocol, for tests across arctree.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/pkg/types"
)

// Call records one request made against a FakeCatalog.
type Call struct {
	Op  string // root, children, search, resolve
	Key string
}

// FakeCatalog is a scripted catalog.Catalog.
//
// Children pages are keyed by parent URI and waypoint offset. A page that was
// never registered is served as empty, which the tree treats as terminal.
type FakeCatalog struct {
	mu sync.Mutex

	roots  map[string]*catalog.RootResponse
	pages  map[string][]catalog.RawNode
	paths  map[string][]catalog.Step
	errs   map[string]error
	once   map[string]error
	search func(catalog.SearchRequest) (*catalog.SearchResponse, error)
	calls  []Call
}

// NewFake returns an empty fake catalog.
func NewFake() *FakeCatalog {
	return &FakeCatalog{
		roots: make(map[string]*catalog.RootResponse),
		pages: make(map[string][]catalog.RawNode),
		paths: make(map[string][]catalog.Step),
		errs:  make(map[string]error),
		once:  make(map[string]error),
	}
}

// PageKey is the call key used for a children page.
func PageKey(parent string, offset int) string {
	return fmt.Sprintf("%s@%d", parent, offset)
}

// Record builds a leaf record.
func Record(uri, title string) catalog.RawNode {
	return catalog.RawNode{URI: uri, Title: title, Level: "file"}
}

// Branch builds a record with children.
func Branch(uri, title string, childCount int) catalog.RawNode {
	return catalog.RawNode{URI: uri, Title: title, Level: "series", HasChildren: true, ChildCount: childCount}
}

// Records builds n leaf records under parent, numbered from start.
func Records(parent string, start, n int) []catalog.RawNode {
	out := make([]catalog.RawNode, 0, n)
	for i := start; i < start+n; i++ {
		out = append(out, Record(fmt.Sprintf("%s/c%d", parent, i), fmt.Sprintf("Item %d", i)))
	}
	return out
}

// SetRoot registers the root response for resourceID.
func (f *FakeCatalog) SetRoot(resourceID string, root catalog.RawNode, waypointSize int, children ...catalog.RawNode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots[resourceID] = &catalog.RootResponse{Root: root, Children: children, WaypointSize: waypointSize}
}

// SetPage registers one children page.
func (f *FakeCatalog) SetPage(parent string, offset int, children ...catalog.RawNode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[PageKey(parent, offset)] = children
}

// SetPath registers the resolved ancestor steps for uri.
func (f *FakeCatalog) SetPath(uri string, steps ...catalog.Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[uri] = steps
}

// SetSearch installs the search handler.
func (f *FakeCatalog) SetSearch(fn func(catalog.SearchRequest) (*catalog.SearchResponse, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = fn
}

// Fail makes every call with op and key fail with err. An empty key matches
// every call of op.
func (f *FakeCatalog) Fail(op, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op+" "+key] = err
}

// FailOnce makes the next call with op and key fail with err.
func (f *FakeCatalog) FailOnce(op, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.once[op+" "+key] = err
}

// Heal removes all injected failures.
func (f *FakeCatalog) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = make(map[string]error)
	f.once = make(map[string]error)
}

// Calls returns a copy of the call log.
func (f *FakeCatalog) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many calls matched op and key. An empty key counts every
// call of op.
func (f *FakeCatalog) Count(op, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op && (key == "" || c.Key == key) {
			n++
		}
	}
	return n
}

// record logs the call and returns an injected failure, if any. f.mu must be held.
func (f *FakeCatalog) record(op, key string) error {
	f.calls = append(f.calls, Call{Op: op, Key: key})
	if err, ok := f.once[op+" "+key]; ok {
		delete(f.once, op+" "+key)
		return err
	}
	if err, ok := f.errs[op+" "+key]; ok {
		return err
	}
	return f.errs[op+" "]
}

// Root implements catalog.Catalog.
func (f *FakeCatalog) Root(ctx context.Context, resourceID, _ string) (*catalog.RootResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("root", resourceID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, types.NewError(types.ErrKindNetwork, "root", err)
	}
	r, ok := f.roots[resourceID]
	if !ok {
		return nil, types.NewError(types.ErrKindNotFound, "root: no resource "+resourceID, nil)
	}
	cp := *r
	cp.Children = append([]catalog.RawNode(nil), r.Children...)
	return &cp, nil
}

// Children implements catalog.Catalog.
func (f *FakeCatalog) Children(ctx context.Context, _, _, parentURI string, offset int) (*catalog.ChildrenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := PageKey(parentURI, offset)
	if err := f.record("children", key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, types.NewError(types.ErrKindNetwork, "children", err)
	}
	return &catalog.ChildrenResponse{
		ParentURI: parentURI,
		Offset:    offset,
		Children:  append([]catalog.RawNode(nil), f.pages[key]...),
	}, nil
}

// Search implements catalog.Catalog.
func (f *FakeCatalog) Search(ctx context.Context, req catalog.SearchRequest) (*catalog.SearchResponse, error) {
	f.mu.Lock()
	fn := f.search
	err := f.record("search", req.Query)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, types.NewError(types.ErrKindNetwork, "search", err)
	}
	if fn == nil {
		return &catalog.SearchResponse{Page: req.Page, PageSize: req.PageSize}, nil
	}
	return fn(req)
}

// ResolvePath implements catalog.Catalog.
func (f *FakeCatalog) ResolvePath(ctx context.Context, _, _ string, nodeURIs []string) (*catalog.PathResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("resolve", strings.Join(nodeURIs, ",")); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, types.NewError(types.ErrKindNetwork, "resolve", err)
	}
	out := &catalog.PathResponse{Paths: make(map[string][]catalog.Step)}
	for _, uri := range nodeURIs {
		if steps, ok := f.paths[uri]; ok {
			out.Paths[uri] = append([]catalog.Step(nil), steps...)
		}
	}
	return out, nil
}

// Offset returns a pointer to o, for building Steps.
func Offset(o int) *int { return &o }

// Hits builds a search response holding page `page` of total hits, where
// hit i has URI prefix/h{i}.
func Hits(prefix string, total, page, pageSize int) *catalog.SearchResponse {
	resp := &catalog.SearchResponse{Total: total, Page: page, PageSize: pageSize}
	start := (page - 1) * pageSize
	for i := start; i < total && i < start+pageSize; i++ {
		resp.Hits = append(resp.Hits, catalog.Hit{
			URI:   fmt.Sprintf("%s/h%d", prefix, i),
			Title: fmt.Sprintf("Hit %d", i),
		})
	}
	return resp
}

// SortedKeys returns the call keys recorded for op, sorted.
func (f *FakeCatalog) SortedKeys(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for _, c := range f.calls {
		if c.Op == op {
			keys = append(keys, c.Key)
		}
	}
	sort.Strings(keys)
	return keys
}
