// Package engine owns all browse state for one finding-aid view and is the
// only place it is mutated.
//
// Operations return a tea.Cmd describing the catalog I/O they need; the
// Cmd's result comes back as a message that must be passed to Update. All
// operations and Update run on one logical timeline (the bubbletea update
// loop), so the engine takes no locks. Races between overlapping requests
// are resolved by tree reservations, search tokens and resolver tokens.
package engine

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/filter"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/pathresolve"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/search"
	"github.com/joshuapare/arctree/tree"
	"github.com/joshuapare/arctree/view"
)

// DisplayMode selects whether the shell shows the tree or the flat result list.
type DisplayMode int

const (
	ModeTree DisplayMode = iota
	ModeSearch
)

func (m DisplayMode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "tree"
}

// defaultNearWindow is how close to the end of a loaded page a row must be
// for LoadMoreChildrenNear to fetch the next page.
const defaultNearWindow = 10

// Options configures an Engine.
type Options struct {
	Catalog catalog.Catalog
	Router  Router

	PageSize     int           // search results per page
	WaypointSize int           // expected children per page; the root response may override
	Debounce     time.Duration // search input debounce
	NearWindow   int           // rows from the end of loaded children that trigger a prefetch

	// Global unbinds searches from the browsed collection, making them
	// catalog-wide (narrowed by the repository when one is set).
	Global bool
	// LocalSearch forces in-memory search over the materialized tree.
	LocalSearch bool
}

// Engine is the tree synchronization and search reconciliation engine.
type Engine struct {
	cat    catalog.Catalog
	router Router
	opts   Options

	resourceID   string
	repositoryID string

	generation  uint64
	ctx         context.Context
	cancel      context.CancelFunc
	store       *tree.Store
	rootLoading bool
	rootErr     error

	// A collection being switched to. Nothing about the shown tree changes
	// until its root lands.
	pending pendingLoad

	expansion *view.ExpansionSet
	selection *view.Selection
	search    *search.Orchestrator
	resolver  *pathresolve.Resolver

	focus        string // record under the cursor
	pendingFocus string // record to focus once hydration finishes
	mode         DisplayMode
	notice       error // last non-fatal failure

	// tick schedules a delayed message; replaced in tests.
	tick func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
}

// New creates an engine with no collection loaded.
func New(opts Options) *Engine {
	if opts.Router == nil {
		opts.Router = NopRouter{}
	}
	if opts.NearWindow <= 0 {
		opts.NearWindow = defaultNearWindow
	}
	e := &Engine{
		cat:       opts.Catalog,
		router:    opts.Router,
		opts:      opts,
		store:     tree.NewStore(0, opts.WaypointSize),
		expansion: view.NewExpansionSet(),
		selection: view.NewSelection(),
		search:    search.New(search.Options{PageSize: opts.PageSize, Debounce: opts.Debounce}),
		resolver:  pathresolve.New(),
		tick:      tea.Tick,
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// pendingLoad is an outstanding root request.
type pendingLoad struct {
	token        uint64
	resourceID   string
	repositoryID string
	open         string // record to reveal once the root is in
	ctx          context.Context
	cancel       context.CancelFunc
}

func (p *pendingLoad) abandon() {
	if p.cancel != nil {
		p.cancel()
	}
	token := p.token
	*p = pendingLoad{token: token}
}

// Close cancels all outstanding requests.
func (e *Engine) Close() {
	e.pending.abandon()
	if e.cancel != nil {
		e.cancel()
	}
}

// LoadCollection switches to a collection. The current tree keeps working
// until the new root arrives; only then is it replaced, expansion reset, and
// outstanding requests for the previous collection cancelled (their
// responses are dropped). On failure the previous tree stays in place,
// still fully usable, and the error is reported as a full-view error.
// A newer LoadCollection supersedes an older one still in flight.
func (e *Engine) LoadCollection(resourceID, repositoryID string) tea.Cmd {
	e.pending.abandon()
	ctx, cancel := context.WithCancel(context.Background())
	e.pending = pendingLoad{
		token:        e.pending.token + 1,
		resourceID:   resourceID,
		repositoryID: repositoryID,
		open:         e.routerTarget(resourceID),
		ctx:          ctx,
		cancel:       cancel,
	}
	e.rootLoading = true
	e.rootErr = nil

	logger.Info("loading collection", "resource", resourceID, "repository", repositoryID, "token", e.pending.token)
	return e.fetchRoot()
}

// routerTarget returns the router's path when it can belong to resourceID:
// a resource URI must name it, and any other record is only trusted on the
// first load or a reload of the collection it was focused in.
func (e *Engine) routerTarget(resourceID string) string {
	p := e.router.CurrentPath()
	if p == "" {
		return ""
	}
	if _, res, ok := catalog.ResourceFromURI(p); ok {
		if res == resourceID {
			return p
		}
		return ""
	}
	if e.store.Root() == nil || e.resourceID == resourceID {
		return p
	}
	return ""
}

// commitCollection makes the pending collection current with the tree
// built from its root.
func (e *Engine) commitCollection(store *tree.Store) {
	if e.cancel != nil {
		e.cancel()
	}
	p := e.pending
	e.ctx, e.cancel = p.ctx, p.cancel
	e.pending = pendingLoad{token: p.token}

	e.generation = store.Generation()
	e.resourceID = p.resourceID
	e.repositoryID = p.repositoryID
	e.store = store
	e.notice = nil
	e.resolver.Cancel()
	scope := search.Scope{
		ResourceID:   p.resourceID,
		RepositoryID: p.repositoryID,
		LocalOnly:    e.opts.LocalSearch,
	}
	if e.opts.Global {
		// Searches are not bound to the browsed collection.
		scope.ResourceID, scope.Global = "", true
	}
	e.search.SetScope(scope)
	e.mode = ModeTree
	e.expansion.Clear()
	root := store.Root()
	e.expansion.Add(root.URI)
	e.focus = root.URI
	e.pendingFocus = ""
	if p.open != "" && p.open != root.URI {
		e.pendingFocus = p.open
	}
	logger.Info("collection loaded", "resource", p.resourceID, "generation", e.generation)
}

// Expand adds uri to the expansion set and loads its first children page
// when none has been requested yet.
func (e *Engine) Expand(uri string) tea.Cmd {
	n, ok := e.store.Get(uri)
	if !ok {
		return nil
	}
	e.expansion.Add(uri)
	if n.HasChildren && n.LoadState() == tree.LoadUnknown {
		return e.loadChildren(uri, 0)
	}
	return nil
}

// Collapse removes uri from the expansion set. Descendants keep their own state.
func (e *Engine) Collapse(uri string) {
	e.expansion.Remove(uri)
}

// ExpandBranch expands uri and every materialized descendant that has
// children, loading the first page of any that has none yet. It does not
// prefetch beyond what is already materialized.
func (e *Engine) ExpandBranch(uri string) tea.Cmd {
	n, ok := e.store.Get(uri)
	if !ok {
		return nil
	}
	var cmds []tea.Cmd
	tree.Walk(n, func(d *tree.Node) bool {
		if !d.HasChildren {
			return false
		}
		e.expansion.Add(d.URI)
		if d.LoadState() == tree.LoadUnknown {
			cmds = append(cmds, e.loadChildren(d.URI, 0))
		}
		return true
	})
	return tea.Batch(cmds...)
}

// CollapseBranch collapses uri and every materialized descendant.
func (e *Engine) CollapseBranch(uri string) {
	n, ok := e.store.Get(uri)
	if !ok {
		e.expansion.Remove(uri)
		return
	}
	tree.Walk(n, func(d *tree.Node) bool {
		e.expansion.Remove(d.URI)
		return true
	})
}

// LoadChildren requests one children page of uri. It issues nothing when
// the page is already received, in flight, or past the last page.
func (e *Engine) LoadChildren(uri string, offset int) tea.Cmd {
	return e.loadChildren(uri, offset)
}

// LoadMoreChildrenNear is called with the records in the visible row window.
// For each record it fetches the next children page of its parent when the
// record is within the configured window of the end of the parent's loaded
// children, and the next page of the record itself when it is expanded and
// has more pages (its "more" row is on screen).
func (e *Engine) LoadMoreChildrenNear(visible ...string) tea.Cmd {
	var cmds []tea.Cmd
	for _, uri := range visible {
		n, ok := e.store.Get(uri)
		if !ok {
			continue
		}
		if e.expansion.Has(n.URI) && n.HasMore() && n.LoadState() != tree.LoadUnknown {
			cmds = append(cmds, e.loadChildren(n.URI, n.Pagination().Next()))
		}
		if p := n.Parent; p != nil && p.HasMore() && e.expansion.Has(p.URI) {
			idx := indexOf(p.Children, n)
			if idx >= 0 && len(p.Children)-idx <= e.opts.NearWindow {
				cmds = append(cmds, e.loadChildren(p.URI, p.Pagination().Next()))
			}
		}
	}
	return tea.Batch(cmds...)
}

func indexOf(nodes []*tree.Node, n *tree.Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}

// RetryChildren re-requests every failed children page of uri.
func (e *Engine) RetryChildren(uri string) tea.Cmd {
	var cmds []tea.Cmd
	for _, o := range e.store.FailedOffsets(uri) {
		cmds = append(cmds, e.loadChildren(uri, o))
	}
	return tea.Batch(cmds...)
}

// ToggleRecord adds or removes uri from the selection and reports whether
// it is selected afterwards.
func (e *Engine) ToggleRecord(uri string) bool {
	return e.selection.Toggle(uri)
}

// Focus moves the cursor to uri. A record that is not materialized yet is
// revealed through path hydration first.
func (e *Engine) Focus(uri string) tea.Cmd {
	if _, ok := e.store.Get(uri); !ok {
		return e.RevealHit(uri)
	}
	return e.focusNode(uri)
}

// RevealHit materializes the ancestors of uri, expands them and focuses uri.
// It does nothing but focus when uri is already materialized.
func (e *Engine) RevealHit(uri string) tea.Cmd {
	token, need := e.resolver.Begin(uri, e.store)
	if !need {
		return e.focusNode(uri)
	}
	e.pendingFocus = uri
	return e.resolvePath(token, uri)
}

// NavigateSelection focuses the selected record at index. In search mode the
// active search match follows it by URI when it is on the current results
// page; otherwise, and always in tree mode, the record is focused in the tree.
func (e *Engine) NavigateSelection(index int) tea.Cmd {
	uri, ok := e.selection.FocusIndex(index)
	if !ok {
		return nil
	}
	if e.mode == ModeSearch && e.search.SyncActive(uri) {
		return nil
	}
	return e.Focus(uri)
}

// SetDisplayMode switches between tree and flat result display.
func (e *Engine) SetDisplayMode(m DisplayMode) {
	e.mode = m
}

// SetSearchQuery records new query text and schedules a debounced search.
func (e *Engine) SetSearchQuery(q string) tea.Cmd {
	return e.debounce(e.search.SetQuery(q))
}

// SetSearchField restricts the query to one field.
func (e *Engine) SetSearchField(f search.Field) tea.Cmd {
	return e.debounce(e.search.SetField(f))
}

// SetFilters replaces the facet selection and schedules a debounced search.
func (e *Engine) SetFilters(levels []string, statuses []types.StatusClass, anchor string, advanced []string) tea.Cmd {
	return e.debounce(e.search.SetFacets(filter.Facets{
		Levels:   levels,
		Statuses: statuses,
		Anchor:   anchor,
		Advanced: advanced,
	}))
}

// SearchNext moves to the next match, fetching the next page when needed.
func (e *Engine) SearchNext() tea.Cmd {
	if req, fetch := e.search.Next(); fetch {
		return e.runSearch(req)
	}
	return nil
}

// SearchPrev moves to the previous match, fetching the previous page when needed.
func (e *Engine) SearchPrev() tea.Cmd {
	if req, fetch := e.search.Prev(); fetch {
		return e.runSearch(req)
	}
	return nil
}

// ClearSearch drops the query, facets and results and returns to the tree.
func (e *Engine) ClearSearch() {
	e.search.SetQuery("")
	e.search.SetFacets(filter.Facets{})
	e.search.Clear()
	e.mode = ModeTree
}

func (e *Engine) focusNode(uri string) tea.Cmd {
	e.focus = uri
	e.pendingFocus = ""
	e.router.Navigate(uri)
	e.search.SyncActive(uri)
	return func() tea.Msg { return FocusChangedMsg{URI: uri} }
}
