package search

import (
	"strings"
	"time"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/filter"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/internal/metrics"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/tree"
)

// Request is a remote search the engine must run. Token must be handed back
// with the response.
type Request struct {
	Token  uint64
	Search catalog.SearchRequest
}

// Options configures an Orchestrator.
type Options struct {
	PageSize int
	Debounce time.Duration
}

// Orchestrator owns SearchState.
type Orchestrator struct {
	state      State
	scope      Scope
	debounce   time.Duration
	debounceID uint64
	token      uint64 // latest issued
	land       int    // ordinal to highlight when the pending page arrives
}

// New creates an orchestrator with nothing searched.
func New(opts Options) *Orchestrator {
	d := opts.Debounce
	if d < types.MinDebounce || d > types.MaxDebounce {
		d = types.DefaultDebounce
	}
	return &Orchestrator{
		state: State{
			PageSize: types.ClampPageSize(opts.PageSize, types.DefaultSearchPageSize, types.MaxSearchPageSize),
			Active:   -1,
		},
		debounce: d,
	}
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	s := o.state
	s.Results = append([]Match(nil), o.state.Results...)
	return s
}

// Debounce is the quiet period before a changed input is searched.
func (o *Orchestrator) Debounce() time.Duration { return o.debounce }

// SetScope records where the browser is. Results and in-flight requests
// belong to the previous scope and are discarded.
func (o *Orchestrator) SetScope(s Scope) {
	o.scope = s
	o.Clear()
}

// Scope returns the current scope.
func (o *Orchestrator) Scope() Scope { return o.scope }

// Strategy picks how the current query is evaluated. A bound resource
// always means a collection search; Global only applies without one.
func (o *Orchestrator) Strategy() Strategy {
	switch {
	case o.scope.LocalOnly:
		return StrategyLocal
	case o.scope.ResourceID != "":
		return StrategyCollection
	case o.scope.Global:
		return StrategyGlobal
	default:
		return StrategyLocal
	}
}

// SetQuery records new input text and returns the debounce id to schedule.
func (o *Orchestrator) SetQuery(q string) uint64 {
	o.state.Query = q
	return o.bump()
}

// SetField changes the field restriction and returns the debounce id.
func (o *Orchestrator) SetField(f Field) uint64 {
	o.state.Field = f
	return o.bump()
}

// SetFacets changes the facets and returns the debounce id.
func (o *Orchestrator) SetFacets(f filter.Facets) uint64 {
	o.state.Facets = f
	return o.bump()
}

func (o *Orchestrator) bump() uint64 {
	o.debounceID++
	return o.debounceID
}

// Fired reports whether a debounce timer with id is still the latest.
func (o *Orchestrator) Fired(id uint64) bool { return id == o.debounceID }

// IsClear reports whether there is nothing to search for.
func (o *Orchestrator) IsClear() bool {
	return strings.TrimSpace(o.state.Query) == "" && o.state.Facets.IsEmpty()
}

// Clear empties results and invalidates in-flight requests. Query and
// facets are left as they are.
func (o *Orchestrator) Clear() {
	o.token++
	o.reset()
}

func (o *Orchestrator) reset() {
	o.state.Results = nil
	o.state.Total = 0
	o.state.Page = 0
	o.state.Active = -1
	o.state.Loading = false
	o.state.Err = nil
}

// EffectiveQuery is the text sent to the catalog: the trimmed query, or the
// wildcard when the query is blank but facets are set.
func (o *Orchestrator) EffectiveQuery() string {
	q := strings.TrimSpace(o.state.Query)
	if q == "" && !o.state.Facets.IsEmpty() {
		return types.WildcardQuery
	}
	return q
}

// Begin starts a search for page 1 of the current input. It returns false
// when the input is clear (state is cleared) or the strategy is local (the
// caller runs RunLocal instead).
func (o *Orchestrator) Begin() (Request, bool) {
	if o.IsClear() {
		o.Clear()
		return Request{}, false
	}
	o.state.Strategy = o.Strategy()
	if o.state.Strategy == StrategyLocal {
		return Request{}, false
	}
	return o.request(1, 0), true
}

func (o *Orchestrator) request(page, land int) Request {
	o.token++
	o.land = land
	o.state.Loading = true
	o.state.Err = nil

	req := catalog.SearchRequest{
		Query:        o.EffectiveQuery(),
		Field:        string(o.state.Field),
		Page:         page,
		PageSize:     o.state.PageSize,
		Options:      filter.Compose(o.state.Facets),
		RepositoryID: o.scope.RepositoryID,
	}
	if o.state.Strategy == StrategyGlobal {
		req.Scope = catalog.ScopeGlobal
	} else {
		req.Scope = catalog.ScopeCollection
		req.ResourceID = o.scope.ResourceID
	}
	logger.Debug("search issued", "token", o.token, "strategy", o.state.Strategy.String(),
		"query", req.Query, "page", page)
	return Request{Token: o.token, Search: req}
}

// Apply installs a response. Responses for any token but the latest are
// dropped and Apply reports false.
func (o *Orchestrator) Apply(token uint64, resp *catalog.SearchResponse) bool {
	if token != o.token || resp == nil {
		metrics.StaleDropped("search")
		logger.Debug("stale search response dropped", "token", token, "latest", o.token)
		return false
	}
	results := make([]Match, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		results = append(results, matchFromHit(h))
	}
	o.state.Results = results
	o.state.Total = resp.Total
	if o.state.Total < len(results) {
		o.state.Total = len(results)
	}
	o.state.Page = resp.Page
	if o.state.Page < 1 {
		o.state.Page = 1
	}
	o.state.Loading = false
	o.state.Err = nil
	o.state.Active = o.landOnPage()
	return true
}

// landOnPage clamps the pending landing ordinal onto the current page.
func (o *Orchestrator) landOnPage() int {
	n := len(o.state.Results)
	if n == 0 {
		return -1
	}
	start := o.state.PageStart()
	switch {
	case o.land < start:
		return start
	case o.land >= start+n:
		return start + n - 1
	default:
		return o.land
	}
}

// Fail records a failed request. The previous page stays visible.
func (o *Orchestrator) Fail(token uint64, err error) bool {
	if token != o.token {
		metrics.StaleDropped("search")
		return false
	}
	o.state.Loading = false
	o.state.Err = err
	logger.Debug("search failed", "token", token, "error", err)
	return true
}

// Next moves the highlight forward. When the next match is on another page
// it returns the request for that page; the highlight lands on its first
// entry once applied. At the last match Next does nothing.
func (o *Orchestrator) Next() (Request, bool) {
	return o.step(+1)
}

// Prev moves the highlight back, fetching the previous page when needed and
// landing on its last entry. At the first match Prev does nothing.
func (o *Orchestrator) Prev() (Request, bool) {
	return o.step(-1)
}

func (o *Orchestrator) step(delta int) (Request, bool) {
	s := &o.state
	if s.Total == 0 || s.Loading {
		return Request{}, false
	}
	target := s.Active + delta
	if s.Active < 0 {
		target = s.PageStart()
	}
	if target < 0 || target >= s.Total {
		return Request{}, false
	}
	start := s.PageStart()
	if target >= start && target < start+len(s.Results) {
		s.Active = target
		return Request{}, false
	}
	if s.Strategy == StrategyLocal || s.PageSize <= 0 {
		return Request{}, false
	}
	page := target/s.PageSize + 1
	return o.request(page, target), true
}

// SyncActive highlights the match for uri if it is on the current page.
func (o *Orchestrator) SyncActive(uri string) bool {
	for i, m := range o.state.Results {
		if m.URI == uri {
			o.state.Active = o.state.PageStart() + i
			return true
		}
	}
	return false
}

// RunLocal evaluates the current input against the materialized tree. It
// supersedes any in-flight remote request.
func (o *Orchestrator) RunLocal(store *tree.Store) {
	o.token++
	o.state.Strategy = StrategyLocal
	if o.IsClear() || store == nil || store.Root() == nil {
		o.reset()
		return
	}
	results := Local(store, o.EffectiveQuery(), o.state.Field, o.state.Facets)
	o.state.Results = results
	o.state.Total = len(results)
	o.state.Page = 1
	o.state.Loading = false
	o.state.Err = nil
	o.state.Active = -1
	if len(results) > 0 {
		o.state.Active = 0
	}
}

// Token is the latest issued request token.
func (o *Orchestrator) Token() uint64 { return o.token }
