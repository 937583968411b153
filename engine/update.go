package engine

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/internal/metrics"
	"github.com/joshuapare/arctree/pathresolve"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/search"
	"github.com/joshuapare/arctree/tree"
)

// Update applies a completed I/O message. Messages the engine does not own
// are ignored and return nil.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case rootLoadedMsg:
		return e.handleRoot(msg)
	case childrenLoadedMsg:
		return e.handleChildren(msg)
	case searchDebounceMsg:
		return e.handleDebounce(msg)
	case searchResultMsg:
		return e.handleSearchResult(msg)
	case pathResolvedMsg:
		return e.handlePathResolved(msg)
	}
	return nil
}

func (e *Engine) stale(gen uint64, kind string) bool {
	if gen == e.generation {
		return false
	}
	metrics.StaleDropped(kind)
	logger.Debug("response for previous collection dropped", "kind", kind, "generation", gen, "current", e.generation)
	return true
}

func (e *Engine) handleRoot(msg rootLoadedMsg) tea.Cmd {
	if msg.token != e.pending.token || e.pending.ctx == nil {
		metrics.StaleDropped("root")
		logger.Debug("superseded root response dropped", "token", msg.token, "current", e.pending.token)
		return nil
	}
	e.rootLoading = false
	if msg.err != nil {
		e.rootErr = msg.err
		logger.Warn("collection root failed", "resource", e.pending.resourceID, "error", msg.err)
		e.pending.abandon()
		return nil
	}

	store := tree.NewStore(e.generation+1, e.opts.WaypointSize)
	if err := store.ApplyRoot(msg.resp); err != nil {
		e.rootErr = err
		e.pending.abandon()
		return nil
	}
	e.commitCollection(store)

	if e.pendingFocus != "" {
		return e.RevealHit(e.pendingFocus)
	}
	return nil
}

func (e *Engine) handleChildren(msg childrenLoadedMsg) tea.Cmd {
	if e.stale(msg.gen, "children") {
		return nil
	}
	switch {
	case msg.err != nil:
		e.store.FailChildren(msg.uri, msg.offset, msg.err)
	case msg.resp == nil:
		e.store.FailChildren(msg.uri, msg.offset, types.NewError(types.ErrKindMalformed, "children: empty response", nil))
	default:
		if _, err := e.store.ApplyChildren(msg.uri, msg.offset, msg.resp.Children); err != nil {
			logger.Warn("children page not applied", "uri", msg.uri, "offset", msg.offset, "error", err)
		}
	}
	return e.progress(e.resolver.Resume(e.store, e.expansion))
}

func (e *Engine) handleDebounce(msg searchDebounceMsg) tea.Cmd {
	if !e.search.Fired(msg.id) {
		return nil
	}
	if req, ok := e.search.Begin(); ok {
		return e.runSearch(req)
	}
	if e.search.IsClear() {
		e.mode = ModeTree
		return nil
	}
	// Local strategy.
	e.search.RunLocal(e.store)
	e.mode = ModeSearch
	return nil
}

func (e *Engine) handleSearchResult(msg searchResultMsg) tea.Cmd {
	if e.stale(msg.gen, "search") {
		return nil
	}
	if msg.err != nil {
		e.search.Fail(msg.token, msg.err)
		return nil
	}
	e.search.Apply(msg.token, msg.resp)
	return nil
}

func (e *Engine) handlePathResolved(msg pathResolvedMsg) tea.Cmd {
	if e.stale(msg.gen, "path") {
		return nil
	}
	if msg.err != nil {
		p, ok := e.resolver.Fail(msg.token, msg.err)
		if !ok {
			return nil
		}
		return e.progress(p)
	}
	p, ok := e.resolver.ApplySteps(msg.token, msg.resp, e.store, e.expansion)
	if !ok {
		return nil
	}
	return e.progress(p)
}

// progress turns resolver progress into requests, focus or a notice.
func (e *Engine) progress(p pathresolve.Progress) tea.Cmd {
	if p.Err != nil {
		e.notice = p.Err
		if e.pendingFocus == p.Target {
			e.pendingFocus = ""
		}
		logger.Warn("path hydration failed", "target", p.Target, "error", p.Err)
		err := p.Err
		return func() tea.Msg { return ErrMsg{Err: err} }
	}
	var cmds []tea.Cmd
	for _, l := range p.Loads {
		cmds = append(cmds, e.fetchChildren(l.URI, l.Offset))
	}
	if p.Done && p.Target != "" && e.pendingFocus == p.Target {
		cmds = append(cmds, e.focusNode(p.Target))
	}
	return tea.Batch(cmds...)
}

// Search returns the current search state.
func (e *Engine) Search() search.State { return e.search.State() }
