package engine

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/search"
)

// The Cmd builders below capture everything they need by value: the update
// loop may have moved on to another generation by the time they run.

func (e *Engine) fetchRoot() tea.Cmd {
	token := e.pending.token
	if e.cat == nil {
		return func() tea.Msg { return rootLoadedMsg{token: token, err: types.ErrNoCollection} }
	}
	ctx, cat := e.pending.ctx, e.cat
	res, repo := e.pending.resourceID, e.pending.repositoryID
	return func() tea.Msg {
		resp, err := cat.Root(ctx, res, repo)
		return rootLoadedMsg{token: token, resp: resp, err: err}
	}
}

// loadChildren reserves offset and returns the request, or nil when the
// store says no request is needed.
func (e *Engine) loadChildren(uri string, offset int) tea.Cmd {
	if !e.store.Reserve(uri, offset) {
		return nil
	}
	return e.fetchChildren(uri, offset)
}

// fetchChildren issues a request for an offset that is already reserved.
func (e *Engine) fetchChildren(uri string, offset int) tea.Cmd {
	ctx, cat, gen := e.ctx, e.cat, e.generation
	res, repo := e.resourceID, e.repositoryID
	return func() tea.Msg {
		resp, err := cat.Children(ctx, res, repo, uri, offset)
		return childrenLoadedMsg{gen: gen, uri: uri, offset: offset, resp: resp, err: err}
	}
}

func (e *Engine) runSearch(req search.Request) tea.Cmd {
	e.mode = ModeSearch
	ctx, cat, gen := e.ctx, e.cat, e.generation
	return func() tea.Msg {
		resp, err := cat.Search(ctx, req.Search)
		return searchResultMsg{gen: gen, token: req.Token, resp: resp, err: err}
	}
}

func (e *Engine) resolvePath(token uint64, uri string) tea.Cmd {
	ctx, cat, gen := e.ctx, e.cat, e.generation
	res, repo := e.resourceID, e.repositoryID
	return func() tea.Msg {
		resp, err := cat.ResolvePath(ctx, res, repo, []string{uri})
		return pathResolvedMsg{gen: gen, token: token, resp: resp, err: err}
	}
}

func (e *Engine) debounce(id uint64) tea.Cmd {
	return e.tick(e.search.Debounce(), func(time.Time) tea.Msg {
		return searchDebounceMsg{id: id}
	})
}
