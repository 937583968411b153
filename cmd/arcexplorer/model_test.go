package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/internal/testutil"
	"github.com/joshuapare/arctree/pkg/types"
)

var errBoom = types.NewError(types.ErrKindNetwork, "boom", nil)

func TestStartupLoadsCollection(t *testing.T) {
	f := newCollection()
	h := NewTestHelper(t, f)

	require.Equal(t, []string{rootURI, s1, s2}, h.RowURIs())
	require.Equal(t, rootURI, h.CurrentURI())
	// The root's "more" row was on screen, so its next page was fetched
	// and turned out to be the last.
	require.Equal(t, 1, f.Count("children", testutil.PageKey(rootURI, 1)))

	out := h.model.View()
	require.Contains(t, out, "Collection A")
	require.Contains(t, out, "Series 1")
	require.Contains(t, out, "[collection]")
}

func TestExpandLoadsAndPrefetchesChildren(t *testing.T) {
	f := newCollection()
	h := NewTestHelper(t, f)

	h.SendKey(tea.KeyDown)
	require.Equal(t, s1, h.CurrentURI())
	require.Equal(t, s1, h.Snapshot().Focus)

	h.SendKey(tea.KeyEnter)
	require.Equal(t,
		[]string{rootURI, s1, s1 + "/c0", s1 + "/c1", s1 + "/c2", s1 + "/c3", s2},
		h.RowURIs())
	require.Equal(t, 1, f.Count("children", testutil.PageKey(s1, 0)))
	require.Equal(t, 1, f.Count("children", testutil.PageKey(s1, 1)))

	// Expanding again must not refetch.
	h.SendKeyRune('h')
	require.Equal(t, []string{rootURI, s1, s2}, h.RowURIs())
	h.SendKeyRune('l')
	require.Len(t, h.RowURIs(), 7)
	require.Equal(t, 1, f.Count("children", testutil.PageKey(s1, 0)))
}

func TestLeftMovesToParent(t *testing.T) {
	h := NewTestHelper(t, newCollection())
	h.SendKey(tea.KeyDown).SendKey(tea.KeyEnter)
	h.SendKey(tea.KeyDown).SendKey(tea.KeyDown)
	require.Equal(t, s1+"/c1", h.CurrentURI())

	h.SendKey(tea.KeyLeft)
	require.Equal(t, s1, h.CurrentURI())
	require.Equal(t, []string{rootURI, s1}, breadcrumb(h.Snapshot()))
}

func TestChildFailureShowsRetry(t *testing.T) {
	f := newCollection()
	f.FailOnce("children", testutil.PageKey(s1, 0), errBoom)
	h := NewTestHelper(t, f)

	h.SendKey(tea.KeyDown).SendKey(tea.KeyEnter)
	require.Equal(t, []string{rootURI, s1, s2}, h.RowURIs())
	row, ok := h.model.currentRow()
	require.True(t, ok)
	require.True(t, row.Failed)
	require.Contains(t, h.model.View(), "failed (r to retry)")

	h.SendKeyRune('r')
	require.Len(t, h.RowURIs(), 7)
	require.Equal(t, 2, f.Count("children", testutil.PageKey(s1, 0)))
}

func TestRootFailureShowsErrorAndRetries(t *testing.T) {
	f := newCollection()
	f.FailOnce("root", resID, errBoom)
	h := NewTestHelper(t, f)

	require.Error(t, h.Snapshot().Err)
	require.Contains(t, h.model.View(), "Press r to retry")

	h.SendKeyRune('r')
	require.NoError(t, h.Snapshot().Err)
	require.Equal(t, []string{rootURI, s1, s2}, h.RowURIs())
}

func TestToggleSelectionAndCopy(t *testing.T) {
	h := NewTestHelper(t, newCollection())
	h.SendKey(tea.KeyDown)

	h.SendKeyRune(' ')
	require.Equal(t, []string{s1}, h.Snapshot().Selected)
	require.Equal(t, "Selected Series 1", h.model.statusMessage)

	h.SendKeyRune('c')
	require.Equal(t, []string{s1}, h.copied)
	require.Equal(t, "Copied "+s1, h.model.statusMessage)

	h.SendKeyRune(' ')
	require.Empty(t, h.Snapshot().Selected)
}

func TestNextSelectedFocusesRecord(t *testing.T) {
	h := NewTestHelper(t, newCollection())
	h.SendKey(tea.KeyDown).SendKeyRune(' ')
	h.SendKey(tea.KeyDown).SendKeyRune(' ')
	require.Equal(t, []string{s1, s2}, h.Snapshot().Selected)

	h.SendKeyRune('s')
	require.Equal(t, s1, h.Snapshot().Focus)
	require.Equal(t, s1, h.CurrentURI())
}

func TestSearchAndRevealHit(t *testing.T) {
	f := newCollection()
	target := s1 + "/c3"
	var got catalog.SearchRequest
	f.SetSearch(func(req catalog.SearchRequest) (*catalog.SearchResponse, error) {
		got = req
		return &catalog.SearchResponse{
			Hits:  []catalog.Hit{{URI: target, Title: "Item 3", Level: "file"}},
			Total: 1,
			Page:  1,
		}, nil
	})
	f.SetPath(target,
		catalog.Step{NodeURI: rootURI, WaypointOffset: testutil.Offset(0)},
		catalog.Step{NodeURI: s1, WaypointOffset: testutil.Offset(1)},
		catalog.Step{NodeURI: target},
	)
	h := NewTestHelper(t, f)

	h.SendKeyRune('/')
	require.Equal(t, SearchMode, h.model.inputMode)
	h.Paste("item")
	h.SendKey(tea.KeyEnter)
	require.Equal(t, NormalMode, h.model.inputMode)

	snap := h.Snapshot()
	require.Equal(t, engine.ModeSearch, snap.Mode)
	require.Equal(t, "item", got.Query)
	require.Equal(t, catalog.ScopeCollection, got.Scope)
	require.Len(t, snap.Search.Results, 1)
	require.Contains(t, h.model.View(), "Item 3")

	h.SendKey(tea.KeyEnter)
	snap = h.Snapshot()
	require.Equal(t, engine.ModeTree, snap.Mode)
	require.Equal(t, target, snap.Focus)
	require.Equal(t, target, h.CurrentURI())
	require.Equal(t, []string{rootURI, s1, target}, breadcrumb(snap))
}

func TestStatusFilterSearchesEverything(t *testing.T) {
	f := newCollection()
	h := NewTestHelper(t, f)

	h.SendKeyRune('f')
	snap := h.Snapshot()
	require.Equal(t, []types.StatusClass{types.StatusSuccess}, snap.Search.Facets.Statuses)
	require.Equal(t, []string{types.WildcardQuery}, f.SortedKeys("search"))
	require.Equal(t, engine.ModeSearch, snap.Mode)

	h.SendKey(tea.KeyEsc)
	snap = h.Snapshot()
	require.Equal(t, engine.ModeTree, snap.Mode)
	require.True(t, snap.Search.Facets.IsEmpty())
}

func TestSearchFieldCycles(t *testing.T) {
	h := NewTestHelper(t, newCollection())
	h.SendKeyRune('/')
	h.SendKey(tea.KeyTab)
	require.Equal(t, "Field: title", h.model.statusMessage)
	require.Contains(t, h.model.View(), "[title]")
}

func TestHelpOverlay(t *testing.T) {
	h := NewTestHelper(t, newCollection())
	require.False(t, h.model.showHelp)

	h.SendKeyRune('?')
	require.True(t, h.model.showHelp)
	require.Contains(t, h.model.View(), "Keyboard Shortcuts")

	// Other keys are swallowed while the overlay is up.
	h.SendKey(tea.KeyDown)
	require.Equal(t, rootURI, h.CurrentURI())

	h.SendKey(tea.KeyEsc)
	require.False(t, h.model.showHelp)
}

func TestQuit(t *testing.T) {
	h := NewTestHelper(t, newCollection())
	h.SendKeyRune('q')
	require.True(t, h.quit)
}

func TestOpenRevealsRouterPath(t *testing.T) {
	f := newCollection()
	target := s1 + "/c3"
	f.SetPath(target,
		catalog.Step{NodeURI: rootURI, WaypointOffset: testutil.Offset(0)},
		catalog.Step{NodeURI: s1, WaypointOffset: testutil.Offset(1)},
		catalog.Step{NodeURI: target},
	)
	eng := engine.New(engine.Options{Catalog: f, Router: engine.NewMemoryRouter(target), WaypointSize: 3})
	t.Cleanup(eng.Close)

	h := &TestHelper{t: t, model: NewModel(eng, resID, repoID)}
	h.model.tick = func(_ time.Duration, _ func(time.Time) tea.Msg) tea.Cmd { return nil }
	h.Send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(h.model.Init())

	require.Equal(t, target, h.Snapshot().Focus)
	require.Equal(t, target, h.CurrentURI())
}

func breadcrumb(snap engine.Snapshot) []string {
	out := make([]string, 0, len(snap.Breadcrumb))
	for _, n := range snap.Breadcrumb {
		out = append(out, n.URI)
	}
	return out
}
