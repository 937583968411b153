package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/internal/testutil"
	"github.com/joshuapare/arctree/view"
)

const (
	resID   = "7"
	repoID  = "2"
	rootURI = "/r"
	s1      = "/r/s1"
	s2      = "/r/s2"
)

// newCollection registers a collection with waypoint size 3:
//
//	/r "Collection A"
//	├── /r/s1 "Series 1" (4 children: c0..c2 on page 0, c3 on page 1)
//	└── /r/s2 "Series 2" (leaf)
func newCollection() *testutil.FakeCatalog {
	f := testutil.NewFake()
	f.SetRoot(resID,
		catalog.RawNode{URI: rootURI, Title: "Collection A", Level: "collection", HasChildren: true},
		3,
		testutil.Branch(s1, "Series 1", 4),
		testutil.Record(s2, "Series 2"),
	)
	f.SetPage(s1, 0, testutil.Records(s1, 0, 3)...)
	f.SetPage(s1, 1, testutil.Records(s1, 3, 1)...)
	return f
}

// TestHelper drives a Model the way the bubbletea runtime would, running
// every returned command to completion and feeding its messages back.
type TestHelper struct {
	t      *testing.T
	model  Model
	copied []string
	quit   bool
}

func NewTestHelper(t *testing.T, f *testutil.FakeCatalog) *TestHelper {
	t.Helper()
	eng := engine.New(engine.Options{
		Catalog:      f,
		PageSize:     20,
		WaypointSize: 3,
		Debounce:     600 * time.Millisecond,
	})
	t.Cleanup(eng.Close)

	h := &TestHelper{t: t}
	m := NewModel(eng, resID, repoID)
	m.tick = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }
	m.copy = func(s string) error {
		h.copied = append(h.copied, s)
		return nil
	}
	h.model = m
	h.Send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(h.model.Init())
	return h
}

// Send delivers msg and settles all resulting I/O.
func (h *TestHelper) Send(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.run(cmd)
	return h
}

// SendKey simulates a special key press.
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.Send(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press.
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// Paste types s into the focused input as one edit.
func (h *TestHelper) Paste(s string) *TestHelper {
	return h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Paste: true})
}

func (h *TestHelper) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(h.t, steps, 1000, "update loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			h.quit = true
		default:
			updated, next := h.model.Update(msg)
			h.model = updated.(Model)
			queue = append(queue, next)
		}
	}
}

// Snapshot returns the engine state.
func (h *TestHelper) Snapshot() engine.Snapshot {
	return h.model.eng.Snapshot()
}

// RowURIs lists the visible tree rows; "more" rows appear as "+<parent>".
func (h *TestHelper) RowURIs() []string {
	var out []string
	for _, r := range h.model.rows() {
		if r.Kind == view.RowMore {
			out = append(out, "+"+r.URI())
			continue
		}
		out = append(out, r.URI())
	}
	return out
}

// CurrentURI returns the record under the tree cursor.
func (h *TestHelper) CurrentURI() string {
	r, ok := h.model.currentRow()
	if !ok {
		return ""
	}
	return r.URI()
}
