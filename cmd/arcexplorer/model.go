package main

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/arctree/cmd/arcexplorer/virtuallist"
	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/search"
	"github.com/joshuapare/arctree/view"
)

// InputMode represents different input modes
type InputMode int

const (
	NormalMode InputMode = iota
	SearchMode
)

// Layout constants
const (
	headerHeight = 2 // title line and breadcrumb
	statusHeight = 1
	paneChrome   = 3 // border top/bottom and pane title
)

// Model is the main application model. The engine holds all browse state;
// the model only adds presentation state (cursor, scroll, input, overlays).
type Model struct {
	eng        *engine.Engine
	resourceID string
	repository string
	keys       KeyMap
	help       help.Model

	input     textinput.Model
	inputMode InputMode

	list    *virtuallist.Renderer // tree rows
	results *virtuallist.Renderer // current search page

	width  int
	height int

	showHelp      bool
	statusMessage string

	// copy writes to the system clipboard; replaced in tests.
	copy func(string) error
	// tick schedules a delayed message; replaced in tests.
	tick func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
}

// NewModel creates a new TUI model browsing one collection.
func NewModel(eng *engine.Engine, resourceID, repository string) Model {
	ti := textinput.New()
	ti.Prompt = "Search: "
	ti.PromptStyle = searchPromptStyle
	ti.Placeholder = "title, identifier, status, location"
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		eng:        eng,
		resourceID: resourceID,
		repository: repository,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		input:      ti,
		list:       virtuallist.New(),
		results:    virtuallist.New(),
		copy:       clipboard.WriteAll,
		tick:       tea.Tick,
	}
}

// Init starts loading the collection root.
func (m Model) Init() tea.Cmd {
	return m.eng.LoadCollection(m.resourceID, m.repository)
}

// Close cancels outstanding catalog requests.
func (m Model) Close() {
	m.eng.Close()
}

// treeList adapts the flattened tree rows to the virtual list.
type treeList struct {
	rows []view.Row
}

func (l treeList) ItemCount() int { return len(l.rows) }

func (l treeList) RenderItem(i int, isCursor bool, width int) string {
	return renderRow(l.rows[i], isCursor, width)
}

// resultList adapts the current page of search results to the virtual list.
type resultList struct {
	st search.State
}

func (l resultList) ItemCount() int { return len(l.st.Results) }

func (l resultList) RenderItem(i int, isCursor bool, width int) string {
	return renderMatch(l.st.PageStart()+i, l.st.Results[i], isCursor, width)
}

// rows returns the visible tree rows.
func (m Model) rows() []view.Row {
	return m.eng.Snapshot().Rows
}

// currentRow returns the tree row under the cursor.
func (m Model) currentRow() (view.Row, bool) {
	rows := m.rows()
	c := m.list.Cursor()
	if c < 0 || c >= len(rows) {
		return view.Row{}, false
	}
	return rows[c], true
}

// visibleURIs lists the records in the visible row window, including the
// parents of "more" rows, for prefetching.
func (m Model) visibleURIs() []string {
	rows := m.rows()
	start, end := m.list.Window(len(rows))
	out := make([]string, 0, end-start)
	for _, r := range rows[start:end] {
		if u := r.URI(); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// paneHeight is the number of list lines that fit on screen.
func (m Model) paneHeight() int {
	return max(m.height-headerHeight-statusHeight-paneChrome, 3)
}
