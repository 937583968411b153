package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/search"
	"github.com/joshuapare/arctree/view"
)

// statusTimeout is how long a status message stays up.
const statusTimeout = 2 * time.Second

type clearStatusMsg struct{}

// fieldCycle is the order the search field toggles through.
var fieldCycle = []search.Field{
	search.FieldAll,
	search.FieldTitle,
	search.FieldIdentifier,
	search.FieldStatus,
	search.FieldLocation,
}

// statusCycle is the order the status filter toggles through.
var statusCycle = []types.StatusClass{
	types.StatusNone,
	types.StatusSuccess,
	types.StatusWarning,
	types.StatusError,
}

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, m.paneHeight())
		m.results.SetSize(msg.Width-4, m.paneHeight())
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-4, 10)
		return m, m.loadNear()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case engine.FocusChangedMsg:
		m.syncCursor(msg.URI)
		return m, m.loadNear()

	case engine.ErrMsg:
		logger.Debug("engine reported error", "error", msg.Err)
		return m.setStatus("Error: " + msg.Error())

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil
	}

	// Everything else is catalog I/O completing.
	cmd := m.eng.Update(msg)
	rows := m.rows()
	m.list.SetCursor(m.list.Cursor(), len(rows))
	return m, tea.Batch(cmd, m.loadNear())
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc, m.keys.Help, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.inputMode == SearchMode {
		return m.handleSearchInput(msg)
	}

	snap := m.eng.Snapshot()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.inputMode = SearchMode
		m.input.SetValue(snap.Search.Query)
		m.input.CursorEnd()
		m.input.Focus()
		return m, nil

	case key.Matches(msg, m.keys.Esc):
		if snap.Search.Query != "" || snap.Search.Page > 0 || !snap.Search.Facets.IsEmpty() {
			m.eng.ClearSearch()
			m.input.SetValue("")
			return m.setStatus("Search cleared")
		}
		return m, nil

	case key.Matches(msg, m.keys.Retry) && snap.Err != nil:
		return m, m.eng.LoadCollection(m.resourceID, m.repository)

	case key.Matches(msg, m.keys.Results):
		if snap.Mode == engine.ModeSearch {
			m.eng.SetDisplayMode(engine.ModeTree)
		} else if snap.Search.Page > 0 {
			m.eng.SetDisplayMode(engine.ModeSearch)
		}
		return m, m.loadNear()

	case key.Matches(msg, m.keys.Filter):
		return m.cycleStatusFilter(snap.Search)

	case key.Matches(msg, m.keys.Within):
		return m.toggleWithin(snap)

	case key.Matches(msg, m.keys.NextSelected):
		if len(snap.Selected) == 0 {
			return m.setStatus("No records selected")
		}
		next := 0
		if i := slices.Index(snap.Selected, snap.SelectFocus); i >= 0 {
			next = (i + 1) % len(snap.Selected)
		}
		return m, m.eng.NavigateSelection(next)
	}

	if snap.Mode == engine.ModeSearch {
		return m.handleResultsKey(msg, snap.Search)
	}
	return m.handleTreeKey(msg)
}

// handleSearchInput feeds keys to the search box. Every edit schedules a
// debounced search; the engine drops superseded ones.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.Close()
		return m, tea.Quit
	case msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
		m.inputMode = NormalMode
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Field):
		st := m.eng.Search()
		i := slices.Index(fieldCycle, st.Field)
		f := fieldCycle[(i+1)%len(fieldCycle)]
		m.statusMessage = "Field: " + fieldLabel(f)
		return m, m.eng.SetSearchField(f)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		return m, tea.Batch(cmd, m.eng.SetSearchQuery(v))
	}
	return m, cmd
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	c := m.list.Cursor()
	row, ok := m.currentRow()

	switch {
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(c - 1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(c + 1)
	case key.Matches(msg, m.keys.PageUp):
		return m.moveCursor(c - m.paneHeight())
	case key.Matches(msg, m.keys.PageDown):
		return m.moveCursor(c + m.paneHeight())
	case key.Matches(msg, m.keys.Home):
		return m.moveCursor(0)
	case key.Matches(msg, m.keys.End):
		return m.moveCursor(len(rows) - 1)
	}
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Right):
		if row.Kind == view.RowMore {
			return m, m.loadMore(row)
		}
		if row.Expanded {
			return m.moveCursor(c + 1)
		}
		return m.expand(row)

	case key.Matches(msg, m.keys.Left):
		if row.Kind == view.RowNode && row.Expanded {
			m.eng.Collapse(row.URI())
			m.list.SetCursor(c, len(m.rows()))
			return m, nil
		}
		return m.goToParent(row)

	case key.Matches(msg, m.keys.Enter):
		if row.Kind == view.RowMore {
			return m, m.loadMore(row)
		}
		if row.Expanded {
			m.eng.Collapse(row.URI())
			m.list.SetCursor(c, len(m.rows()))
			return m, nil
		}
		return m.expand(row)

	case key.Matches(msg, m.keys.GoToParent):
		return m.goToParent(row)

	case key.Matches(msg, m.keys.ExpandAll):
		return m, tea.Batch(m.eng.ExpandBranch(row.URI()), m.loadNear())

	case key.Matches(msg, m.keys.CollapseAll):
		m.eng.CollapseBranch(row.URI())
		m.list.SetCursor(c, len(m.rows()))
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if row.Kind != view.RowNode {
			return m, nil
		}
		return m.toggleRecord(row.Node.URI, row.Node.Title)

	case key.Matches(msg, m.keys.Copy):
		return m.copyURI(row.URI())

	case key.Matches(msg, m.keys.Retry):
		if !row.Failed {
			return m, nil
		}
		m.statusMessage = "Retrying " + row.Node.Title
		return m, m.eng.RetryChildren(row.URI())
	}
	return m, nil
}

func (m Model) handleResultsKey(msg tea.KeyMsg, st search.State) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up, m.keys.PrevMatch):
		return m, m.eng.SearchPrev()
	case key.Matches(msg, m.keys.Down, m.keys.NextMatch):
		return m, m.eng.SearchNext()
	}

	match, ok := st.ActiveMatch()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Enter, m.keys.Right):
		m.eng.SetDisplayMode(engine.ModeTree)
		m.statusMessage = "Revealing " + match.Title
		return m, m.eng.RevealHit(match.URI)
	case key.Matches(msg, m.keys.Toggle):
		return m.toggleRecord(match.URI, match.Title)
	case key.Matches(msg, m.keys.Copy):
		return m.copyURI(match.URI)
	}
	return m, nil
}

func (m Model) moveCursor(i int) (tea.Model, tea.Cmd) {
	rows := m.rows()
	if len(rows) == 0 {
		return m, nil
	}
	m.list.SetCursor(i, len(rows))
	row := rows[m.list.Cursor()]
	var cmd tea.Cmd
	if row.Kind == view.RowNode {
		cmd = m.eng.Focus(row.URI())
	}
	return m, tea.Batch(cmd, m.loadNear())
}

func (m Model) expand(row view.Row) (tea.Model, tea.Cmd) {
	if row.Kind != view.RowNode || !row.Node.HasChildren {
		return m, nil
	}
	return m, tea.Batch(m.eng.Expand(row.URI()), m.loadNear())
}

// loadMore fetches the next children page behind a "more" row, or retries
// the failed ones.
func (m Model) loadMore(row view.Row) tea.Cmd {
	if row.Failed {
		return m.eng.RetryChildren(row.URI())
	}
	return m.eng.LoadChildren(row.URI(), row.Node.Pagination().Next())
}

func (m Model) goToParent(row view.Row) (tea.Model, tea.Cmd) {
	target := row.Node
	if row.Kind == view.RowNode {
		target = row.Node.Parent
	}
	if target == nil {
		return m, nil
	}
	if i := view.IndexOf(m.rows(), target.URI); i >= 0 {
		return m.moveCursor(i)
	}
	return m, nil
}

func (m Model) toggleRecord(uri, title string) (tea.Model, tea.Cmd) {
	if m.eng.ToggleRecord(uri) {
		return m.setStatus("Selected " + title)
	}
	return m.setStatus("Deselected " + title)
}

func (m Model) copyURI(uri string) (tea.Model, tea.Cmd) {
	if uri == "" {
		return m, nil
	}
	if err := m.copy(uri); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		return m.setStatus("Copy failed: " + err.Error())
	}
	return m.setStatus("Copied " + uri)
}

func (m Model) cycleStatusFilter(st search.State) (tea.Model, tea.Cmd) {
	cur := types.StatusNone
	if len(st.Facets.Statuses) > 0 {
		cur = st.Facets.Statuses[0]
	}
	next := statusCycle[(slices.Index(statusCycle, cur)+1)%len(statusCycle)]
	var statuses []types.StatusClass
	label := "any"
	if next != types.StatusNone {
		statuses = []types.StatusClass{next}
		label = string(next)
	}
	m.statusMessage = "Status filter: " + label
	return m, m.eng.SetFilters(st.Facets.Levels, statuses, st.Facets.Anchor, st.Facets.Advanced)
}

// toggleWithin limits searches to the record under the cursor, or lifts the limit.
func (m Model) toggleWithin(snap engine.Snapshot) (tea.Model, tea.Cmd) {
	f := snap.Search.Facets
	anchor := ""
	if f.Anchor == "" {
		anchor = snap.Focus
		if anchor == "" {
			return m.setStatus("Move to a record first")
		}
	}
	if anchor == "" {
		m.statusMessage = "Searching the whole collection"
	} else {
		m.statusMessage = fmt.Sprintf("Searching within %s", anchor)
	}
	return m, m.eng.SetFilters(f.Levels, f.Statuses, anchor, f.Advanced)
}

func (m Model) setStatus(s string) (tea.Model, tea.Cmd) {
	m.statusMessage = s
	return m, m.tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// syncCursor moves the tree cursor onto uri when it is visible.
func (m Model) syncCursor(uri string) {
	rows := m.rows()
	if i := view.IndexOf(rows, uri); i >= 0 {
		m.list.SetCursor(i, len(rows))
	}
}

// loadNear prefetches children pages around the visible tree window.
func (m Model) loadNear() tea.Cmd {
	if m.eng.Snapshot().Mode != engine.ModeTree {
		return nil
	}
	uris := m.visibleURIs()
	if len(uris) == 0 {
		return nil
	}
	return m.eng.LoadMoreChildrenNear(uris...)
}

func fieldLabel(f search.Field) string {
	if f == search.FieldAll {
		return "all"
	}
	return string(f)
}
