package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/search"
	"github.com/joshuapare/arctree/view"
)

// View renders the entire UI
func (m Model) View() string {
	snap := m.eng.Snapshot()
	if snap.Root == nil {
		switch {
		case snap.Err != nil:
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit.", snap.Err))
		default:
			return statusStyle.Render("Loading collection...")
		}
	}

	if m.showHelp {
		// Rebuilt on every render: Update returns new models, so a stored
		// pointer to the main view would be stale.
		ov := overlay.New(helpView{m: &m}, mainView{m: &m}, overlay.Center, overlay.Center, 0, 0)
		return ov.View()
	}
	return m.renderMain(snap)
}

func (m Model) renderMain(snap engine.Snapshot) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(snap),
		m.renderContent(snap),
		m.renderStatus(snap),
	)
}

// renderHeader renders the collection title and the breadcrumb of the focused record.
func (m Model) renderHeader(snap engine.Snapshot) string {
	title := headerStyle.Render(snap.Root.Title)
	if snap.Err != nil {
		// The previous tree stays up after a failed collection switch.
		title += "  " + errorStyle.Render("reload failed: "+snap.Err.Error())
	}

	var crumbs []string
	for _, n := range snap.Breadcrumb {
		crumbs = append(crumbs, n.Title)
	}
	path := pathStyle.Render(strings.Join(crumbs, " › "))
	return lipgloss.JoinVertical(lipgloss.Left, title, path)
}

// renderContent renders the tree or the result list in a bordered pane.
func (m Model) renderContent(snap engine.Snapshot) string {
	width := max(m.width-2, 20)
	height := m.paneHeight()

	var title, body string
	if snap.Mode == engine.ModeSearch {
		st := snap.Search
		title = resultsTitle(st)
		m.results.SetCursor(st.Active-st.PageStart(), len(st.Results))
		switch {
		case st.Err != nil:
			body = errorStyle.Render("Search failed: " + st.Err.Error())
		case len(st.Results) == 0 && st.Loading:
			body = moreRowStyle.Render("Searching...")
		case len(st.Results) == 0:
			body = moreRowStyle.Render("No matches")
		default:
			body = m.results.View(resultList{st: st})
		}
	} else {
		title = fmt.Sprintf("Records (%d loaded)", m.eng.Store().Len())
		body = m.list.View(treeList{rows: snap.Rows})
	}

	pane := lipgloss.NewStyle().Width(width - 2).Height(height).Render(body)
	return activePaneStyle.
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, paneTitleStyle.Render(title), pane))
}

func resultsTitle(st search.State) string {
	if st.Page == 0 {
		return "Results"
	}
	s := fmt.Sprintf("Results: %d matches, page %d of %d (%s)", st.Total, st.Page, st.Pages(), st.Strategy)
	if st.Loading {
		s += " …"
	}
	return s
}

// renderStatus renders the input prompt, a status message, or the key hints.
func (m Model) renderStatus(snap engine.Snapshot) string {
	if m.inputMode == SearchMode {
		line := m.input.View()
		if f := snap.Search.Field; f != search.FieldAll {
			line += "  " + statusCountStyle.Render("["+fieldLabel(f)+"]")
		}
		return statusStyle.Width(m.width).Render(line)
	}
	if m.statusMessage != "" {
		return statusStyle.Width(m.width).Render(searchPromptStyle.Render(m.statusMessage))
	}

	var parts []string
	if n := len(snap.Selected); n > 0 {
		parts = append(parts, statusCountStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	if snap.Revealing != "" {
		parts = append(parts, "revealing…")
	}
	if snap.Notice != nil {
		parts = append(parts, errorStyle.Render(snap.Notice.Error()))
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return statusStyle.Width(m.width).Render(strings.Join(parts, " │ "))
}

// renderRow renders one tree row.
func renderRow(r view.Row, isCursor bool, width int) string {
	indent := strings.Repeat("  ", r.Depth)
	var line string
	if r.Kind == view.RowMore {
		switch {
		case r.Failed:
			line = indent + "  ⚠ page failed to load, press r to retry"
		case r.Loading:
			line = indent + "  … loading more"
		default:
			line = indent + "  … more"
		}
		if isCursor {
			return cursorRowStyle.Width(width).Render(line)
		}
		return moreRowStyle.Render(line)
	}

	n := r.Node
	marker := "  "
	switch {
	case n.HasChildren && r.Expanded:
		marker = "▾ "
	case n.HasChildren:
		marker = "▸ "
	}
	sel := " "
	if r.Selected {
		sel = selectedMarkStyle.Render("●")
	}

	line = indent + marker + sel + " " + n.Title
	if n.Level != "" {
		line += " " + levelStyle.Render("["+n.Level+"]")
	}
	if b := statusBadge(n.Status.Class, n.Status.Label); b != "" {
		line += " " + b
	}
	switch {
	case r.Loading:
		line += " " + moreRowStyle.Render("loading…")
	case r.Failed:
		line += " " + errorStyle.Render("failed (r to retry)")
	}
	if isCursor {
		return cursorRowStyle.Width(width).Render(line)
	}
	return line
}

// renderMatch renders one search result line.
func renderMatch(ordinal int, mt search.Match, isCursor bool, width int) string {
	line := fmt.Sprintf("%4d. %s", ordinal+1, mt.Title)
	if mt.Level != "" {
		line += " " + levelStyle.Render("["+mt.Level+"]")
	}
	if b := statusBadge(mt.Status.Class, mt.Status.Label); b != "" {
		line += " " + b
	}
	if mt.Identifier != "" {
		line += " " + pathStyle.Render(mt.Identifier)
	}
	if isCursor {
		return cursorRowStyle.Width(width).Render(line)
	}
	return line
}

// mainView wraps the main UI for use as the overlay background.
type mainView struct {
	m *Model
}

func (v mainView) Init() tea.Cmd                       { return nil }
func (v mainView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v mainView) View() string                        { return v.m.renderMain(v.m.eng.Snapshot()) }

// helpView is the keyboard shortcut overlay.
type helpView struct {
	m *Model
}

func (v helpView) Init() tea.Cmd                       { return nil }
func (v helpView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v helpView) View() string {
	h := v.m.help
	h.ShowAll = true
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		helpTitleStyle.Render("Keyboard Shortcuts"),
		h.View(v.m.keys),
		"",
		moreRowStyle.Render("Press ? or esc to close"),
	)
	return modalStyle.Render(body)
}
