// Package virtuallist renders only the visible window of a long list.
package virtuallist

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
)

// List is implemented by anything the Renderer can draw.
type List interface {
	// ItemCount returns the total number of items in the list.
	ItemCount() int

	// RenderItem renders a single item. isCursor marks the item under the cursor.
	RenderItem(index int, isCursor bool, width int) string
}

// Renderer keeps a cursor and a scroll offset over a List whose length may
// change between frames (pages arriving, branches collapsing).
type Renderer struct {
	viewport viewport.Model
	cursor   int
	width    int
	height   int
	offset   int
}

// New creates a renderer with no size.
func New() *Renderer {
	return &Renderer{viewport: viewport.New(0, 0)}
}

// SetSize updates the renderer size.
func (r *Renderer) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.viewport.Width = width
	r.viewport.Height = height
}

// Width returns the current width.
func (r *Renderer) Width() int { return r.width }

// Height returns the current height.
func (r *Renderer) Height() int { return r.height }

// Cursor returns the cursor position.
func (r *Renderer) Cursor() int { return r.cursor }

// Offset returns the index of the first visible item.
func (r *Renderer) Offset() int { return r.offset }

// SetCursor moves the cursor, clamped to [0, count), and scrolls so it stays
// visible.
func (r *Renderer) SetCursor(cursor, count int) {
	if cursor >= count {
		cursor = count - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	r.cursor = cursor
	r.scroll(count)
}

// Window returns the half-open range of visible item indexes.
func (r *Renderer) Window(count int) (start, end int) {
	r.scroll(count)
	h := r.height
	if h <= 0 {
		h = 20 // before the first WindowSizeMsg
	}
	start = r.offset
	end = min(start+h, count)
	return start, end
}

// View renders the visible items of l.
func (r *Renderer) View(l List) string {
	count := l.ItemCount()
	if count == 0 {
		return ""
	}
	start, end := r.Window(count)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(l.RenderItem(i, i == r.cursor, r.width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	// Only the visible slice is handed to the viewport, so its own offset stays 0.
	r.viewport.SetContent(b.String())
	r.viewport.YOffset = 0
	return r.viewport.View()
}

func (r *Renderer) scroll(count int) {
	if r.height <= 0 {
		return
	}
	if r.cursor < r.offset {
		r.offset = r.cursor
	}
	if r.cursor >= r.offset+r.height {
		r.offset = r.cursor - r.height + 1
	}
	maxOffset := max(count-r.height, 0)
	r.offset = min(max(r.offset, 0), maxOffset)
}
