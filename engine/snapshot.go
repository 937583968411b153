package engine

import (
	"github.com/joshuapare/arctree/search"
	"github.com/joshuapare/arctree/tree"
	"github.com/joshuapare/arctree/view"
)

// Snapshot is a read-only view of the engine state for presentation.
type Snapshot struct {
	Generation   uint64
	ResourceID   string
	RepositoryID string

	Root        *tree.Node
	Rows        []view.Row
	Expanded    []string
	Selected    []string
	SelectFocus string // focused entry of the selection list
	Focus       string // record under the cursor
	Breadcrumb  []*tree.Node

	Mode   DisplayMode
	Search search.State

	Loading   bool   // root request outstanding
	Err       error  // root failure; the whole view is in error
	Notice    error  // last non-fatal failure (hydration)
	Revealing string // record whose path is being hydrated
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	selFocus, _ := e.selection.Focused()
	revealing, _ := e.resolver.Active()
	return Snapshot{
		Generation:   e.generation,
		ResourceID:   e.resourceID,
		RepositoryID: e.repositoryID,
		Root:         e.store.Root(),
		Rows:         view.Flatten(e.store.Root(), e.expansion, e.selection),
		Expanded:     e.expansion.IDs(),
		Selected:     e.selection.IDs(),
		SelectFocus:  selFocus,
		Focus:        e.focus,
		Breadcrumb:   e.store.Breadcrumb(e.focus),
		Mode:         e.mode,
		Search:       e.search.State(),
		Loading:      e.rootLoading,
		Err:          e.rootErr,
		Notice:       e.notice,
		Revealing:    revealing,
	}
}

// Store exposes the materialized tree for read-only consumers such as exporters.
func (e *Engine) Store() *tree.Store { return e.store }

// Node looks up a materialized record.
func (e *Engine) Node(uri string) (*tree.Node, bool) { return e.store.Get(uri) }
