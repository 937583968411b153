package engine

import "github.com/joshuapare/arctree/catalog"

// Messages delivered back to Engine.Update when catalog I/O completes.
// Each carries the store generation it was issued for; a message for an
// older generation belongs to a collection that is no longer shown. Root
// responses carry the token of the LoadCollection call that asked for them.

type rootLoadedMsg struct {
	token uint64
	resp  *catalog.RootResponse
	err   error
}

type childrenLoadedMsg struct {
	gen    uint64
	uri    string
	offset int
	resp   *catalog.ChildrenResponse
	err    error
}

type searchDebounceMsg struct {
	id uint64
}

type searchResultMsg struct {
	gen   uint64
	token uint64
	resp  *catalog.SearchResponse
	err   error
}

type pathResolvedMsg struct {
	gen   uint64
	token uint64
	resp  *catalog.PathResponse
	err   error
}

// FocusChangedMsg is emitted when the focused record changes, so an outer
// shell can scroll it into view.
type FocusChangedMsg struct {
	URI string
}

// ErrMsg reports a non-fatal failure the shell may want to surface.
type ErrMsg struct {
	Err error
}

func (e ErrMsg) Error() string {
	return e.Err.Error()
}
