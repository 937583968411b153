package view

// Selection is an ordered list of distinct record URIs plus a focused entry.
type Selection struct {
	ids   []string
	focus string
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Toggle removes uri if selected, otherwise appends and focuses it.
// It reports whether uri is selected afterwards.
func (s *Selection) Toggle(uri string) bool {
	if s.Index(uri) >= 0 {
		s.Remove(uri)
		return false
	}
	s.ids = append(s.ids, uri)
	s.focus = uri
	return true
}

// Remove drops uri. If it was focused, focus moves to the entry now at the
// removed index, or the last entry when the removed one was last.
func (s *Selection) Remove(uri string) bool {
	idx := s.Index(uri)
	if idx < 0 {
		return false
	}
	s.ids = append(s.ids[:idx], s.ids[idx+1:]...)
	if s.focus == uri {
		s.focus = ""
		if n := len(s.ids); n > 0 {
			s.focus = s.ids[min(idx, n-1)]
		}
	}
	return true
}

// Focus moves focus to uri. It reports false, leaving focus unchanged, when
// uri is not selected.
func (s *Selection) Focus(uri string) bool {
	if s.Index(uri) < 0 {
		return false
	}
	s.focus = uri
	return true
}

// FocusIndex focuses the entry at i.
func (s *Selection) FocusIndex(i int) (string, bool) {
	if i < 0 || i >= len(s.ids) {
		return "", false
	}
	s.focus = s.ids[i]
	return s.focus, true
}

// Focused returns the focused URI.
func (s *Selection) Focused() (string, bool) {
	return s.focus, s.focus != ""
}

// Index returns uri's position or -1.
func (s *Selection) Index(uri string) int {
	for i, id := range s.ids {
		if id == uri {
			return i
		}
	}
	return -1
}

// Contains reports whether uri is selected.
func (s *Selection) Contains(uri string) bool { return s.Index(uri) >= 0 }

// IDs returns a copy of the selected URIs in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len is the number of selected records.
func (s *Selection) Len() int { return len(s.ids) }

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
	s.focus = ""
}
