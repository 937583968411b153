package tree

import (
	"strings"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/pkg/types"
)

// Status labels shown for each class.
const (
	LabelRestricted     = "Restricted"
	LabelNeedsAttention = "Needs attention"
	LabelAvailable      = "Available"
)

// Status is the presentation status derived from a raw status type.
type Status struct {
	Class types.StatusClass
	Label string
	Raw   string // original status type, untouched
}

// DeriveStatus maps a raw status type onto a Status. Matching is
// case-insensitive; "restrict" wins over "warn"/"attention".
func DeriveStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return Status{Class: types.StatusNone, Raw: raw}
	case strings.Contains(s, "restrict"):
		return Status{Class: types.StatusError, Label: LabelRestricted, Raw: raw}
	case strings.Contains(s, "warn"), strings.Contains(s, "attention"):
		return Status{Class: types.StatusWarning, Label: LabelNeedsAttention, Raw: raw}
	default:
		return Status{Class: types.StatusSuccess, Label: LabelAvailable, Raw: raw}
	}
}

// Normalize converts a raw catalog record into a detached Node. It never
// fails: missing fields get defaults, and the title falls back to the
// identifier and then the URI.
func Normalize(raw catalog.RawNode) *Node {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.Identifier)
	}
	if title == "" {
		title = raw.URI
	}

	level := raw.Level
	if level == "" {
		level = raw.Type
	}

	return &Node{
		URI:         raw.URI,
		Title:       title,
		Identifier:  raw.Identifier,
		Level:       level,
		Status:      DeriveStatus(raw.StatusType),
		Extent:      raw.Extent,
		Location:    raw.Location,
		HasChildren: raw.HasChildren || raw.ChildCount > 0,
		ChildCount:  raw.ChildCount,
	}
}

// NormalizePage normalizes a page of records in server order. Records
// without a URI cannot be addressed and are skipped; skipped reports how many.
func NormalizePage(raws []catalog.RawNode) (nodes []*Node, skipped int) {
	nodes = make([]*Node, 0, len(raws))
	for _, r := range raws {
		if r.URI == "" {
			skipped++
			continue
		}
		nodes = append(nodes, Normalize(r))
	}
	return nodes, skipped
}
