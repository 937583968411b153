package export

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/joshuapare/arctree/tree"
)

// jsonNode represents a record in JSON format.
type jsonNode struct {
	URI         string      `json:"uri"`
	Title       string      `json:"title"`
	Identifier  string      `json:"identifier,omitempty"`
	Level       string      `json:"level,omitempty"`
	Status      string      `json:"status,omitempty"`
	StatusLabel string      `json:"status_label,omitempty"`
	Extent      string      `json:"extent,omitempty"`
	Location    string      `json:"location,omitempty"`
	HasChildren bool        `json:"has_children"`
	ChildCount  int         `json:"child_count,omitempty"`
	LoadState   string      `json:"load_state"`
	Children    []*jsonNode `json:"children,omitempty"`
}

func toJSONNode(n *tree.Node) *jsonNode {
	return &jsonNode{
		URI:         n.URI,
		Title:       n.Title,
		Identifier:  n.Identifier,
		Level:       n.Level,
		Status:      string(n.Status.Class),
		StatusLabel: n.Status.Label,
		Extent:      n.Extent,
		Location:    n.Location,
		HasChildren: n.HasChildren,
		ChildCount:  n.ChildCount,
		LoadState:   n.LoadState().String(),
	}
}

// writeJSON builds the nested document in pre-order, attaching each node
// to its already-built parent.
func writeJSON(w io.Writer, root *tree.Node, opts Options) error {
	built := make(map[*tree.Node]*jsonNode)
	var doc *jsonNode
	tree.Walk(root, func(n *tree.Node) bool {
		if !within(root, n, opts.MaxDepth) {
			return false
		}
		jn := toJSONNode(n)
		built[n] = jn
		if n == root {
			doc = jn
		} else if parent, ok := built[n.Parent]; ok {
			parent.Children = append(parent.Children, jn)
		}
		return true
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
