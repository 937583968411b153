package view

import "github.com/joshuapare/arctree/tree"

// RowKind distinguishes record rows from paging placeholders.
type RowKind int

const (
	RowNode RowKind = iota
	// RowMore stands in for children pages not yet loaded under Parent.
	RowMore
)

// Row is one visible line of the flattened tree.
type Row struct {
	Kind     RowKind
	Node     *tree.Node // the record for RowNode, the paged parent for RowMore
	Depth    int
	Expanded bool
	Selected bool
	Loading  bool // a children request for Node is outstanding
	Failed   bool // a children page of Node failed and can be retried
}

// URI returns the row's record URI.
func (r Row) URI() string {
	if r.Node == nil {
		return ""
	}
	return r.Node.URI
}

type frame struct {
	node *tree.Node
	more bool
}

// Flatten projects the materialized tree onto visible rows: root first, the
// children of expanded nodes following their parent in server order, and a
// RowMore placeholder after an expanded node's children when more pages exist.
// sel may be nil.
func Flatten(root *tree.Node, exp *ExpansionSet, sel *Selection) []Row {
	if root == nil {
		return nil
	}
	rows := make([]Row, 0, 64)
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		p := n.Pagination()

		if f.more {
			rows = append(rows, Row{
				Kind:    RowMore,
				Node:    n,
				Depth:   n.Depth + 1,
				Loading: p.Loading(),
				Failed:  len(p.FailedOffsets()) > 0,
			})
			continue
		}

		expanded := exp != nil && exp.Has(n.URI)
		rows = append(rows, Row{
			Kind:     RowNode,
			Node:     n,
			Depth:    n.Depth,
			Expanded: expanded,
			Selected: sel != nil && sel.Contains(n.URI),
			Loading:  p.Loading(),
			Failed:   len(p.FailedOffsets()) > 0,
		})
		if !expanded {
			continue
		}
		if n.HasMore() && len(n.Children) > 0 {
			stack = append(stack, frame{node: n, more: true})
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Children[i]})
		}
	}
	return rows
}

// IndexOf returns the index of the RowNode for uri, or -1.
func IndexOf(rows []Row, uri string) int {
	for i, r := range rows {
		if r.Kind == RowNode && r.URI() == uri {
			return i
		}
	}
	return -1
}
