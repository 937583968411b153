package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/joshuapare/arctree/tree"
)

// writeText prints one line per record:
//
//	Series 1 [series] {Needs attention} </r/s1> (3 of 4 loaded)
func writeText(w io.Writer, root *tree.Node, opts Options) error {
	bw := bufio.NewWriter(w)
	tree.Walk(root, func(n *tree.Node) bool {
		if !within(root, n, opts.MaxDepth) {
			return false
		}
		indent := strings.Repeat(" ", (n.Depth-root.Depth)*opts.IndentSize)

		fmt.Fprintf(bw, "%s%s", indent, n.Title)
		if n.Level != "" {
			fmt.Fprintf(bw, " [%s]", n.Level)
		}
		if n.Status.Label != "" {
			fmt.Fprintf(bw, " {%s}", n.Status.Label)
		}
		if opts.ShowURIs {
			fmt.Fprintf(bw, " <%s>", n.URI)
		}
		if n.HasMore() {
			if n.ChildCount > 0 {
				fmt.Fprintf(bw, " (%d of %d loaded)", len(n.Children), n.ChildCount)
			} else {
				fmt.Fprintf(bw, " (%d loaded, more available)", len(n.Children))
			}
		}
		bw.WriteByte('\n')
		return true
	})
	return bw.Flush()
}
