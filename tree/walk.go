package tree

// initialStackCapacity is the pre-allocated capacity for traversal stacks.
// Finding aids rarely nest deeper than a dozen levels.
const initialStackCapacity = 64

// WalkFunc is called for each visited node. Returning false skips the node's
// children but continues the walk.
type WalkFunc func(n *Node) bool

// Walk visits the materialized subtree under start in pre-order, children in
// server order. The traversal is iterative so deep trees cannot overflow the
// goroutine stack.
func Walk(start *Node, fn WalkFunc) {
	if start == nil {
		return
	}
	stack := make([]*Node, 0, initialStackCapacity)
	stack = append(stack, start)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		// Push in reverse so the first child is popped first.
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Walk visits every materialized node from the root.
func (s *Store) Walk(fn WalkFunc) { Walk(s.root, fn) }

// Breadcrumb returns the root-first chain ending at uri, or nil if uri is
// not materialized.
func (s *Store) Breadcrumb(uri string) []*Node {
	n, ok := s.index[uri]
	if !ok {
		return nil
	}
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants returns every materialized node strictly below uri, pre-order.
func (s *Store) Descendants(uri string) []*Node {
	n, ok := s.index[uri]
	if !ok {
		return nil
	}
	var out []*Node
	Walk(n, func(d *Node) bool {
		if d != n {
			out = append(out, d)
		}
		return true
	})
	return out
}

// IsAncestor reports whether ancestor is a proper ancestor of uri.
func (s *Store) IsAncestor(ancestor, uri string) bool {
	n, ok := s.index[uri]
	if !ok {
		return false
	}
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.URI == ancestor {
			return true
		}
	}
	return false
}
