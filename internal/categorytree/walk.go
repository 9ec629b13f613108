package categorytree

// Walk visits reachable nodes in pre-order. Returning false from fn skips the
// node's children. Each node is visited at most once and, when the forest was
// built with a MaxDepth, nodes deeper than that are not visited.
func (f *Forest) Walk(fn func(n *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}

	visited := make(map[*Node]struct{}, len(f.byID))
	stack := make([]frame, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: f.Roots[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[top.node]; seen {
			continue
		}
		visited[top.node] = struct{}{}

		if !fn(top.node, top.depth) {
			continue
		}
		if f.maxDepth > 0 && top.depth+1 >= f.maxDepth {
			continue
		}

		children := top.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: top.depth + 1})
		}
	}
}

// Option is one row of the flattened, indented tree used by single-choice
// pickers.
type Option struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Depth       int    `json:"depth"`
	HasChildren bool   `json:"hasChildren"`
}

// Options flattens the forest in display order.
func (f *Forest) Options() []Option {
	opts := make([]Option, 0, f.Len())
	f.Walk(func(n *Node, depth int) bool {
		opts = append(opts, Option{
			ID:          n.ID,
			Title:       n.Title,
			Depth:       depth,
			HasChildren: f.HasChildren(n.ID),
		})
		return true
	})
	return opts
}

// Descendants returns every node below id in pre-order, id excluded. It
// works for any built node, reachable or not.
func (f *Forest) Descendants(id string) []string {
	root, ok := f.byID[id]
	if !ok {
		return nil
	}

	var ids []string
	visited := map[*Node]struct{}{}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		if n != root {
			ids = append(ids, n.ID)
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return ids
}

// WouldCycle reports whether making fatherID the father of id would put id
// into its own ancestor chain.
func (f *Forest) WouldCycle(id, fatherID string) bool {
	if fatherID == "" {
		return false
	}
	if fatherID == id {
		return true
	}
	for _, d := range f.Descendants(id) {
		if d == fatherID {
			return true
		}
	}
	return false
}
