package categorytree

import "strings"

// FindPath searches the trees below roots depth-first and returns the ids
// from the entry root down to targetID, both inclusive. The search keeps its
// own stack and a visited set, so neither deep trees nor cyclic node graphs
// can exhaust it.
func FindPath(roots []*Node, targetID string) ([]string, bool) {
	type frame struct {
		node *Node
		path []string
	}

	visited := make(map[*Node]struct{})
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i], path: []string{roots[i].ID}})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[top.node]; seen {
			continue
		}
		visited[top.node] = struct{}{}

		if top.node.ID == targetID {
			return top.path, true
		}

		for i := len(top.node.Children) - 1; i >= 0; i-- {
			child := top.node.Children[i]
			// full slice expression so siblings never share a backing array
			path := append(top.path[:len(top.path):len(top.path)], child.ID)
			stack = append(stack, frame{node: child, path: path})
		}
	}

	return nil, false
}

// FindPath resolves id within the forest. Nodes hidden by MaxDepth have no
// path, so every returned path can be rebuilt level by level.
func (f *Forest) FindPath(id string) ([]string, bool) {
	if !f.Contains(id) {
		return nil, false
	}
	return FindPath(f.Roots, id)
}

// Titles maps a path of ids to the titles of the corresponding nodes.
func (f *Forest) Titles(path []string) []string {
	titles := make([]string, 0, len(path))
	for _, id := range path {
		if n, ok := f.byID[id]; ok {
			titles = append(titles, n.Title)
		} else {
			titles = append(titles, id)
		}
	}
	return titles
}

// Breadcrumb renders the titles from the root down to id, joined by sep.
func (f *Forest) Breadcrumb(id, sep string) (string, bool) {
	path, ok := f.FindPath(id)
	if !ok {
		return "", false
	}
	return strings.Join(f.Titles(path), sep), true
}
