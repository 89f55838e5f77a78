package jsontree

import "sync"

// Project flattens roots in pre-order, descending into a node's children
// only when expanded reports true for it. A nil expanded collapses everything.
func Project(roots []*Node, expanded func(*Node) bool) []*Node {
	rows := make([]*Node, 0, len(roots))
	for _, r := range roots {
		rows = project(rows, r, expanded)
	}
	return rows
}

func project(rows []*Node, n *Node, expanded func(*Node) bool) []*Node {
	rows = append(rows, n)
	if expanded == nil || !n.HasChildren() || !expanded(n) {
		return rows
	}
	for _, c := range n.Children {
		rows = project(rows, c, expanded)
	}
	return rows
}

// View holds the expansion state of one tree. Safe for concurrent use.
type View struct {
	mu       sync.Mutex
	roots    []*Node
	expanded map[string]bool
}

// NewView returns a view over roots with every node collapsed.
func NewView(roots []*Node) *View {
	return &View{roots: roots, expanded: make(map[string]bool)}
}

// Toggle flips the expansion of n. Nodes without children are left alone.
func (v *View) Toggle(n *Node) {
	if n == nil || !n.HasChildren() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.expanded[n.Path] {
		delete(v.expanded, n.Path)
	} else {
		v.expanded[n.Path] = true
	}
}

// Expand marks the node at path and all its ancestors expanded. Returns
// false if no expandable node has that path.
func (v *View) Expand(path string) bool {
	n := Find(v.roots, path)
	if n == nil || !n.HasChildren() {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range ancestors(v.roots, path) {
		v.expanded[p] = true
	}
	v.expanded[path] = true
	return true
}

// ExpandToDepth expands every container whose level is below depth.
func (v *View) ExpandToDepth(depth int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	Walk(v.roots, func(n *Node) {
		if n.Level < depth && n.HasChildren() {
			v.expanded[n.Path] = true
		}
	})
}

// IsExpanded reports whether n is expanded in this view.
func (v *View) IsExpanded(n *Node) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded[n.Path]
}

// Rows returns the current projection.
func (v *View) Rows() []*Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Project(v.roots, func(n *Node) bool { return v.expanded[n.Path] })
}

// ancestors returns the paths of the containers above path.
func ancestors(roots []*Node, path string) []string {
	var out []string
	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if n.Path == path {
			return true
		}
		for _, c := range n.Children {
			if visit(c) {
				out = append(out, n.Path)
				return true
			}
		}
		return false
	}
	for _, r := range roots {
		if visit(r) {
			break
		}
	}
	return out
}
