// Package jsontree turns JSON text into an ordered, collapsible node tree.
//
// Parse decodes the text into a tagged Value and builds one root Node per
// top-level value. Object children are sorted by key; array children keep
// their original order and are keyed "[0]", "[1]", ...:
//
//	roots, err := jsontree.Parse([]byte(`{"b":1,"a":[true,null]}`))
//	// roots[0]          object  {2 keys}
//	// roots[0].Children a       array   [2 items]
//	//                   b       number  1
//
// # Expansion
//
// A parsed tree never changes. Which nodes are expanded is tracked by a View,
// keyed by each node's Path, so several views can share one tree:
//
//	v := jsontree.NewView(roots)
//	v.Toggle(roots[0])
//	for _, n := range v.Rows() {
//	    fmt.Println(strings.Repeat("  ", n.Level), n.Label(), n.Display())
//	}
//
// Project is the stateless form of Rows for callers that keep their own
// expansion state.
package jsontree
