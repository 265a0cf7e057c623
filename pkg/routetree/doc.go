// Package routetree implements the ordered route trie used by pageload.
//
// A tree is keyed by path segment. Each node has ordered literal children,
// at most one named child ([id]) and at most one catch-all child
// ([...rest]):
//
//	root
//	├── ""          → /
//	└── posts
//	    ├── latest  → /posts/latest
//	    └── [id]    → /posts/[id]
//	        └── [...rest] → /posts/[id]/[...rest]
//
// Matching tries, at every node, the literal child first, then the named
// child, then the catch-all child, backtracking out of subtrees that fail
// to reach a registered value:
//
//	tree, err := routetree.Build([]routetree.Route[string]{
//	    {Path: "/posts/latest", Value: "latest"},
//	    {Path: "/posts/[id]", Value: "post"},
//	})
//	res, ok := tree.Match("/posts/42")
//	// res.Value == "post", res.Params.Get("id") == "42"
//
// Conflicting registrations (the same path twice, two different parameter
// names at one position, two catch-alls at one position, malformed
// brackets) are reported as errors when the tree is built. A tree is
// read-only once built and safe for concurrent matching.
package routetree
