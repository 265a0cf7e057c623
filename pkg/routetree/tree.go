package routetree

import (
	"errors"
	"sort"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/routepath"
)

// Construction errors. Errors returned by Insert and Build wrap one of
// these, so callers can test with errors.Is.
var (
	ErrDuplicatePath = errors.New("duplicate router path")
	ErrSharedPath    = errors.New("shared router path")
	ErrInvalidPath   = errors.New("invalid router path")
)

// Node is a node in the route tree.
type Node[T any] struct {
	// Key is the raw segment this node was created for.
	Key string

	// Normal are the literal children, in insertion order, with distinct keys.
	Normal []*Node[T]

	// Named is the single named-parameter child.
	Named *Node[T]

	// Glob is the single catch-all child. It never has children.
	Glob *Node[T]

	// param is the parameter name for Named and Glob nodes.
	param string

	// pattern is the full registered path for nodes holding a value.
	pattern  string
	value    T
	hasValue bool
}

// NewNode creates a node with the given key.
func NewNode[T any](key string) *Node[T] {
	return &Node[T]{Key: key}
}

// Value returns the node's value and whether a route terminates here.
func (n *Node[T]) Value() (T, bool) {
	return n.value, n.hasValue
}

// Pattern returns the registered path that terminates at this node.
func (n *Node[T]) Pattern() string {
	return n.pattern
}

// findChild finds a literal child with an exact key match.
func (n *Node[T]) findChild(key string) *Node[T] {
	for _, child := range n.Normal {
		if child.Key == key {
			return child
		}
	}
	return nil
}

// addChild appends a new literal child.
func (n *Node[T]) addChild(key string) *Node[T] {
	child := NewNode[T](key)
	n.Normal = append(n.Normal, child)
	return child
}

func (n *Node[T]) set(pattern string, value T) {
	n.pattern = pattern
	n.value = value
	n.hasValue = true
}

// Insert registers value at the path described by segments.
//
// Registering a path that already holds a value fails with
// ErrDuplicatePath. Two different parameter names, or two catch-alls, at
// the same position fail with ErrSharedPath. Malformed brackets and
// segments following a catch-all fail with ErrInvalidPath.
func (n *Node[T]) Insert(segments []string, value T) error {
	path := Join(segments)
	current := n

	for i, raw := range segments {
		seg, err := ParseSegment(raw)
		if err != nil {
			return perrors.New("E102").WithRoute(path).WithExisting(raw).Wrap(ErrInvalidPath)
		}
		last := i == len(segments)-1

		switch seg.Kind {
		case CatchAll:
			if !last {
				return perrors.New("E102").
					WithRoute(path).
					WithExisting(raw).
					WithSuggestion("Move " + raw + " to the end of the path").
					Wrap(ErrInvalidPath)
			}
			if current.Glob != nil {
				return perrors.New("E101").WithRoute(path).WithExisting(current.Glob.Key).Wrap(ErrSharedPath)
			}
			current.Glob = NewNode[T](raw)
			current.Glob.param = seg.Name
			current = current.Glob

		case Named:
			if current.Named == nil {
				current.Named = NewNode[T](raw)
				current.Named.param = seg.Name
			} else if current.Named.Key != raw {
				return perrors.New("E101").WithRoute(path).WithExisting(current.Named.Key).Wrap(ErrSharedPath)
			}
			current = current.Named

		default:
			child := current.findChild(raw)
			if child == nil {
				child = current.addChild(raw)
			}
			current = child
		}
	}

	if current.hasValue {
		return perrors.New("E100").WithRoute(path).WithExisting(current.pattern).Wrap(ErrDuplicatePath)
	}
	current.set(path, value)
	return nil
}

// Result is a successful match.
type Result[T any] struct {
	// Value is the value registered for the matched route.
	Value T

	// Params are the dynamic segments bound during the match.
	Params Params

	// Pattern is the registered path that matched (e.g., "/posts/[id]").
	Pattern string
}

// Match resolves a path against the tree.
func (n *Node[T]) Match(path string) (Result[T], bool) {
	return n.MatchSegments(Split(path))
}

// MatchSegments resolves already split (and decoded) segments.
func (n *Node[T]) MatchSegments(segments []string) (Result[T], bool) {
	if len(segments) == 0 {
		segments = []string{""}
	}
	params := make(Params)
	node, ok := n.match(segments, params)
	if !ok {
		return Result[T]{}, false
	}
	return Result[T]{Value: node.value, Params: params, Pattern: node.pattern}, true
}

// match walks the tree trying literal, named, then catch-all children.
// params is shared across the walk; a named binding is undone when its
// subtree fails so a later alternative sees the previous value. A decoded
// segment carrying a slash never binds a named parameter.
func (n *Node[T]) match(segments []string, params Params) (*Node[T], bool) {
	lead, rest := segments[0], segments[1:]

	if child := n.findChild(lead); child != nil {
		if len(rest) > 0 {
			if node, ok := child.match(rest, params); ok {
				return node, true
			}
		} else if child.hasValue {
			return child, true
		}
	}

	if named := n.Named; named != nil && routepath.CheckSegment(lead, false) == nil {
		prev, had := params[named.param]
		params[named.param] = NamedParam(lead)
		if len(rest) > 0 {
			if node, ok := named.match(rest, params); ok {
				return node, true
			}
		} else if named.hasValue {
			return named, true
		}
		if had {
			params[named.param] = prev
		} else {
			delete(params, named.param)
		}
	}

	if glob := n.Glob; glob != nil && glob.hasValue {
		params[glob.param] = CatchAllParam(segments...)
		return glob, true
	}

	return nil, false
}

// Walk calls fn for every registered route in tree order: a node's own
// value, then literal children, the named child, and the catch-all child.
// Walk stops when fn returns false.
func (n *Node[T]) Walk(fn func(pattern string, value T) bool) {
	n.walk(fn)
}

func (n *Node[T]) walk(fn func(string, T) bool) bool {
	if n.hasValue && !fn(n.pattern, n.value) {
		return false
	}
	for _, child := range n.Normal {
		if !child.walk(fn) {
			return false
		}
	}
	if n.Named != nil && !n.Named.walk(fn) {
		return false
	}
	if n.Glob != nil && !n.Glob.walk(fn) {
		return false
	}
	return true
}

// Route is one registration for Build.
type Route[T any] struct {
	Path  string
	Value T
}

// Build constructs a tree from routes. The first conflict aborts the build.
func Build[T any](routes []Route[T]) (*Node[T], error) {
	root := NewNode[T]("")
	for _, r := range routes {
		if err := root.Insert(Split(r.Path), r.Value); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Patterns returns every registered path, sorted.
func (n *Node[T]) Patterns() []string {
	var out []string
	n.Walk(func(pattern string, _ T) bool {
		out = append(out, pattern)
		return true
	})
	sort.Strings(out)
	return out
}
