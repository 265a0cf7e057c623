package routetree

import "strings"

// Kind classifies a route segment.
type Kind int

const (
	Literal  Kind = iota // posts
	Named                // [id]
	CatchAll             // [...rest]
)

func (k Kind) String() string {
	switch k {
	case Named:
		return "named"
	case CatchAll:
		return "catch-all"
	default:
		return "literal"
	}
}

// Segment is one parsed segment of a route path.
type Segment struct {
	// Raw is the segment as written ("posts", "[id]", "[...rest]").
	Raw string

	// Kind is the segment kind.
	Kind Kind

	// Name is the parameter name for Named and CatchAll segments.
	Name string
}

// ParseSegment classifies a raw segment. A segment that opens a bracket
// without closing it is invalid.
func ParseSegment(raw string) (Segment, error) {
	if !strings.HasPrefix(raw, "[") {
		return Segment{Raw: raw, Kind: Literal}, nil
	}
	if !strings.HasSuffix(raw, "]") || len(raw) < 2 {
		return Segment{}, ErrInvalidPath
	}
	seg := Segment{Raw: raw, Kind: Named, Name: raw[1 : len(raw)-1]}
	if name, ok := strings.CutPrefix(seg.Name, "..."); ok {
		seg.Kind, seg.Name = CatchAll, name
	}
	if seg.Name == "" {
		return Segment{}, ErrInvalidPath
	}
	return seg, nil
}

// Split splits a path into segments. The single leading slash is dropped,
// so "/" yields one empty segment and "/posts/42" yields ["posts", "42"].
func Split(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// Join is the inverse of Split.
func Join(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// IsDynamic reports whether a route path contains a named or catch-all
// segment.
func IsDynamic(path string) bool {
	for _, raw := range Split(path) {
		if strings.HasPrefix(raw, "[") {
			return true
		}
	}
	return false
}
