package routepath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalizePath(t *testing.T) {
	tests := []struct {
		input     string
		wantPath  string
		wantQuery string
		wantErr   error
	}{
		{"", "/", "", nil},
		{"/", "/", "", nil},
		{"/about/", "/about", "", nil},
		{"//blog//post", "/blog/post", "", nil},
		{"/blog/./post", "/blog/post", "", nil},
		{"/blog/../other", "/other", "", nil},
		{"/search?q=a&b=1", "/search", "q=a&b=1", nil},
		{"about", "/about", "", nil},
		{"/../secret", "", "", ErrPathEscapesRoot},
		{"/a\\b", "", "", ErrBackslashInPath},
		{"/a%00b", "", "", ErrNullByteInPath},
		{"/a%GG", "", "", ErrInvalidPercentEscape},
		{"/a%2", "", "", ErrInvalidPercentEscape},
	}

	for _, tt := range tests {
		got, err := CanonicalizePath(tt.input)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanonicalizePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("CanonicalizePath(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got.Path != tt.wantPath || got.Query != tt.wantQuery {
			t.Errorf("CanonicalizePath(%q) = %q ? %q, want %q ? %q", tt.input, got.Path, got.Query, tt.wantPath, tt.wantQuery)
		}
	}
}

func TestCanonicalizeChanged(t *testing.T) {
	res, _ := CanonicalizePath("/posts/1")
	if res.Changed {
		t.Error("canonical input should not report Changed")
	}
	res, _ = CanonicalizePath("/posts/1/")
	if !res.Changed {
		t.Error("trailing slash removal should report Changed")
	}
}

func TestDecodePathSegments(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{""}},
		{"/posts/hello%20world", []string{"posts", "hello world"}},
		{"/files/a%2Fb", []string{"files", "a/b"}},
	}
	for _, tt := range tests {
		got, err := DecodePathSegments(tt.path)
		if err != nil {
			t.Errorf("DecodePathSegments(%q) error: %v", tt.path, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("DecodePathSegments(%q) mismatch (-want +got):\n%s", tt.path, diff)
		}
	}
}

func TestCheckSegment(t *testing.T) {
	if err := CheckSegment("a/b", false); !errors.Is(err, ErrEncodedSlashInSegment) {
		t.Errorf("named value with slash: err = %v", err)
	}
	if err := CheckSegment("a/b", true); err != nil {
		t.Errorf("catch-all value with slash: err = %v", err)
	}
}

func TestCanonicalizeAndValidateNavPath(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"/posts/1/", "/posts/1", false},
		{"/search?q=x", "/search?q=x", false},
		{"https://evil.example/", "", true},
		{"//evil.example/", "", true},
		{"relative", "", true},
	}
	for _, tt := range tests {
		got, err := CanonicalizeAndValidateNavPath(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("CanonicalizeAndValidateNavPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CanonicalizeAndValidateNavPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
