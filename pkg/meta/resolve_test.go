package meta

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func contentOf(t *testing.T, tags []Tag, name string) (string, bool) {
	t.Helper()
	for _, tag := range tags {
		if n, _ := tag.Attrs.Get("name"); n == name {
			v, _ := tag.Attrs.Get("content")
			return v, true
		}
	}
	return "", false
}

func TestResolveNil(t *testing.T) {
	if tags := Resolve(nil); len(tags) != 0 {
		t.Errorf("Resolve(nil) = %v, want none", tags)
	}
}

func TestResolveOrder(t *testing.T) {
	m := &Meta{
		Title:       "Home",
		Description: "Welcome",
		Viewport:    &Viewport{Width: "device-width", InitialScale: "1"},
		ThemeColor:  "#000",
		ColorScheme: ColorSchemeDarkLight,
		OpenGraph:   &OpenGraph{Image: "/og.png"},
		Robots:      RobotsList("noindex", "nofollow"),
		Others: []Tag{
			{Name: "link", Attrs: Attrs{{Key: "rel", Value: "canonical"}, {Key: "href", Value: "/"}}},
			{Name: "meta", Attrs: Attrs{{Key: "name", Value: "author"}, {Key: "content", Value: "me"}}},
		},
	}

	want := []Tag{
		named("viewport", "width=device-width, initial-scale=1"),
		{Name: "title", Content: "Home"},
		named("description", "Welcome"),
		named("theme-color", "#000"),
		named("color-scheme", "dark light"),
		named("og:title", "Home"),
		named("og:description", "Welcome"),
		named("og:image", "/og.png"),
		named("robots", "noindex, nofollow"),
		m.Others[0],
		m.Others[1],
	}

	if diff := cmp.Diff(want, Resolve(m)); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveOpenGraphTitle(t *testing.T) {
	got, ok := contentOf(t, Resolve(&Meta{Title: "A", OpenGraph: &OpenGraph{Title: "B"}}), "og:title")
	if !ok || got != "B" {
		t.Errorf("og:title = %q (%v), want B", got, ok)
	}

	got, ok = contentOf(t, Resolve(&Meta{Title: "A"}), "og:title")
	if !ok || got != "A" {
		t.Errorf("og:title fallback = %q (%v), want A", got, ok)
	}

	if _, ok := contentOf(t, Resolve(&Meta{Description: "d"}), "og:title"); ok {
		t.Error("og:title should be absent without any title")
	}
}

func TestResolveOpenGraphDescription(t *testing.T) {
	got, _ := contentOf(t, Resolve(&Meta{Description: "x", OpenGraph: &OpenGraph{Description: "y"}}), "og:description")
	if got != "y" {
		t.Errorf("og:description = %q, want y", got)
	}
	got, _ = contentOf(t, Resolve(&Meta{Description: "x"}), "og:description")
	if got != "x" {
		t.Errorf("og:description fallback = %q, want x", got)
	}
}

func TestResolveRobotsFlags(t *testing.T) {
	m := &Meta{Robots: RobotsFlags(map[string]string{"noindex": "noindex", "follow": ""})}
	got, ok := contentOf(t, Resolve(m), "robots")
	if !ok || got != "noindex" {
		t.Errorf("robots = %q (%v), want exactly noindex", got, ok)
	}
}

func TestRobotsFlagsOrder(t *testing.T) {
	r := RobotsFlags(map[string]string{
		"nocache": "1",
		"custom":  "1",
		"index":   "1",
		"follow":  "1",
		"alpha":   "1",
	})
	if got := r.Content(); got != "index, follow, nocache, alpha, custom" {
		t.Errorf("Content() = %q", got)
	}
}

func TestRobotsEmptyOmitted(t *testing.T) {
	for _, r := range []*Robots{RobotsFlags(map[string]string{"noindex": ""}), RobotsList()} {
		if _, ok := contentOf(t, Resolve(&Meta{Robots: r}), "robots"); ok {
			t.Errorf("robots tag emitted for empty directive %+v", r)
		}
	}
}

func TestRobotsJSON(t *testing.T) {
	var m Meta
	if err := json.Unmarshal([]byte(`{"robots":{"noindex":"noindex","follow":null,"nocache":true,"all":false}}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := m.Robots.Content(); got != "noindex, nocache" {
		t.Errorf("Content() = %q", got)
	}

	if err := json.Unmarshal([]byte(`{"robots":["none"]}`), &m); err != nil {
		t.Fatalf("Unmarshal list: %v", err)
	}
	if m.Robots.Flags != nil || m.Robots.Content() != "none" {
		t.Errorf("list robots = %+v", m.Robots)
	}

	data, err := json.Marshal(Meta{Robots: RobotsList("noarchive")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"robots":["noarchive"]}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestViewportContent(t *testing.T) {
	v := &Viewport{ViewportFit: "cover", Width: "device-width", UserScalable: "no"}
	if got := v.Content(); got != "width=device-width, user-scalable=no, viewport-fit=cover" {
		t.Errorf("Content() = %q", got)
	}
}

func TestAttrsJSONKeepsOrder(t *testing.T) {
	in := `{"tag":"link","attributes":{"rel":"preload","href":"/a.css","as":"style","crossorigin":true,"media":null}}`

	var tag Tag
	if err := json.Unmarshal([]byte(in), &tag); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Attrs{
		{Key: "rel", Value: "preload"},
		{Key: "href", Value: "/a.css"},
		{Key: "as", Value: "style"},
		{Key: "crossorigin", Bare: true},
	}
	if diff := cmp.Diff(want, tag.Attrs); diff != "" {
		t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(tag)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"tag":"link","attributes":{"rel":"preload","href":"/a.css","as":"style","crossorigin":true}}` {
		t.Errorf("Marshal = %s", out)
	}
}
