package meta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Meta is the head metadata a loader attaches to a successful result.
type Meta struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Viewport    *Viewport  `json:"viewport,omitempty"`
	ThemeColor  string     `json:"themeColor,omitempty"`
	ColorScheme string     `json:"colorScheme,omitempty"`
	OpenGraph   *OpenGraph `json:"openGraph,omitempty"`
	Robots      *Robots    `json:"robots,omitempty"`
	Others      []Tag      `json:"others,omitempty"`
}

// Color schemes accepted by the color-scheme meta tag.
const (
	ColorSchemeNormal    = "normal"
	ColorSchemeLight     = "light"
	ColorSchemeDark      = "dark"
	ColorSchemeDarkLight = "dark light"
	ColorSchemeLightDark = "light dark"
	ColorSchemeOnlyLight = "only light"
)

// Viewport holds the viewport sub-options. Fields are flattened into one
// content string in declaration order.
type Viewport struct {
	Width        string `json:"width,omitempty"`
	Height       string `json:"height,omitempty"`
	InitialScale string `json:"initial-scale,omitempty"`
	MaximumScale string `json:"maximum-scale,omitempty"`
	MinimumScale string `json:"minimum-scale,omitempty"`
	UserScalable string `json:"user-scalable,omitempty"`
	ViewportFit  string `json:"viewport-fit,omitempty"`
}

// Content returns the viewport options as "key=value" pairs joined by ", ".
func (v *Viewport) Content() string {
	pairs := []struct{ key, value string }{
		{"width", v.Width},
		{"height", v.Height},
		{"initial-scale", v.InitialScale},
		{"maximum-scale", v.MaximumScale},
		{"minimum-scale", v.MinimumScale},
		{"user-scalable", v.UserScalable},
		{"viewport-fit", v.ViewportFit},
	}
	flags := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			flags = append(flags, p.key+"="+p.value)
		}
	}
	return strings.Join(flags, ", ")
}

// OpenGraph holds Open Graph overrides.
type OpenGraph struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Robots directive values, in the order flag mappings are emitted.
var robotsOrder = []string{
	"index", "noindex", "follow", "nofollow", "all",
	"none", "noarchive", "nosnippet", "noimageindex", "nocache",
}

// Robots is either an explicit directive list or a flag mapping. A flag is
// included when its value is non-empty. The JSON form is an array or an
// object respectively.
type Robots struct {
	List  []string
	Flags map[string]string
}

// RobotsList returns robots directives given as an explicit list.
func RobotsList(directives ...string) *Robots {
	return &Robots{List: directives}
}

// RobotsFlags returns robots directives given as a flag mapping.
func RobotsFlags(flags map[string]string) *Robots {
	return &Robots{Flags: flags}
}

// Content returns the robots directives joined by ", ".
func (r *Robots) Content() string {
	if r.Flags == nil {
		return strings.Join(r.List, ", ")
	}

	flags := make([]string, 0, len(r.Flags))
	known := make(map[string]bool, len(robotsOrder))
	for _, key := range robotsOrder {
		known[key] = true
		if r.Flags[key] != "" {
			flags = append(flags, key)
		}
	}
	var extra []string
	for key, value := range r.Flags {
		if !known[key] && value != "" {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return strings.Join(append(flags, extra...), ", ")
}

// MarshalJSON implements json.Marshaler.
func (r Robots) MarshalJSON() ([]byte, error) {
	if r.Flags != nil {
		return json.Marshal(r.Flags)
	}
	if r.List == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.List)
}

// UnmarshalJSON implements json.Unmarshaler. Flag values may be strings,
// booleans or null; false and null count as unset.
func (r *Robots) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		r.Flags = nil
		return json.Unmarshal(data, &r.List)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("robots: %w", err)
	}
	r.List = nil
	r.Flags = make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			r.Flags[key] = v
		case bool:
			if v {
				r.Flags[key] = key
			}
		}
	}
	return nil
}
