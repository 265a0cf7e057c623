package meta

// Resolve derives the ordered head tags for m. A nil Meta yields no tags.
func Resolve(m *Meta) []Tag {
	if m == nil {
		return nil
	}

	var tags []Tag

	if m.Viewport != nil {
		tags = append(tags, named("viewport", m.Viewport.Content()))
	}
	if m.Title != "" {
		tags = append(tags, Tag{Name: "title", Content: m.Title})
	}
	if m.Description != "" {
		tags = append(tags, named("description", m.Description))
	}
	if m.ThemeColor != "" {
		tags = append(tags, named("theme-color", m.ThemeColor))
	}
	if m.ColorScheme != "" {
		tags = append(tags, named("color-scheme", m.ColorScheme))
	}

	og := m.OpenGraph
	if og == nil {
		og = &OpenGraph{}
	}
	if title := firstNonEmpty(og.Title, m.Title); title != "" {
		tags = append(tags, named("og:title", title))
	}
	if desc := firstNonEmpty(og.Description, m.Description); desc != "" {
		tags = append(tags, named("og:description", desc))
	}
	if og.URL != "" {
		tags = append(tags, named("og:url", og.URL))
	}
	if og.Image != "" {
		tags = append(tags, named("og:image", og.Image))
	}

	// An empty directive is dropped rather than written as content="".
	if m.Robots != nil {
		if content := m.Robots.Content(); content != "" {
			tags = append(tags, named("robots", content))
		}
	}

	return append(tags, m.Others...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
