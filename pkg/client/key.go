package client

import (
	"net/url"

	"github.com/vango-go/pageload/pkg/load"
)

// Key returns the cache key for u: the escaped path, "?", and the query
// with its keys sorted. The payload marker never takes part in a key, so
// a page URL and its payload URL share one key.
func Key(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return path + "?" + load.WithoutMarker(u.Query()).Encode()
}

// KeyFor parses href and returns its cache key.
func KeyFor(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return Key(u), nil
}

// PayloadURL returns the URL of the JSON payload for key, relative to the
// site root.
func PayloadURL(key string) (*url.URL, error) {
	u, err := url.Parse(key)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(load.Marker, "")
	u.RawQuery = q.Encode()
	return u, nil
}
