// Package live pushes cache invalidations from the server to connected
// clients.
//
// The server side is a Hub: an http.Handler that upgrades listeners to a
// WebSocket and broadcasts the keys passed to Invalidate.
//
//	hub := live.NewHub(nil)
//	mux.Handle("/_pageload/live", hub)
//	...
//	hub.Invalidate("/posts/7?")
//
// The client side is a Listener. It marks each received key stale in the
// cache, which revalidates the key at once if it is being shown, and
// reports a Reconnect when it re-establishes a dropped connection.
package live

// Message is the frame sent to listeners.
type Message struct {
	// Type is the message type. Only "invalidate" is defined.
	Type string `json:"type"`

	// Keys are the invalidated cache keys.
	Keys []string `json:"keys"`
}

// TypeInvalidate marks a Message carrying invalidated keys.
const TypeInvalidate = "invalidate"
