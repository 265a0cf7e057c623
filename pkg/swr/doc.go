// Package swr provides a stale-while-revalidate store keyed by string.
//
// Each key moves through these states:
//
//	Empty → Fetching → Fresh → Fetching → Fresh → …
//	                 ↘ Failed (last value, if any, still readable)
//
// Get returns a held value immediately, even while a refresh is running,
// and blocks only when the key has never held a value. At most one fetch
// runs per key: revalidation requests that arrive while a fetch is in
// flight are ignored. ForceRevalidate is the exception. It cancels the
// running fetch and starts a new one, and the superseded fetch's result is
// discarded when it eventually completes.
//
// Every fetch takes a sequence number from a store-wide counter. A
// completion is applied only if it belongs to the key's current fetch and
// is newer than the last applied one, so a slow earlier fetch never
// overwrites a faster later one.
//
// The store is meant to be created once per browsing session and passed
// to the views that read from it.
package swr
