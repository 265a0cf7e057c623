// Package navigate drives client-side navigation and prefetching.
//
// A Controller owns the session's swr store, the route table and a
// History. It mounts one page.View at a time on a Screen:
//
//	c := navigate.New(rt, store, screen, navigate.WithOrigin(origin))
//	c.Start(ctx, "/posts/42", serverResult) // seeds the store, no fetch
//	c.Click(ctx, "/posts/43", navigate.Modifiers{})
//
// Link interception follows the browser's rules: links with a modifier
// key, a non-primary button, a target other than _self or a foreign
// origin are left to the browser.
//
// Prefetching is best effort. LinkVisible warms links as they scroll into
// view, limited by a token bucket; LinkHovered warms with priority, which
// also refreshes keys that already hold a value. Failures are reported to
// the OnError callback and never affect navigation.
package navigate
