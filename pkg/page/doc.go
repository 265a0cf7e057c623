// Package page applies load results to views.
//
// Present is the single place where a load.Result turns into output:
//
//   - Success renders the route's Component with the result's props, then
//     hands the resolved meta tags to the HeadUpdater.
//   - NotFound renders the Fallback component. No meta is applied.
//   - Redirect calls the Navigator and renders nothing.
//
// A View ties Present to a swr.Store key and a lifetime. Show waits for the
// key's value and renders it; Watch re-renders whenever a fetch applies a
// new value. Once Unmount is called, neither renders again, even if a fetch
// the view started completes later. The completed value stays in the store.
package page
