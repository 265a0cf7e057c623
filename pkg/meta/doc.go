// Package meta describes document-head metadata returned by loaders and
// resolves it into an ordered list of head tags.
//
// Resolve emits tags in a fixed order that callers may rely on:
//
//  1. viewport
//  2. title
//  3. description
//  4. theme-color, color-scheme
//  5. og:title, og:description (falling back to title/description), og:url, og:image
//  6. robots
//  7. Others, verbatim and in order
package meta
