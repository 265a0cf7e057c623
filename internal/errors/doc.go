// Package errors provides structured, coded errors for pageload.
//
// Every failure that reaches a developer's terminal carries a code, a
// category, a short message, and optionally the route identifier that
// caused it:
//
//	err := errors.New("E100").
//	    WithRoute("app/routes/posts/[id].go").
//	    WithSuggestion("Remove one of the two files")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E100: Duplicate router path
//	//
//	//   app/routes/posts/[id].go
//	//
//	//   Hint: Remove one of the two files
//
// # Error Categories
//
//   - route: route table construction (duplicate, shared or invalid paths)
//   - load: loader invocation and payload decoding
//   - navigation: prefetch and client navigation diagnostics
//   - config: configuration loading and validation
//   - export: static payload export
//
// Errors wrap an underlying cause so errors.Is and errors.As keep working
// against package sentinels such as routetree.ErrDuplicatePath.
package errors
