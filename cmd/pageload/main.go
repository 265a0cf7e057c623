// Command pageload serves a small example site.
//
//	pageload serve
//	pageload routes
//	pageload match /posts/2
//	pageload export --out dist/_payload
package main

import (
	"fmt"
	"os"

	"github.com/vango-go/pageload"
)

func main() {
	app, err := pageload.New(pageload.Options{
		Routes:   routes(),
		NotFound: notFoundPage,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
	os.Exit(app.Execute())
}
