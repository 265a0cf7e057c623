package router

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path"
	"sort"
	"strings"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/routepath"
	"github.com/vango-go/pageload/pkg/routetree"
)

// ScannedRoute is a route file found by Discover.
type ScannedRoute struct {
	// ID is the raw identifier: the file's slash-separated path in the
	// scanned fs.FS (e.g., "app/routes/posts/[id].go").
	ID string

	// Path is the normalized route path (e.g., "/posts/[id]").
	Path string

	// Params are the dynamic segment names, catch-alls prefixed with "...".
	Params []string

	// HasLoader indicates the file exports a Load function.
	HasLoader bool

	// HasPage indicates the file exports a Page function or variable.
	HasPage bool
}

// Discover lists the route files under root in fsys. Files ending in ext
// are routes; Go test files are skipped. For ".go" files the exported
// declarations are inspected to fill HasLoader and HasPage; other files
// are reported with both set.
func Discover(fsys fs.FS, root, ext string) ([]ScannedRoute, error) {
	var routes []ScannedRoute
	prefix := root
	if root == "." {
		prefix = ""
	}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ext) || strings.HasSuffix(p, "_test.go") {
			return nil
		}

		routePath, err := routepath.Normalize(p, prefix, ext)
		if err != nil {
			return perrors.New("E102").WithRoute(p).Wrap(err)
		}
		route := ScannedRoute{
			ID:        p,
			Path:      routePath,
			Params:    paramNames(routePath),
			HasLoader: true,
			HasPage:   true,
		}
		if ext == ".go" {
			if err := scanGoFile(fsys, p, &route); err != nil {
				return fmt.Errorf("scanning %s: %w", p, err)
			}
		}
		routes = append(routes, route)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}

// scanGoFile parses a route file and records which route exports it has.
func scanGoFile(fsys fs.FS, p string, route *ScannedRoute) error {
	src, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path.Base(p), src, parser.SkipObjectResolution)
	if err != nil {
		return err
	}

	route.HasLoader = false
	route.HasPage = false
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil || d.Name == nil {
				continue
			}
			switch d.Name.Name {
			case "Load":
				route.HasLoader = true
			case "Page":
				route.HasPage = true
			}

		case *ast.GenDecl:
			// var Page = page.ComponentFunc(...)
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, ident := range vs.Names {
					switch ident.Name {
					case "Load":
						route.HasLoader = true
					case "Page":
						route.HasPage = true
					}
				}
			}
		}
	}
	return nil
}

// paramNames lists the dynamic segments of a route path.
func paramNames(routePath string) []string {
	var names []string
	for _, raw := range routetree.Split(routePath) {
		seg, err := routetree.ParseSegment(raw)
		if err != nil {
			continue
		}
		switch seg.Kind {
		case routetree.Named:
			names = append(names, seg.Name)
		case routetree.CatchAll:
			names = append(names, "..."+seg.Name)
		}
	}
	return names
}

// Check builds a route tree from scanned routes and returns the first
// conflict. Routes without a page are reported as invalid.
func Check(routes []ScannedRoute) error {
	sorted := make([]ScannedRoute, len(routes))
	copy(sorted, routes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	root := routetree.NewNode[string]("")
	byPath := make(map[string]string, len(sorted))
	for _, r := range sorted {
		if !r.HasPage {
			return perrors.New("E102").
				WithRoute(r.ID).
				WithDetail("The route file does not export Page.").
				Wrap(routetree.ErrInvalidPath)
		}
		if prev, dup := byPath[r.Path]; dup {
			return perrors.New("E100").WithRoute(r.ID).WithExisting(prev).Wrap(routetree.ErrDuplicatePath)
		}
		byPath[r.Path] = r.ID
		if err := root.Insert(routetree.Split(r.Path), r.ID); err != nil {
			return err
		}
	}
	return nil
}
