package pageload

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/client"
	"github.com/vango-go/pageload/pkg/export"
	"github.com/vango-go/pageload/pkg/live"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/router"
	"github.com/vango-go/pageload/pkg/server"
	"github.com/vango-go/pageload/pkg/swr"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Command returns the command line interface of the App.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "pageload",
		Short: "Serve, inspect and export file-routed pages",
		Long: `pageload serves file-routed pages and their load payloads.

Every route answers both a full HTML document and, with the ".get"
marker in its query, the JSON payload a client navigation fetches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		a.serveCmd(),
		a.routesCmd(),
		a.matchCmd(),
		a.exportCmd(),
		a.fetchCmd(),
		versionCmd(),
	)

	return root
}

// Execute runs the command line with os.Args and returns the exit code.
func (a *App) Execute() int {
	if err := a.Command().Execute(); err != nil {
		perrors.Fprint(os.Stderr, err)
		return 1
	}
	return 0
}

// =============================================================================
// pageload serve
// =============================================================================

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server on the configured address.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.server.Config().Address = addr
			}
			info(cmd.OutOrStdout(), "Serving %d routes on %s", len(a.router.Routes()), a.server.Config().Address)
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

// =============================================================================
// pageload routes
// =============================================================================

func (a *App) routesCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List routes",
		Long: `List the registered routes.

With --dir, scan a routes directory instead and check it for
conflicting or invalid route files.

Examples:
  pageload routes
  pageload routes --dir app/routes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if dir != "" {
				return a.scanRoutes(out, dir)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tLOADER\tID")
			for _, r := range a.router.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, yesNo(r.HasLoader), r.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Routes directory to scan")

	return cmd
}

func (a *App) scanRoutes(out io.Writer, dir string) error {
	info(out, "Scanning %s...", dir)

	routes, err := router.Discover(os.DirFS(dir), ".", a.config.Routes.Extension)
	if err != nil {
		return err
	}
	if err := router.Check(routes); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tLOADER\tPARAMS\tFILE")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Path, yesNo(r.HasLoader), strings.Join(r.Params, ","), r.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	success(out, "Found %d routes, no conflicts", len(routes))
	return nil
}

// =============================================================================
// pageload match
// =============================================================================

func (a *App) matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <path>",
		Short: "Show the route a path resolves to",
		Long: `Resolve a URL path against the route table and print the
matched pattern and parameters.

Examples:
  pageload match /posts/7
  pageload match /docs/guide/install`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return perrors.New("E102").WithRoute(args[0]).Wrap(err)
			}
			m, ok := a.router.Resolve(u)
			if !ok {
				return perrors.New("E103").WithRoute(u.Path)
			}

			out := cmd.OutOrStdout()
			success(out, "%s", m.Pattern)
			info(out, "Loader: %s", yesNo(m.Load != nil))

			names := make([]string, 0, len(m.Params))
			for name := range m.Params {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				info(out, "%s = %s", name, m.Params[name].String())
			}
			return nil
		},
	}
}

// =============================================================================
// pageload export
// =============================================================================

func (a *App) exportCmd() *cobra.Command {
	var (
		outDir string
		bucket string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the payloads of static routes",
		Long: `Run the loader of every static route, plus the paths listed in
the export config, and write each payload as JSON.

Payloads go to the export directory, or to an S3 bucket when a bucket
is configured. AWS credentials come from the default chain.

Examples:
  pageload export
  pageload export --out dist/_payload
  pageload export --bucket my-site`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg := a.config.Export
			if bucket == "" {
				bucket = cfg.Bucket
			}

			var sink export.Sink
			if bucket != "" {
				awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
				if err != nil {
					return perrors.New("E130").WithDetail("Failed to load AWS configuration.").Wrap(err)
				}
				sink = &export.S3Sink{
					Client: s3.NewFromConfig(awsCfg),
					Bucket: bucket,
					Prefix: cfg.Prefix,
				}
				info(out, "Exporting to s3://%s/%s", bucket, cfg.Prefix)
			} else {
				if outDir == "" {
					outDir = a.config.ExportPath()
				}
				sink = export.DirSink{Dir: outDir}
				info(out, "Exporting to %s", outDir)
			}

			report, err := a.Export(ctx, sink)
			for _, p := range report.Paths() {
				info(out, "%s → %s", p, report.Written[p])
			}
			for p, ferr := range report.Failed {
				warn(out, "%s: %v", p, ferr)
			}
			if err != nil {
				return err
			}
			success(out, "Exported %d payloads", len(report.Written))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (default from config)")

	return cmd
}

// =============================================================================
// pageload fetch
// =============================================================================

func (a *App) fetchCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a payload from a running server",
		Long: `Fetch the load payload of a page from a running pageload server
and print it.

With --watch, keep the payload cached and print it again every time the
server invalidates it.

Examples:
  pageload fetch http://localhost:3000/posts/7
  pageload fetch --watch http://localhost:3000/posts/7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return err
			}
			if u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("fetch: %q is not an absolute URL", args[0])
			}
			c, err := client.New(u.Scheme+"://"+u.Host, client.WithLogger(a.logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			key := client.Key(u)
			if !watch {
				res, err := c.Fetch(cmd.Context(), key)
				if err != nil {
					return err
				}
				return printResult(out, res)
			}
			return a.watch(cmd.Context(), out, c, u, key)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Print the payload again on every invalidation")

	return cmd
}

// watch prints the payload of key whenever the live hub invalidates it.
func (a *App) watch(ctx context.Context, out io.Writer, c *client.Client, u *url.URL, key string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := swr.New(c.Fetch,
		swr.WithContext(ctx),
		swr.WithMaxEntries(a.config.Cache.MaxEntries),
		swr.WithRevalidateOnReconnect(a.config.Cache.RevalidateOnReconnect),
		swr.WithLogger(a.logger),
	)
	defer store.Close()

	store.SetActive(key)
	cancel := store.Subscribe(key, func(snap swr.Snapshot[load.Result]) {
		switch {
		case snap.State == swr.Fetching:
		case snap.Err != nil:
			warn(out, "%s: %v", key, snap.Err)
		case snap.HasValue:
			_ = printResult(out, snap.Value)
		}
	})
	defer cancel()

	if _, err := store.Get(ctx, key); err != nil {
		return err
	}

	ws := *u
	ws.Scheme = "ws"
	if u.Scheme == "https" {
		ws.Scheme = "wss"
	}
	ws.Path = server.DefaultConfig().LivePath
	ws.RawQuery = ""

	info(out, "Watching %s", key)
	return live.NewListener(ws.String(), store, live.WithListenerLogger(a.logger)).Run(ctx)
}

func printResult(out io.Writer, res load.Result) error {
	data, err := load.Encode(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

// =============================================================================
// pageload version
// =============================================================================

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", date)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintln(out)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// =============================================================================
// Output helpers
// =============================================================================

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
