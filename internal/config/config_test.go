package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-go/pageload/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Export.Dir != DefaultExportDir {
		t.Errorf("Export.Dir = %q, want %q", cfg.Export.Dir, DefaultExportDir)
	}
	if !cfg.Cache.RevalidateOnFocus || !cfg.Cache.RevalidateOnReconnect {
		t.Error("revalidation triggers disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); errors.CodeOf(err) != "E120" {
		t.Errorf("missing config: err = %v, want E120", err)
	}

	configJSON := `{
  "name": "blog",
  "server": {"port": 8080, "host": "0.0.0.0", "metrics": true},
  "cache": {"maxEntries": 64, "revalidateOnFocus": false},
  "export": {"paths": ["/posts/1", "/posts/2"]}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, "pageload.json"), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "blog" || cfg.Address() != "0.0.0.0:8080" || !cfg.Server.Metrics {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Cache.MaxEntries != 64 || cfg.Cache.RevalidateOnFocus || !cfg.Cache.RevalidateOnReconnect {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if diff := cmp.Diff([]string{"/posts/1", "/posts/2"}, cfg.Export.Paths); diff != "" {
		t.Errorf("export paths (-want +got):\n%s", diff)
	}
	// Unset sections keep their defaults.
	if cfg.Routes.Extension != ".go" || cfg.Export.Concurrency != 4 || cfg.Server.MetricsPath != "/metrics" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.RoutesPath() != filepath.Join(tmpDir, "app/routes") {
		t.Errorf("RoutesPath = %q", cfg.RoutesPath())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `
routes:
  prefix: pages
  extension: .tsx
server:
  port: 9000
  shutdownTimeout: 5s
  live: true
prefetch:
  rate: 2.5
  burst: 3
export:
  bucket: site-payloads
  prefix: _payload/
`
	if err := os.WriteFile(filepath.Join(tmpDir, "pageload.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Routes.Prefix != "pages" || cfg.Routes.Extension != ".tsx" || cfg.Routes.Dir != "app/routes" {
		t.Errorf("routes = %+v", cfg.Routes)
	}
	if cfg.Server.Port != 9000 || !cfg.Server.Live || cfg.ShutdownTimeout() != 5*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Prefetch.Rate != 2.5 || cfg.Prefetch.Burst != 3 {
		t.Errorf("prefetch = %+v", cfg.Prefetch)
	}
	if cfg.Export.Bucket != "site-payloads" || cfg.Export.Prefix != "_payload/" {
		t.Errorf("export = %+v", cfg.Export)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		detail  string
	}{
		{"bad json", "pageload.json", `{"server": `, "Failed to parse"},
		{"bad yaml", "pageload.yaml", "server: [", "Failed to parse"},
		{"port", "pageload.json", `{"server": {"port": 70000}}`, "Server.Port must be at most 65535"},
		{"duration", "pageload.json", `{"server": {"shutdownTimeout": "soon"}}`, "Server.ShutdownTimeout must be a duration"},
		{"extension", "pageload.json", `{"routes": {"extension": "go"}}`, `Routes.Extension must start with "."`},
		{"export path", "pageload.json", `{"export": {"paths": ["posts/1"]}}`, `Export.Paths[0] must start with "/"`},
		{"concurrency", "pageload.json", `{"export": {"concurrency": 100}}`, "Export.Concurrency must be at most 64"},
		{"negative rate", "pageload.yaml", "prefetch:\n  rate: -1\n", "Prefetch.Rate must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if errors.CodeOf(err) != "E120" {
				t.Fatalf("err = %v, want E120", err)
			}
			perr := errors.FromError(err, "E120")
			if !strings.Contains(perr.Detail, tt.detail) {
				t.Errorf("detail = %q, want it to contain %q", perr.Detail, tt.detail)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"pageload.json", "pageload.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Name = "shop"
			cfg.Export.Paths = []string{"/a"}
			if err := cfg.SaveTo(path); err != nil {
				t.Fatal(err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q", cfg.Path())
			}

			got, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(cfg, got, cmpopts.IgnoreUnexported(Config{})); diff != "" {
				t.Errorf("round trip (-saved +loaded):\n%s", diff)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save without a path succeeded")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pageload.yml"), []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "app", "routes")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot = %q, want %q", got, want)
	}
	if !Exists(root) || Exists(nested) {
		t.Error("Exists reports the wrong directory")
	}
}
