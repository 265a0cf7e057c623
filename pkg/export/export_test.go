package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/router"
	"github.com/vango-go/pageload/pkg/routetree"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var nopPage = page.ComponentFunc(func(context.Context, io.Writer, page.Props) error { return nil })

func testRouter(t *testing.T) *router.Router {
	t.Helper()
	rt, err := router.New(map[string]router.Entry{
		"app/routes/index.go": {Page: nopPage},
		"app/routes/about.go": {
			Page: nopPage,
			Load: func(context.Context, *http.Request, routetree.Params) (load.Result, error) {
				return load.Success{Props: map[string]string{"team": "core"}}, nil
			},
		},
		"app/routes/old.go": {
			Page: nopPage,
			Load: func(context.Context, *http.Request, routetree.Params) (load.Result, error) {
				return load.Redirect{To: "/about"}, nil
			},
		},
		"app/routes/broken.go": {
			Page: nopPage,
			Load: func(context.Context, *http.Request, routetree.Params) (load.Result, error) {
				return nil, errors.New("backend down")
			},
		},
		"app/routes/posts/[id].go": {
			Page: nopPage,
			Load: func(_ context.Context, _ *http.Request, p routetree.Params) (load.Result, error) {
				return load.Success{Props: p.Get("id")}, nil
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return rt
}

func TestObjectName(t *testing.T) {
	tests := map[string]string{
		"/":        "index.json",
		"":         "index.json",
		"/about":   "about.json",
		"/posts/7": "posts/7.json",
		"/docs/a/": "docs/a.json",
	}
	for in, want := range tests {
		if got := ObjectName(in); got != want {
			t.Errorf("ObjectName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStaticPaths(t *testing.T) {
	got := StaticPaths(testRouter(t).Routes())
	want := []string{"/", "/about", "/broken", "/old"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StaticPaths (-want +got):\n%s", diff)
	}
}

func TestExportToDir(t *testing.T) {
	dir := t.TempDir()
	e := New(testRouter(t), DirSink{Dir: dir}, WithConcurrency(2), WithLogger(discard))

	report, err := e.Export(context.Background(), []string{"/", "/about", "/old", "/posts/7"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/", "/about", "/old", "/posts/7"}, report.Paths()); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}

	files := map[string]load.Result{
		"index.json":   load.Success{},
		"about.json":   load.Success{Props: map[string]string{"team": "core"}},
		"old.json":     load.Redirect{To: "/about"},
		"posts/7.json": load.Success{Props: "7"},
	}
	for name, res := range files {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatal(err)
		}
		want, err := load.Encode(res)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(string(want), string(got)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", name, diff)
		}
	}
}

func TestExportCollectsFailures(t *testing.T) {
	e := New(testRouter(t), DirSink{Dir: t.TempDir()}, WithLogger(discard))

	report, err := e.Export(context.Background(), []string{"/about", "/broken", "/nowhere/at/all"})
	if perrors.CodeOf(err) != "E130" {
		t.Fatalf("err = %v, want E130", err)
	}
	if _, ok := report.Written["/about"]; !ok {
		t.Error("healthy path not written")
	}
	if got := perrors.CodeOf(report.Failed["/broken"]); got != "E110" {
		t.Errorf("/broken code = %q", got)
	}
	if got := perrors.CodeOf(report.Failed["/nowhere/at/all"]); got != "E103" {
		t.Errorf("unmatched code = %q", got)
	}
}

func TestDirSinkRejectsEscape(t *testing.T) {
	if err := (DirSink{Dir: t.TempDir()}).Put(context.Background(), "../outside.json", []byte("{}")); err == nil {
		t.Error("Put outside the directory succeeded")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	fail    bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string]string)
		f.types = make(map[string]string)
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestExportToS3(t *testing.T) {
	client := &fakeS3{}
	sink := &S3Sink{Client: client, Bucket: "site", Prefix: "_payload/"}
	e := New(testRouter(t), sink, WithLogger(discard))

	if _, err := e.Export(context.Background(), []string{"/about"}); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"site/_payload/about.json": `{"props":{"team":"core"}}`}
	if diff := cmp.Diff(want, client.objects); diff != "" {
		t.Errorf("objects (-want +got):\n%s", diff)
	}
	if ct := client.types["site/_payload/about.json"]; ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	client.fail = true
	_, err := e.Export(context.Background(), []string{"/about"})
	if perrors.CodeOf(err) != "E130" {
		t.Errorf("err = %v, want E130", err)
	}
}
