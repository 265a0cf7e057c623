package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink stores exported payloads.
type Sink interface {
	// Put stores data under name, a slash-separated relative path.
	Put(ctx context.Context, name string, data []byte) error
}

// ObjectName returns the name a payload for path is stored under:
// "/" becomes "index.json" and "/posts/7" becomes "posts/7.json".
func ObjectName(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		p = "index"
	}
	return p + ".json"
}

// DirSink writes payloads below a directory.
type DirSink struct {
	Dir string
}

// Put writes data to Dir/name, creating parent directories.
func (d DirSink) Put(_ context.Context, name string, data []byte) error {
	target := filepath.Join(d.Dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(d.Dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("export: %q escapes %s", name, d.Dir)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// S3API is the subset of *s3.Client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes payloads to an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	sink := &export.S3Sink{Client: s3.NewFromConfig(cfg), Bucket: "my-site", Prefix: "_payload/"}
type S3Sink struct {
	Client S3API
	Bucket string

	// Prefix is prepended to every object key (e.g., "_payload/").
	Prefix string

	// CacheControl is set on every object when not empty.
	CacheControl string
}

// Put uploads data as Prefix+name.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.Prefix + name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	}
	if s.CacheControl != "" {
		in.CacheControl = aws.String(s.CacheControl)
	}
	if _, err := s.Client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}
