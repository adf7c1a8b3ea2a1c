// Package storage provides report sinks and input sources.
// Supports multiple backends: file, stdout, memory, GCS.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"sales-enrich/core/output"
	"sales-enrich/internal/config"
	"sales-enrich/internal/errors"
)

// FileSink writes the report to a local file.
// The parent directory is created on Open and an existing file is truncated.
type FileSink struct {
	path string
}

// NewFileSink creates a file sink
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Open(ctx context.Context) (io.WriteCloser, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.IO("failed to create output directory", err).WithContext("path", dir)
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, errors.IO("failed to create output file", err).WithContext("path", s.path)
	}
	return f, nil
}

func (s *FileSink) Location() string {
	return s.path
}

// StdoutSink writes the report to a stream, os.Stdout by default
type StdoutSink struct {
	w io.Writer
}

// NewStdoutSink creates a stdout sink; a nil w means os.Stdout
func NewStdoutSink(w io.Writer) *StdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutSink{w: w}
}

func (s *StdoutSink) Open(ctx context.Context) (io.WriteCloser, error) {
	return nopCloser{s.w}, nil
}

func (s *StdoutSink) Location() string {
	return "stdout"
}

// MemorySink keeps the last report in memory (for testing)
type MemorySink struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	opens int
}

// NewMemorySink creates a memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Open(ctx context.Context) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Reset()
	s.opens++
	return nopCloser{lockedWriter{s}}, nil
}

func (s *MemorySink) Location() string {
	return "memory"
}

// String returns the report written by the last Open
func (s *MemorySink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Opens returns how many times the sink was opened
func (s *MemorySink) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

type lockedWriter struct {
	s *MemorySink
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.buf.Write(p)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// GCSSink uploads the report to a Cloud Storage object.
// Without client options it uses Application Default Credentials.
type GCSSink struct {
	bucket      string
	object      string
	contentType string
	opts        []option.ClientOption
}

// NewGCSSink creates a GCS sink; opts are passed to the storage client
func NewGCSSink(bucket, object string, opts ...option.ClientOption) *GCSSink {
	return &GCSSink{
		bucket:      bucket,
		object:      object,
		contentType: "text/plain; charset=utf-8",
		opts:        opts,
	}
}

// Open creates a storage client and an object writer; the object is only
// finalized when the returned writer is closed.
func (s *GCSSink) Open(ctx context.Context) (io.WriteCloser, error) {
	client, err := gcs.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, errors.IO("create storage client", err)
	}

	w := client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = s.contentType
	return &gcsWriter{w: w, client: client, location: s.Location()}, nil
}

func (s *GCSSink) Location() string {
	return "gs://" + s.bucket + "/" + s.object
}

type gcsWriter struct {
	w        *gcs.Writer
	client   *gcs.Client
	location string
}

func (g *gcsWriter) Write(p []byte) (int, error) {
	return g.w.Write(p)
}

func (g *gcsWriter) Close() error {
	defer g.client.Close()
	if err := g.w.Close(); err != nil {
		return errors.IO("finalize upload", err).WithContext("location", g.location)
	}
	return nil
}

// SinkFactory creates sinks by backend type
func SinkFactory(cfg config.OutputConfig) (output.Sink, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		path := cfg.Path
		if path == "" {
			path = config.DefaultOutputPath
		}
		return NewFileSink(path), nil
	case config.BackendStdout:
		return NewStdoutSink(nil), nil
	case config.BackendMemory:
		return NewMemorySink(), nil
	case config.BackendGCS:
		if cfg.Bucket == "" || cfg.Object == "" {
			return nil, errors.Config("gcs backend requires bucket and object")
		}
		return NewGCSSink(cfg.Bucket, cfg.Object), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported backend: %s", cfg.Backend)
	}
}

// OpenInput opens a transactions file. gs://bucket/object URIs are read from
// Cloud Storage using opts, anything else from the local filesystem.
func OpenInput(ctx context.Context, path string, opts ...option.ClientOption) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "gs://") {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.IO("failed to open sales data", err).WithContext("path", path)
		}
		return f, nil
	}

	bucket, object, err := ParseGCSURI(path)
	if err != nil {
		return nil, err
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.IO("create storage client", err)
	}
	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, errors.IO(fmt.Sprintf("reading object %s/%s", bucket, object), err)
	}
	return &gcsReader{Reader: rc, client: client}, nil
}

type gcsReader struct {
	*gcs.Reader
	client *gcs.Client
}

func (g *gcsReader) Close() error {
	defer g.client.Close()
	return g.Reader.Close()
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object
func ParseGCSURI(uri string) (string, string, error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", errors.Newf(errors.TypeInput, "invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Newf(errors.TypeInput, "invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Ensure interfaces are implemented
var (
	_ output.Sink = (*FileSink)(nil)
	_ output.Sink = (*StdoutSink)(nil)
	_ output.Sink = (*MemorySink)(nil)
	_ output.Sink = (*GCSSink)(nil)
)
