// Package source resolves the DNA file handle given by the user into a readable file.
//
// Supported handles:
//   - local paths: ./genome.txt, /data/genome_v5.csv
//   - S3 objects: s3://bucket/path/genome.txt
//   - Azure blobs: https://<account>.blob.core.windows.net/<container>/<blob>[?<sas>]
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/genefit/genefit-link/internal/pathutil"
)

// Kind is the storage backend a handle points at.
type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
	KindAzure Kind = "azure"
)

// File is a DNA export that can be streamed into a multipart upload.
type File interface {
	// Name is the base file name sent to the API.
	Name() string
	// Size in bytes, or -1 when unknown.
	Size() int64
	// Open returns a fresh reader positioned at the start of the file.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Handle is a parsed file handle.
type Handle struct {
	Raw        string
	Kind       Kind
	Bucket     string // s3 bucket or azure container
	Key        string // s3 key or blob name
	ServiceURL string // azure account URL, SAS query preserved
}

// ParseHandle classifies a handle string. It does not touch the network or disk.
func ParseHandle(raw string) (Handle, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Handle{}, fmt.Errorf("empty file handle")
	}

	switch {
	case strings.HasPrefix(raw, "s3://"):
		rest := strings.TrimPrefix(raw, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return Handle{}, fmt.Errorf("invalid s3 handle %q (expected s3://bucket/key)", raw)
		}
		return Handle{Raw: raw, Kind: KindS3, Bucket: bucket, Key: key}, nil

	case strings.HasPrefix(raw, "https://") && strings.Contains(raw, ".blob.core.windows.net"):
		u, err := url.Parse(raw)
		if err != nil {
			return Handle{}, fmt.Errorf("invalid azure blob url: %w", err)
		}
		container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if !ok || container == "" || blob == "" {
			return Handle{}, fmt.Errorf("invalid azure blob url %q (expected /<container>/<blob>)", raw)
		}
		service := *u
		service.Path = "/"
		return Handle{Raw: raw, Kind: KindAzure, Bucket: container, Key: blob, ServiceURL: service.String()}, nil

	case strings.Contains(raw, "://"):
		return Handle{}, fmt.Errorf("unsupported file handle scheme in %q", raw)

	default:
		return Handle{Raw: raw, Kind: KindLocal, Key: raw}, nil
	}
}

// BaseName returns the file name portion of the handle.
func (h Handle) BaseName() string {
	if h.Kind == KindLocal {
		return filepath.Base(h.Key)
	}
	return path.Base(h.Key)
}

// localFile is a file on disk.
type localFile struct {
	path string
	size int64
}

// OpenLocal stats a local file and returns it as a File.
func OpenLocal(p string) (File, error) {
	p, err := pathutil.ResolveAbsolutePath(p)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return &localFile{path: p, size: info.Size()}, nil
}

func (f *localFile) Name() string { return filepath.Base(f.path) }
func (f *localFile) Size() int64  { return f.size }

func (f *localFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// bytesFile is an in-memory file.
type bytesFile struct {
	name string
	data []byte
}

// NewBytesFile wraps data as a File. Used for piped input and tests.
func NewBytesFile(name string, data []byte) File {
	return &bytesFile{name: name, data: data}
}

func (f *bytesFile) Name() string { return f.name }
func (f *bytesFile) Size() int64  { return int64(len(f.data)) }

func (f *bytesFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(f.data))), nil
}
