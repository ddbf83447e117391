package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Name         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Permissions  uint32
	RelativePath string
}

// Backend defines the interface for storage operations
// The local implementation sits on a go-billy filesystem so tests can run in memory
type Backend interface {
	// List returns every entry below path recursively, depth-first, in lexical order
	List(ctx context.Context, path string) ([]FileInfo, error)

	// ReadDir returns the direct children of path in lexical order
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file with the given content
	// If metadata is provided, attempts to preserve timestamps and permissions
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Path returns the full filesystem path of a relative path
	Path(path string) string

	// Close releases any resources held by the backend
	Close() error
}
