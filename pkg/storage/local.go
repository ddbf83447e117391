package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// DefaultBufferSize is the copy buffer used when none is configured
const DefaultBufferSize = 65536

// Local is a filesystem-based storage backend
type Local struct {
	fs         billy.Filesystem
	rootPath   string
	bufferSize int
}

// NewLocal creates a backend rooted at an existing directory
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return NewFromFilesystem(osfs.New(absPath), absPath), nil
}

// NewLocalAt creates a backend rooted at rootPath without requiring it to exist yet.
// Directories below it are created on demand through MkdirAll.
func NewLocalAt(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	return NewFromFilesystem(osfs.New(absPath), absPath), nil
}

// NewFromFilesystem wraps an arbitrary billy filesystem.
// rootPath is only used to build the full paths reported in FileInfo.
func NewFromFilesystem(fs billy.Filesystem, rootPath string) *Local {
	return &Local{
		fs:         fs,
		rootPath:   rootPath,
		bufferSize: DefaultBufferSize,
	}
}

// SetBufferSize sets the buffer used by Write
func (l *Local) SetBufferSize(size int) {
	if size > 0 {
		l.bufferSize = size
	}
}

// Root returns the root path of the backend
func (l *Local) Root() string {
	return l.rootPath
}

// Path returns the full path of a path relative to the root
func (l *Local) Path(path string) string {
	return filepath.Join(l.rootPath, path)
}

// List returns all entries below path recursively.
// Directories are visited depth-first and the children of each directory in lexical order,
// so two listings of an unchanged tree are identical.
func (l *Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	var files []FileInfo
	if err := l.walk(ctx, path, &files); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (l *Local) walk(ctx context.Context, dir string, files *[]FileInfo) error {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := l.readDir(dir)
	if err != nil {
		return err
	}

	for _, info := range entries {
		rel := l.join(dir, info.Name())

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := l.fs.Stat(rel)
			if err != nil || target.IsDir() {
				// dangling links and links to directories are not followed
				continue
			}
			info = target
			*files = append(*files, l.toFileInfo(rel, info.Name(), info))
			continue
		}

		*files = append(*files, l.toFileInfo(rel, info.Name(), info))

		if info.IsDir() {
			if err := l.walk(ctx, rel, files); err != nil {
				return err
			}
		}
	}

	return nil
}

// ReadDir returns the direct children of path
func (l *Local) ReadDir(ctx context.Context, path string) ([]FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	entries, err := l.readDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, info := range entries {
		files = append(files, l.toFileInfo(l.join(path, info.Name()), info.Name(), info))
	}
	return files, nil
}

func (l *Local) readDir(path string) ([]os.FileInfo, error) {
	if path == "" {
		path = "."
	}
	entries, err := l.fs.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Write creates or overwrites a file
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error {
	// Ensure parent directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := l.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := l.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	buf := make([]byte, l.bufferSize)
	written, err := io.CopyBuffer(file, reader, buf)
	if err != nil {
		file.Close()
		l.discard(path)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := file.Close(); err != nil {
		l.discard(path)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if written != size {
		l.discard(path)
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	// Preserve metadata if the filesystem supports it
	change, ok := l.fs.(billy.Change)
	if metadata == nil || !ok {
		return nil
	}

	if !metadata.ModTime.IsZero() {
		if err := change.Chtimes(path, metadata.ModTime, metadata.ModTime); err != nil {
			return fmt.Errorf("failed to set modification time: %w", err)
		}
	}

	if metadata.Permissions != 0 {
		if err := change.Chmod(path, os.FileMode(metadata.Permissions)); err != nil {
			return fmt.Errorf("failed to set permissions: %w", err)
		}
	}

	return nil
}

// discard removes a partially written file. The write error is what the
// caller reports, so a failed removal is ignored.
func (l *Local) discard(path string) {
	_ = l.fs.Remove(path)
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := l.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fi := l.toFileInfo(path, info.Name(), info)
	return &fi, nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := l.fs.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func (l *Local) join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

func (l *Local) toFileInfo(rel, name string, info os.FileInfo) FileInfo {
	return FileInfo{
		Path:         l.Path(rel),
		Name:         name,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: rel,
	}
}
