package models

import (
	"time"
)

// FileEntry represents a file discovered while scanning a source tree
type FileEntry struct {
	// Path is the full path on the filesystem
	Path string

	// RelativePath is the path relative to the scanned root
	RelativePath string

	// Name is the base name (final path component, extension included)
	Name string

	// Size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Permissions are the file mode bits
	Permissions uint32
}
