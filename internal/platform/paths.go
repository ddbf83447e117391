package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// DesktopDir returns the current user's desktop directory.
// XDG_DESKTOP_DIR wins when set, otherwise it is Desktop below the home directory.
func DesktopDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_DESKTOP_DIR")); dir != "" {
		return NormalizePath(dir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, "Desktop"), nil
}

// DefaultLogPath returns the log file used when logging is enabled without a path
func DefaultLogPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "folderextractor", "folderextractor.log"), nil
}

// ValidateSource checks that path names an existing directory
func ValidateSource(path string) error {
	if strings.TrimSpace(path) == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PathError{Path: path, Message: "directory does not exist"}
		}
		return &PathError{Path: path, Message: err.Error()}
	}
	if !info.IsDir() {
		return &PathError{Path: path, Message: "not a directory"}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
