package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/models"
)

// Formatter defines the interface for output formatting
// Implementations include human-readable, JSON and progress bar formatters
type Formatter interface {
	// Start initializes the formatter once the files to copy are known
	Start(writer io.Writer, totalFiles int, duplicates int) error

	// Progress reports a single run event
	Progress(ev event.Event) error

	// Complete finalizes output and displays the summary
	Complete(result *models.RunResult) error

	// Error reports the error that ended a run
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name
func New(name string) (Formatter, error) {
	switch name {
	case "human", "":
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "progress":
		return NewProgressFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
}

// writeSummary prints the three numbers every run reports
func writeSummary(w io.Writer, result *models.RunResult) {
	fmt.Fprintf(w, "%d file(s) copied\n", result.FilesCopied)
	fmt.Fprintf(w, "%d duplicate-named file(s) ignored\n", result.DuplicatesIgnored)
	fmt.Fprintf(w, "Folder size is about %.1f MB (%s)\n", result.TotalSizeMB, result.DestPath)
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
