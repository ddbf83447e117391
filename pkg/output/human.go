package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/models"
)

// HumanFormatter prints one line per file and a plain summary
type HumanFormatter struct {
	writer     io.Writer
	totalFiles int
	verbose    bool
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// SetVerbose also prints the duplicates that were skipped
func (f *HumanFormatter) SetVerbose(verbose bool) {
	f.verbose = verbose
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, totalFiles int, duplicates int) error {
	f.writer = writer
	f.totalFiles = totalFiles

	if writer != nil {
		fmt.Fprintf(writer, "Copying %d file(s), %d duplicate-named file(s) ignored\n",
			totalFiles, duplicates)
	}

	return nil
}

// Progress reports progress during the copy
func (f *HumanFormatter) Progress(ev event.Event) error {
	if f.writer == nil {
		return nil
	}

	switch ev.Type {
	case event.FileSkipped:
		if f.verbose {
			fmt.Fprintf(f.writer, "skipped %s (name already taken)\n", ev.Path)
		}

	case event.FileCompleted:
		fmt.Fprintf(f.writer, "[%d/%d] %s (%s)\n",
			ev.Index, f.totalFiles, ev.Name, formatBytes(ev.Size))

	case event.FileFailed:
		fmt.Fprintf(f.writer, "[%d/%d] failed %s: %v\n",
			ev.Index, f.totalFiles, ev.Path, ev.Error)
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(result *models.RunResult) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	fmt.Fprintf(f.writer, "\n")
	switch result.Status {
	case models.StatusCancelled:
		fmt.Fprintf(f.writer, "Run cancelled after %s\n", result.Duration.Round(time.Millisecond))
	case models.StatusFailed:
		fmt.Fprintf(f.writer, "Run failed after %s\n", result.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(f.writer, "Run completed in %s\n", result.Duration.Round(time.Millisecond))
	}
	writeSummary(f.writer, result)

	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
