package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/models"
)

const progressTemplate = `Progress {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . "%.0f%%"}} {{string . "file"}}`

// ProgressFormatter draws a progress bar that advances one step per copied file
type ProgressFormatter struct {
	writer    io.Writer
	bar       *pb.ProgressBar
	termWidth int
	terminal  bool

	mu sync.Mutex
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, totalFiles int, duplicates int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer

	// Detect terminal width to prevent line wrapping issues
	f.termWidth = 0
	f.terminal = false
	if file, ok := writer.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		f.terminal = true
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
		}
	}
	// Default to 120 if we couldn't detect (pipe, redirect, etc.)
	if f.termWidth == 0 {
		f.termWidth = 120
	}

	if duplicates > 0 {
		fmt.Fprintf(writer, "%d duplicate-named file(s) ignored\n", duplicates)
	}

	f.bar = pb.ProgressBarTemplate(progressTemplate).New(totalFiles)
	f.bar.SetWriter(writer)
	f.bar.SetWidth(f.termWidth)
	f.bar.Set(pb.Terminal, f.terminal)
	// Without a terminal the bar only redraws on events
	f.bar.Set(pb.Static, !f.terminal)
	f.bar.Set("file", "")
	f.bar.Start()
	f.redraw()

	return nil
}

// Progress reports progress during the copy
func (f *ProgressFormatter) Progress(ev event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch ev.Type {
	case event.FileStarted:
		f.bar.Set("file", ev.Name)

	case event.FileCompleted:
		f.bar.Increment()
		f.redraw()

	case event.FileFailed:
		f.bar.Set("file", "failed: "+ev.Name)
		f.redraw()
	}

	return nil
}

// redraw writes the bar for non-terminal writers; terminals refresh on their own
func (f *ProgressFormatter) redraw() {
	if f.terminal {
		return
	}
	f.bar.Write()
	fmt.Fprint(f.writer, "\n")
}

// Complete finalizes output and displays summary
func (f *ProgressFormatter) Complete(result *models.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}

	if f.bar != nil {
		f.bar.Set("file", "")
		f.bar.Finish()
		f.bar = nil
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Run %s in %s\n", result.Status, result.Duration.Round(time.Millisecond))
	writeSummary(f.writer, result)

	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer != nil {
		fmt.Fprintf(f.writer, "\nError: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
