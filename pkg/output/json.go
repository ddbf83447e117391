package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/models"
)

// JSONFormatter writes a single JSON document for automation and scripting
type JSONFormatter struct {
	writer  io.Writer
	skipped []string
	failed  []JSONErrorData
	runErr  error
}

// JSONReportData represents the final report
type JSONReportData struct {
	RunID             string          `json:"run_id"`
	Status            string          `json:"status"`
	Source            string          `json:"source"`
	Destination       string          `json:"destination"`
	FilesFound        int             `json:"files_found"`
	FilesCopied       int             `json:"files_copied"`
	DuplicatesIgnored int             `json:"duplicates_ignored"`
	BytesCopied       int64           `json:"bytes_copied"`
	FolderSizeBytes   int64           `json:"folder_size_bytes"`
	FolderSizeMB      float64         `json:"folder_size_mb"`
	Duration          string          `json:"duration"`
	DurationMs        int64           `json:"duration_ms"`
	Skipped           []string        `json:"skipped,omitempty"`
	Errors            []JSONErrorData `json:"errors,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path  string `json:"path,omitempty"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalFiles int, duplicates int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress records skipped and failed files; nothing is printed until Complete
// so the output stays a single parseable document
func (f *JSONFormatter) Progress(ev event.Event) error {
	switch ev.Type {
	case event.FileSkipped:
		f.skipped = append(f.skipped, ev.Path)
	case event.FileFailed:
		entry := JSONErrorData{Path: ev.Path, Error: "unknown error"}
		if ev.Error != nil {
			entry.Error = ev.Error.Error()
		}
		f.failed = append(f.failed, entry)
	}
	return nil
}

// Complete writes the report as JSON
func (f *JSONFormatter) Complete(result *models.RunResult) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	errs := f.failed
	if f.runErr != nil && len(errs) == 0 {
		errs = append(errs, JSONErrorData{Error: f.runErr.Error()})
	}

	report := JSONReportData{
		RunID:             result.RunID,
		Status:            string(result.Status),
		Source:            result.SourcePath,
		Destination:       result.DestPath,
		FilesFound:        result.FilesFound,
		FilesCopied:       result.FilesCopied,
		DuplicatesIgnored: result.DuplicatesIgnored,
		BytesCopied:       result.BytesCopied,
		FolderSizeBytes:   result.TotalSizeBytes,
		FolderSizeMB:      result.TotalSizeMB,
		Duration:          result.Duration.Round(time.Millisecond).String(),
		DurationMs:        result.Duration.Milliseconds(),
		Skipped:           f.skipped,
		Errors:            errs,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Error records the error for the final document
func (f *JSONFormatter) Error(err error) error {
	f.runErr = err
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
