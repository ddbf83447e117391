package models

import (
	"math"
	"time"
)

// BytesPerMB is the divisor used when reporting folder sizes
const BytesPerMB = 1048576

// RunResult is the summary produced once per run
type RunResult struct {
	RunID      string
	SourcePath string
	DestPath   string

	// Counts
	FilesFound        int
	FilesCopied       int
	DuplicatesIgnored int

	// Sizes
	BytesCopied    int64
	TotalSizeBytes int64   // every file in the destination after the run
	TotalSizeMB    float64 // TotalSizeBytes in MiB, one decimal

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Status RunStatus
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates every kept file was copied
	StatusSuccess RunStatus = "success"
	// StatusFailed indicates the run aborted on a filesystem error
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run stopped between two copies
	StatusCancelled RunStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// SizeInMB converts a byte count to MiB rounded to one decimal place
func SizeInMB(bytes int64) float64 {
	return math.Round(float64(bytes)/BytesPerMB*10) / 10
}
