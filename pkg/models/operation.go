package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunRequest is the immutable input of a single flatten run
type RunRequest struct {
	ID          string
	SourcePath  string
	RequestedAt time.Time
}

// NewRunRequest creates a request for the given source directory
func NewRunRequest(sourcePath string) RunRequest {
	return RunRequest{
		ID:          uuid.New().String(),
		SourcePath:  sourcePath,
		RequestedAt: time.Now(),
	}
}

// Validate checks that a source directory was selected
func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.SourcePath) == "" {
		return &SelectionError{Reason: "no source directory selected"}
	}
	if r.ID == "" {
		return &ValidationError{Field: "ID", Message: "run id is required"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
