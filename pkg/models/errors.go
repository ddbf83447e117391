package models

import (
	"errors"
	"io/fs"
)

// ErrRunInProgress is returned when a run targets a destination that is already being written
var ErrRunInProgress = errors.New("a run is already in progress for this destination")

// SelectionError means no usable source directory was chosen.
// It gates a run rather than failing one.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return "selection: " + e.Reason
}

// ErrorKind identifies the phase a filesystem error happened in
type ErrorKind string

const (
	// KindRead covers scanning and reading source files
	KindRead ErrorKind = "read"
	// KindCreate covers provisioning the destination folder
	KindCreate ErrorKind = "create"
	// KindWrite covers copying into the destination
	KindWrite ErrorKind = "write"
	// KindStat covers the post-copy size computation
	KindStat ErrorKind = "stat"
)

// ErrorClass separates permission problems from other I/O failures
type ErrorClass string

const (
	ClassIO         ErrorClass = "io"
	ClassPermission ErrorClass = "permission"
)

// FilesystemError is a terminal I/O failure of a run
type FilesystemError struct {
	Kind  ErrorKind
	Class ErrorClass
	Op    string
	Path  string
	Err   error
}

// NewFilesystemError wraps err and classifies it
func NewFilesystemError(kind ErrorKind, op, path string, err error) *FilesystemError {
	return &FilesystemError{
		Kind:  kind,
		Class: Classify(err),
		Op:    op,
		Path:  path,
		Err:   err,
	}
}

func (e *FilesystemError) Error() string {
	prefix := "IO error"
	if e.Class == ClassPermission {
		prefix = "permission error"
	}
	msg := prefix + " (" + string(e.Kind) + ")"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Classify reports whether err is a permission failure or a plain I/O failure
func Classify(err error) ErrorClass {
	if errors.Is(err, fs.ErrPermission) {
		return ClassPermission
	}
	return ClassIO
}
