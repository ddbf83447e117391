package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	FileSkipped
	FileStarted
	FileProgress
	FileCompleted
	FileFailed
	RunComplete
)

var typeNames = [...]string{
	ScanStarted:   "ScanStarted",
	ScanComplete:  "ScanComplete",
	FileSkipped:   "FileSkipped",
	FileStarted:   "FileStarted",
	FileProgress:  "FileProgress",
	FileCompleted: "FileCompleted",
	FileFailed:    "FileFailed",
	RunComplete:   "RunComplete",
}

func (t Type) String() string {
	if int(t) > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single progress notification sent from the run to the presentation layer.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // source path of the file
	Name      string // base name, also the name in the destination
	Size      int64  // file size or bytes-so-far for FileProgress
	Index     int    // 1-based position in the copy sequence
	Total     int    // files to copy (ScanComplete, FileStarted, FileCompleted)
	Skipped   int    // duplicates dropped (ScanComplete)
	Error     error
}

// New returns an event of the given type stamped with the current time.
func New(t Type) Event {
	return Event{Type: t, Timestamp: time.Now()}
}
