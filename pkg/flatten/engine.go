package flatten

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/logging"
	"github.com/sdejongh/folderextractor/pkg/models"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

// State is the phase the engine is currently in
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateCopying
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateCopying:
		return "copying"
	case StateReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// SourceOpener opens the backend a run reads from
type SourceOpener func(path string) (storage.Backend, error)

// OpenLocal opens an existing local directory
func OpenLocal(path string) (storage.Backend, error) {
	return storage.NewLocal(path)
}

// One lock per destination path, shared by every engine of the process
var destLocks sync.Map

func destLock(path string) *sync.Mutex {
	mu, _ := destLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Engine drives one run: scan, deduplicate, copy, report
type Engine struct {
	copier *Copier
	opener SourceOpener
	logger logging.Logger
	events chan<- event.Event
	state  atomic.Int32
}

// NewEngine creates an engine. events may be nil; when set, every send blocks
// until the receiver takes the event and the channel is closed by the caller.
func NewEngine(copier *Copier, opener SourceOpener, logger logging.Logger, events chan<- event.Event) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opener == nil {
		opener = OpenLocal
	}
	copier.SetEvents(events)
	return &Engine{
		copier: copier,
		opener: opener,
		logger: logger,
		events: events,
	}
}

// State returns the current phase
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Run executes a full run for req. A SelectionError means nothing was done.
// A cancelled run returns a result with StatusCancelled and a nil error.
func (e *Engine) Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mu := destLock(e.copier.DestPath())
	if !mu.TryLock() {
		return nil, models.ErrRunInProgress
	}
	defer mu.Unlock()
	defer e.setState(StateIdle)

	logger := e.logger.WithFields(logging.Fields{"run_id": req.ID})
	startTime := time.Now()
	logger.Info(ctx, "Run started", logging.Fields{
		"source": req.SourcePath,
		"dest":   e.copier.DestPath(),
	})

	result, err := e.run(ctx, req, logger)
	if result == nil {
		result = &models.RunResult{
			DestPath: e.copier.DestPath(),
			Status:   models.StatusFailed,
		}
	}

	e.setState(StateReporting)
	result.RunID = req.ID
	result.SourcePath = req.SourcePath
	result.StartTime = startTime
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	ev := event.New(event.RunComplete)
	ev.Index = result.FilesCopied
	ev.Total = result.FilesFound - result.DuplicatesIgnored
	ev.Skipped = result.DuplicatesIgnored
	ev.Size = result.TotalSizeBytes
	ev.Error = err
	e.emit(ev)

	fields := logging.Fields{
		"status":     string(result.Status),
		"found":      result.FilesFound,
		"copied":     result.FilesCopied,
		"duplicates": result.DuplicatesIgnored,
		"size_mb":    result.TotalSizeMB,
		"duration":   result.Duration.String(),
	}
	if err != nil {
		logger.Error(ctx, "Run failed", err, fields)
		return result, err
	}
	logger.Info(ctx, "Run finished", fields)
	return result, nil
}

func (e *Engine) run(ctx context.Context, req models.RunRequest, logger logging.Logger) (*models.RunResult, error) {
	e.setState(StateScanning)
	scanStart := event.New(event.ScanStarted)
	scanStart.Path = req.SourcePath
	e.emit(scanStart)

	source, err := e.opener(req.SourcePath)
	if err != nil {
		return nil, models.NewFilesystemError(models.KindRead, "open source", req.SourcePath, err)
	}
	defer source.Close()

	entries, err := NewScanner(source).Scan(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return e.cancelledBeforeCopy(ctx, logger)
		}
		return nil, err
	}

	unique, dropped := Dedupe(entries)
	for _, dup := range dropped {
		ev := event.New(event.FileSkipped)
		ev.Path = dup.Path
		ev.Name = dup.Name
		ev.Size = dup.Size
		e.emit(ev)
		logger.Debug(ctx, "Duplicate name ignored", logging.Fields{"path": dup.Path})
	}

	scanDone := event.New(event.ScanComplete)
	scanDone.Path = req.SourcePath
	scanDone.Total = len(unique)
	scanDone.Skipped = len(dropped)
	e.emit(scanDone)
	logger.Info(ctx, "Scan complete", logging.Fields{
		"found":      len(entries),
		"unique":     len(unique),
		"duplicates": len(dropped),
	})

	e.setState(StateCopying)
	if _, err := e.copier.EnsureDestination(ctx); err != nil {
		return nil, err
	}

	return e.copier.Copy(ctx, source, unique, len(dropped))
}

// cancelledBeforeCopy reports a run cancelled during the scan.
// Nothing was copied; the size covers whatever the destination already holds.
func (e *Engine) cancelledBeforeCopy(ctx context.Context, logger logging.Logger) (*models.RunResult, error) {
	logger.Warn(ctx, "Run cancelled during scan", nil)
	result := &models.RunResult{
		DestPath: e.copier.DestPath(),
		Status:   models.StatusCancelled,
	}

	sizeCtx := context.WithoutCancel(ctx)
	exists, err := e.copier.parent.Exists(sizeCtx, e.copier.folder)
	if err != nil || !exists {
		return result, nil
	}
	size, err := e.copier.FolderSize(sizeCtx)
	if err != nil {
		return result, nil
	}
	result.TotalSizeBytes = size
	result.TotalSizeMB = models.SizeInMB(size)
	return result, nil
}

func (e *Engine) emit(ev event.Event) {
	if e.events != nil {
		e.events <- ev
	}
}
