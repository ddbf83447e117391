package flatten

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/logging"
	"github.com/sdejongh/folderextractor/pkg/models"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

// DestinationFolder is the name of the folder created on the desktop
const DestinationFolder = "music"

// Copier flattens files into a single destination folder
type Copier struct {
	parent storage.Backend // the desktop
	folder string
	logger logging.Logger
	events chan<- event.Event
}

// NewCopier creates a copier writing into folder below parent
func NewCopier(parent storage.Backend, folder string, logger logging.Logger) *Copier {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Copier{
		parent: parent,
		folder: folder,
		logger: logger,
	}
}

// SetEvents sets the channel receiving per-file progress events.
// Sends block, so the channel must be drained while a copy runs.
func (c *Copier) SetEvents(events chan<- event.Event) {
	c.events = events
}

// DestPath returns the full path of the destination folder
func (c *Copier) DestPath() string {
	return c.parent.Path(c.folder)
}

// EnsureDestination creates the destination folder and any missing parent.
// Calling it again once the folder exists is a no-op returning the same path.
func (c *Copier) EnsureDestination(ctx context.Context) (string, error) {
	dest := c.DestPath()

	exists, err := c.parent.Exists(ctx, c.folder)
	if err != nil {
		return "", models.NewFilesystemError(models.KindCreate, "check destination", dest, err)
	}

	if exists {
		info, err := c.parent.Stat(ctx, c.folder)
		if err != nil {
			return "", models.NewFilesystemError(models.KindCreate, "check destination", dest, err)
		}
		if !info.IsDir {
			return "", models.NewFilesystemError(models.KindCreate, "check destination", dest,
				fmt.Errorf("destination exists but is not a directory"))
		}
		return dest, nil
	}

	if err := c.parent.MkdirAll(ctx, c.folder); err != nil {
		return "", models.NewFilesystemError(models.KindCreate, "create destination", dest, err)
	}

	c.logger.Info(ctx, "Created destination folder", logging.Fields{"path": dest})
	return dest, nil
}

// Copy copies every file into the destination folder under its base name, in order,
// overwriting existing files. The first failure aborts the remaining copies; files
// already copied stay in place. Cancellation is honoured between two copies only.
func (c *Copier) Copy(ctx context.Context, source storage.Backend, files []models.FileEntry, duplicates int) (*models.RunResult, error) {
	dest := c.DestPath()
	result := &models.RunResult{
		DestPath:          dest,
		FilesFound:        len(files) + duplicates,
		DuplicatesIgnored: duplicates,
		Status:            models.StatusSuccess,
	}

	total := len(files)
	for i, file := range files {
		if ctx.Err() != nil {
			result.Status = models.StatusCancelled
			c.logger.Warn(ctx, "Copy cancelled", logging.Fields{
				"copied":    result.FilesCopied,
				"remaining": total - i,
			})
			break
		}

		index := i + 1
		c.emit(event.Event{
			Type:      event.FileStarted,
			Timestamp: time.Now(),
			Path:      file.Path,
			Name:      file.Name,
			Size:      file.Size,
			Index:     index,
			Total:     total,
		})

		written, err := c.copyFile(ctx, source, file, index)
		if err != nil {
			result.Status = models.StatusFailed
			c.emit(event.Event{
				Type:      event.FileFailed,
				Timestamp: time.Now(),
				Path:      file.Path,
				Name:      file.Name,
				Index:     index,
				Total:     total,
				Error:     err,
			})
			c.logger.Error(ctx, "Copy failed", err, logging.Fields{
				"path":   file.Path,
				"copied": result.FilesCopied,
			})
			return result, err
		}

		result.FilesCopied++
		result.BytesCopied += written
		c.emit(event.Event{
			Type:      event.FileCompleted,
			Timestamp: time.Now(),
			Path:      file.Path,
			Name:      file.Name,
			Size:      written,
			Index:     index,
			Total:     total,
		})
		c.logger.Debug(ctx, "Copied file", logging.Fields{
			"source": file.Path,
			"name":   file.Name,
			"bytes":  written,
		})
	}

	// The size is still reported after a cancellation
	size, err := c.FolderSize(context.WithoutCancel(ctx))
	if err != nil {
		result.Status = models.StatusFailed
		return result, err
	}
	result.TotalSizeBytes = size
	result.TotalSizeMB = models.SizeInMB(size)

	return result, nil
}

// copyFile copies one file and returns the number of bytes written
func (c *Copier) copyFile(ctx context.Context, source storage.Backend, file models.FileEntry, index int) (int64, error) {
	target := file.Name
	if c.folder != "" {
		target = filepath.Join(c.folder, file.Name)
	}
	targetPath := c.parent.Path(target)

	sourceInfo, err := source.Stat(ctx, file.RelativePath)
	if err != nil {
		return 0, models.NewFilesystemError(models.KindWrite, "read source", file.Path, err)
	}

	// Never truncate a file onto itself
	if samePath(file.Path, targetPath) {
		return sourceInfo.Size, nil
	}

	reader, err := source.Read(ctx, file.RelativePath)
	if err != nil {
		return 0, models.NewFilesystemError(models.KindWrite, "read source", file.Path, err)
	}
	defer reader.Close()

	pr := newProgressReader(reader, func(bytesRead int64) {
		c.emit(event.Event{
			Type:      event.FileProgress,
			Timestamp: time.Now(),
			Path:      file.Path,
			Name:      file.Name,
			Size:      bytesRead,
			Index:     index,
		})
	})

	if err := c.parent.Write(ctx, target, pr, sourceInfo.Size, sourceInfo); err != nil {
		return 0, models.NewFilesystemError(models.KindWrite, "copy", targetPath, err)
	}

	return sourceInfo.Size, nil
}

// FolderSize sums the sizes of the files directly inside the destination folder,
// including files that were there before the run
func (c *Copier) FolderSize(ctx context.Context) (int64, error) {
	entries, err := c.parent.ReadDir(ctx, c.folder)
	if err != nil {
		return 0, models.NewFilesystemError(models.KindStat, "size destination", c.DestPath(), err)
	}

	var total int64
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		total += entry.Size
	}
	return total, nil
}

func (c *Copier) emit(ev event.Event) {
	if c.events != nil {
		c.events <- ev
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
