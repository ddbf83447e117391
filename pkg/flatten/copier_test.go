package flatten

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/models"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

func scanAll(t *testing.T, source storage.Backend) ([]models.FileEntry, int) {
	t.Helper()
	unique, duplicates, err := NewScanner(source).ScanUnique(context.Background())
	require.NoError(t, err)
	return unique, duplicates
}

func TestCopier_EnsureDestination(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesAndIsIdempotent", func(t *testing.T) {
		desktop, deskFS := memBackend(t, "/home/user/Desktop", nil)
		copier := NewCopier(desktop, DestinationFolder, nil)

		first, err := copier.EnsureDestination(ctx)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/user/Desktop", "music"), first)

		second, err := copier.EnsureDestination(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		info, err := deskFS.Stat("music")
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("KeepsExistingContent", func(t *testing.T) {
		desktop, deskFS := memBackend(t, "/desk", map[string]string{"music/old.txt": "old"})
		copier := NewCopier(desktop, DestinationFolder, nil)

		_, err := copier.EnsureDestination(ctx)
		require.NoError(t, err)
		assert.Equal(t, "old", readString(t, deskFS, "music/old.txt"))
	})

	t.Run("CreatesMissingParents", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "Desktop")
		desktop, err := storage.NewLocalAt(root)
		require.NoError(t, err)

		dest, err := NewCopier(desktop, DestinationFolder, nil).EnsureDestination(ctx)
		require.NoError(t, err)
		assert.DirExists(t, dest)
	})

	t.Run("FileInTheWay", func(t *testing.T) {
		desktop, _ := memBackend(t, "/desk", map[string]string{"music": "not a folder"})

		_, err := NewCopier(desktop, DestinationFolder, nil).EnsureDestination(ctx)
		var fsErr *models.FilesystemError
		require.ErrorAs(t, err, &fsErr)
		assert.Equal(t, models.KindCreate, fsErr.Kind)
	})
}

func TestCopier_Copy(t *testing.T) {
	ctx := context.Background()
	source, _ := memBackend(t, "/src", map[string]string{
		"a/x.txt": "0123456789",
		"b/x.txt": "01234567890123456789",
		"c/y.txt": "yyyyy",
	})
	desktop, deskFS := memBackend(t, "/desk", nil)
	copier := NewCopier(desktop, DestinationFolder, nil)

	files, duplicates := scanAll(t, source)
	_, err := copier.EnsureDestination(ctx)
	require.NoError(t, err)

	result, err := copier.Copy(ctx, source, files, duplicates)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, 3, result.FilesFound)
	assert.Equal(t, 2, result.FilesCopied)
	assert.Equal(t, 1, result.DuplicatesIgnored)
	assert.Equal(t, int64(15), result.BytesCopied)
	assert.Equal(t, int64(15), result.TotalSizeBytes)
	assert.Equal(t, 0.0, result.TotalSizeMB)

	assert.Equal(t, []string{"x.txt", "y.txt"}, dirNames(t, deskFS, "music"))
	assert.Equal(t, "0123456789", readString(t, deskFS, "music/x.txt"), "first x.txt wins")
}

func TestCopier_SizeIncludesExistingFiles(t *testing.T) {
	ctx := context.Background()
	source, _ := memBackend(t, "/src", map[string]string{"a/song.mp3": "12345"})
	desktop, deskFS := memBackend(t, "/desk", map[string]string{
		"music/old.txt":  "0123456789",
		"music/song.mp3": "stale content that gets replaced",
	})
	copier := NewCopier(desktop, DestinationFolder, nil)

	files, duplicates := scanAll(t, source)
	result, err := copier.Copy(ctx, source, files, duplicates)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesCopied)
	assert.Equal(t, int64(15), result.TotalSizeBytes)
	assert.Equal(t, "12345", readString(t, deskFS, "music/song.mp3"))
}

func TestCopier_SizeRounding(t *testing.T) {
	ctx := context.Background()
	big := make([]byte, models.BytesPerMB+models.BytesPerMB/2)
	source, _ := memBackend(t, "/src", map[string]string{"big.bin": string(big)})
	desktop, _ := memBackend(t, "/desk", nil)
	copier := NewCopier(desktop, DestinationFolder, nil)

	files, duplicates := scanAll(t, source)
	result, err := copier.Copy(ctx, source, files, duplicates)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, result.TotalSizeMB, 1e-9)
}

func TestCopier_FailureStopsRun(t *testing.T) {
	ctx := context.Background()
	source, _ := memBackend(t, "/src", map[string]string{
		"1.mp3": "1", "2.mp3": "2", "3.mp3": "3", "4.mp3": "4", "5.mp3": "5",
	})
	_, deskFS := memBackend(t, "/desk", map[string]string{"music/.keep": ""})
	faulty := &faultyFS{Filesystem: deskFS, failWriteOn: 3, writeErr: errors.New("disk full")}
	copier := NewCopier(newBackend(faulty, "/desk"), DestinationFolder, nil)

	files, duplicates := scanAll(t, source)
	result, err := copier.Copy(ctx, source, files, duplicates)
	require.Error(t, err)

	var fsErr *models.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, models.KindWrite, fsErr.Kind)
	assert.Equal(t, models.ClassIO, fsErr.Class)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 2, result.FilesCopied)
	assert.Equal(t, []string{".keep", "1.mp3", "2.mp3"}, dirNames(t, deskFS, "music"))
}

func TestCopier_PartialWriteLeavesNoFile(t *testing.T) {
	ctx := context.Background()
	source, _ := memBackend(t, "/src", map[string]string{
		"1.mp3": "11", "2.mp3": "22", "3.mp3": "33333", "4.mp3": "44", "5.mp3": "55",
	})
	_, deskFS := memBackend(t, "/desk", map[string]string{"music/.keep": ""})
	faulty := &faultyFS{Filesystem: deskFS, shortWriteOn: 3, writeErr: errors.New("no space left on device")}
	copier := NewCopier(newBackend(faulty, "/desk"), DestinationFolder, nil)

	files, duplicates := scanAll(t, source)
	result, err := copier.Copy(ctx, source, files, duplicates)
	require.ErrorContains(t, err, "no space left on device")

	var fsErr *models.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, models.KindWrite, fsErr.Kind)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 2, result.FilesCopied)
	assert.Equal(t, []string{".keep", "1.mp3", "2.mp3"}, dirNames(t, deskFS, "music"))
}

func TestCopier_PermissionFailure(t *testing.T) {
	source, _ := memBackend(t, "/src", map[string]string{"a.mp3": "a"})
	_, deskFS := memBackend(t, "/desk", nil)
	faulty := &faultyFS{
		Filesystem:  deskFS,
		failWriteOn: 1,
		writeErr:    &fs.PathError{Op: "open", Path: "music/a.mp3", Err: fs.ErrPermission},
	}

	files, duplicates := scanAll(t, source)
	_, err := NewCopier(newBackend(faulty, "/desk"), DestinationFolder, nil).
		Copy(context.Background(), source, files, duplicates)

	var fsErr *models.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, models.ClassPermission, fsErr.Class)
}

func TestCopier_SizeFailure(t *testing.T) {
	source, _ := memBackend(t, "/src", map[string]string{"a.mp3": "a"})
	_, deskFS := memBackend(t, "/desk", nil)
	faulty := &faultyFS{Filesystem: deskFS, failReadDir: "music", readDirErr: errors.New("stale handle")}

	files, duplicates := scanAll(t, source)
	result, err := NewCopier(newBackend(faulty, "/desk"), DestinationFolder, nil).
		Copy(context.Background(), source, files, duplicates)

	var fsErr *models.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, models.KindStat, fsErr.Kind)
	assert.Equal(t, 1, result.FilesCopied)
}

func TestCopier_CancelBetweenFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, _ := memBackend(t, "/src", map[string]string{"1.mp3": "1", "2.mp3": "22", "3.mp3": "333"})
	_, deskFS := memBackend(t, "/desk", nil)
	// cancel while the first file is being written
	faulty := &faultyFS{Filesystem: deskFS, onWriteOpen: func(n int) {
		if n == 1 {
			cancel()
		}
	}}

	files, duplicates := scanAll(t, source)
	result, err := NewCopier(newBackend(faulty, "/desk"), DestinationFolder, nil).Copy(ctx, source, files, duplicates)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, result.Status)
	assert.Equal(t, 1, result.FilesCopied)
	assert.Equal(t, int64(1), result.TotalSizeBytes, "size is computed after a cancellation")
	assert.Equal(t, []string{"1.mp3"}, dirNames(t, deskFS, "music"))
}

func TestCopier_Events(t *testing.T) {
	source, _ := memBackend(t, "/src", map[string]string{"a.mp3": "aaa", "b.mp3": "bb"})
	desktop, _ := memBackend(t, "/desk", nil)

	events := make(chan event.Event, 64)
	copier := NewCopier(desktop, DestinationFolder, nil)
	copier.SetEvents(events)

	files, duplicates := scanAll(t, source)
	_, err := copier.Copy(context.Background(), source, files, duplicates)
	require.NoError(t, err)
	close(events)

	var got []event.Event
	for ev := range events {
		got = append(got, ev)
	}

	assert.Equal(t, 2, countType(got, event.FileStarted))
	assert.Equal(t, 2, countType(got, event.FileCompleted))
	assert.Equal(t, event.FileStarted, got[0].Type)
	assert.Equal(t, "a.mp3", got[0].Name)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[0].Total)

	last := got[len(got)-1]
	assert.Equal(t, event.FileCompleted, last.Type)
	assert.Equal(t, "b.mp3", last.Name)
	assert.Equal(t, int64(2), last.Size)
}

func TestCopier_SourceIsDestination(t *testing.T) {
	ctx := context.Background()
	desktopDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(desktopDir, "music"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(desktopDir, "music", "a.mp3"), []byte("aaaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(desktopDir, "b.mp3"), []byte("bb"), 0644))

	desktop, err := storage.NewLocal(desktopDir)
	require.NoError(t, err)

	// the desktop itself is the source, so music/a.mp3 maps onto itself
	files, duplicates := scanAll(t, desktop)
	result, err := NewCopier(desktop, DestinationFolder, nil).Copy(ctx, desktop, files, duplicates)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesCopied)
	data, err := os.ReadFile(filepath.Join(desktopDir, "music", "a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(data))
	assert.Equal(t, int64(6), result.TotalSizeBytes)
}
