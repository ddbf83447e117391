package flatten

import (
	"os"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

// memTree builds an in-memory filesystem holding files
func memTree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs
}

func memBackend(t *testing.T, root string, files map[string]string) (*storage.Local, billy.Filesystem) {
	t.Helper()
	fs := memTree(t, files)
	return storage.NewFromFilesystem(fs, root), fs
}

// faultyFS fails the n-th file opened for writing and can fail directory reads
type faultyFS struct {
	billy.Filesystem

	failWriteOn int
	writeErr    error
	onWriteOpen func(n int)
	writeOpens  int

	// shortWriteOn makes the nth file opened for writing accept one byte
	// and then fail every Write with writeErr
	shortWriteOn int

	failReadDir string
	readDirErr  error
}

func (f *faultyFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		f.writeOpens++
		if f.onWriteOpen != nil {
			f.onWriteOpen(f.writeOpens)
		}
		if f.writeOpens == f.failWriteOn {
			return nil, f.writeErr
		}
		if f.writeOpens == f.shortWriteOn {
			file, err := f.Filesystem.OpenFile(name, flag, perm)
			if err != nil {
				return nil, err
			}
			return &shortFile{File: file, err: f.writeErr}, nil
		}
	}
	return f.Filesystem.OpenFile(name, flag, perm)
}

// shortFile writes a single byte and then fails
type shortFile struct {
	billy.File
	err     error
	written bool
}

func (f *shortFile) Write(p []byte) (int, error) {
	if f.written || len(p) == 0 {
		return 0, f.err
	}
	f.written = true
	n, err := f.File.Write(p[:1])
	if err != nil {
		return n, err
	}
	return n, f.err
}

func (f *faultyFS) ReadDir(path string) ([]os.FileInfo, error) {
	if f.readDirErr != nil && path == f.failReadDir {
		return nil, f.readDirErr
	}
	return f.Filesystem.ReadDir(path)
}

// dirNames lists the names of the files in dir
func dirNames(t *testing.T, fs billy.Filesystem, dir string) []string {
	t.Helper()
	infos, err := fs.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names
}

func readString(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

// collect drains events until the channel is closed
func collect(events <-chan event.Event) <-chan []event.Event {
	done := make(chan []event.Event, 1)
	go func() {
		var out []event.Event
		for ev := range events {
			out = append(out, ev)
		}
		done <- out
	}()
	return done
}

func countType(events []event.Event, typ event.Type) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func newBackend(fs billy.Filesystem, root string) *storage.Local {
	return storage.NewFromFilesystem(fs, root)
}
