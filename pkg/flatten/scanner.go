package flatten

import (
	"context"

	"github.com/sdejongh/folderextractor/pkg/models"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

// Scanner enumerates every file below a source root
type Scanner struct {
	source storage.Backend
}

// NewScanner creates a scanner over the given source backend
func NewScanner(source storage.Backend) *Scanner {
	return &Scanner{source: source}
}

// Scan returns all files of the source tree in traversal order.
// No filtering is applied: any regular file is eligible.
func (s *Scanner) Scan(ctx context.Context) ([]models.FileEntry, error) {
	infos, err := s.source.List(ctx, "")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, models.NewFilesystemError(models.KindRead, "scan", s.source.Path(""), err)
	}

	entries := make([]models.FileEntry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		entries = append(entries, models.FileEntry{
			Path:         info.Path,
			RelativePath: info.RelativePath,
			Name:         info.Name,
			Size:         info.Size,
			ModTime:      info.ModTime,
			Permissions:  info.Permissions,
		})
	}

	return entries, nil
}

// ScanUnique scans the source and drops every file whose base name was already seen
func (s *Scanner) ScanUnique(ctx context.Context) ([]models.FileEntry, int, error) {
	entries, err := s.Scan(ctx)
	if err != nil {
		return nil, 0, err
	}

	unique, dropped := Dedupe(entries)
	return unique, len(dropped), nil
}

// Dedupe keeps the first entry for each base name and drops the later ones.
// Both slices keep the input order; names are compared exactly.
func Dedupe(entries []models.FileEntry) (unique, dropped []models.FileEntry) {
	seen := make(map[string]struct{}, len(entries))
	unique = make([]models.FileEntry, 0, len(entries))

	for _, entry := range entries {
		if _, ok := seen[entry.Name]; ok {
			dropped = append(dropped, entry)
			continue
		}
		seen[entry.Name] = struct{}{}
		unique = append(unique, entry)
	}

	return unique, dropped
}

// DedupeDir scans sourcePath on the local filesystem and returns the full paths
// of the kept files together with the number of dropped duplicates
func DedupeDir(ctx context.Context, sourcePath string) ([]string, int, error) {
	source, err := storage.NewLocal(sourcePath)
	if err != nil {
		return nil, 0, models.NewFilesystemError(models.KindRead, "open source", sourcePath, err)
	}
	defer source.Close()

	unique, duplicates, err := NewScanner(source).ScanUnique(ctx)
	if err != nil {
		return nil, 0, err
	}

	paths := make([]string, len(unique))
	for i, entry := range unique {
		paths[i] = entry.Path
	}
	return paths, duplicates, nil
}
