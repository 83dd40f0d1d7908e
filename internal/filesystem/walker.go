package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"go.uber.org/zap"
)

// Walker enumerates the local filesystem with a native recursive walk
type Walker struct {
	logger  *zap.Logger
	exclude map[string]bool
}

// NewWalker creates a new filesystem walker. Directories whose name is in
// exclude are skipped together with their contents.
func NewWalker(exclude []string, logger *zap.Logger) *Walker {
	// Build exclude map for fast lookup
	set := make(map[string]bool, len(exclude))
	for _, dir := range exclude {
		set[dir] = true
	}

	return &Walker{
		logger:  logger,
		exclude: set,
	}
}

// Enumerate implements Enumerator
func (w *Walker) Enumerate(ctx context.Context, root string) ([]models.Entry, error) {
	var entries []models.Entry
	err := w.Walk(ctx, root, func(e models.Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// Walk recursively walks the directory tree and calls fn for every node below root
func (w *Walker) Walk(ctx context.Context, root string, fn func(models.Entry) error) error {
	root, err := absRoot(root)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root && os.IsNotExist(err) {
				w.logger.Debug("Root does not exist", zap.String("path", path))
			} else {
				w.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			}
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil // Continue walking
		}

		if path == root {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("Skipping symlink", zap.String("path", path))
			return nil
		}

		// Skip excluded directories
		if d.IsDir() && w.shouldExclude(root, path) {
			w.logger.Debug("Skipping excluded directory", zap.String("path", path))
			return filepath.SkipDir
		}

		info, err := d.Info()
		if err != nil {
			w.logger.Warn("Error reading file info", zap.String("path", path), zap.Error(err))
			return nil
		}

		return fn(entryFromInfo(path, info))
	})
}

// shouldExclude checks if a directory should be excluded
func (w *Walker) shouldExclude(root, path string) bool {
	if len(w.exclude) == 0 {
		return false
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}

	// Check if path contains excluded directory
	for _, part := range strings.Split(relPath, string(os.PathSeparator)) {
		if w.exclude[part] {
			return true
		}
	}

	return false
}

// entryFromInfo converts a stat result into an Entry
func entryFromInfo(path string, info fs.FileInfo) models.Entry {
	e := models.Entry{
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		Name:       info.Name(),
		Path:       path,
		Kind:       models.KindFile,
	}
	if info.IsDir() {
		e.Kind = models.KindFolder
		e.Size = 0
	}
	return e
}
