package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
)

// BillyWalker enumerates a go-billy filesystem. Paths inside the filesystem
// are joined onto mount so the reported entries stay absolute.
type BillyWalker struct {
	fs     billy.Filesystem
	mount  string
	logger *zap.Logger
}

// NewBillyWalker creates a walker over fsys mounted at mount ("/" for osfs.New("/") and memfs)
func NewBillyWalker(fsys billy.Filesystem, mount string, logger *zap.Logger) *BillyWalker {
	if mount == "" {
		mount = "/"
	}
	return &BillyWalker{
		fs:     fsys,
		mount:  filepath.Clean(mount),
		logger: logger,
	}
}

// Enumerate implements Enumerator
func (b *BillyWalker) Enumerate(ctx context.Context, root string) ([]models.Entry, error) {
	inner, err := b.inner(root)
	if err != nil {
		return nil, err
	}

	var entries []models.Entry
	err = util.Walk(b.fs, inner, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path != inner || !os.IsNotExist(err) {
				b.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			}
			if info != nil && info.IsDir() && path != inner {
				return filepath.SkipDir
			}
			return nil
		}

		if path == inner {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			b.logger.Debug("Skipping symlink", zap.String("path", path))
			return nil
		}

		entries = append(entries, entryFromInfo(b.outer(path), info))
		return nil
	})

	return entries, err
}

// inner maps an absolute root onto a path inside the billy filesystem
func (b *BillyWalker) inner(root string) (string, error) {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		return root, nil
	}
	rel, err := filepath.Rel(b.mount, root)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.InvalidInput("enumerate", root, "outside of mount %s", b.mount)
	}
	return filepath.Join("/", rel), nil
}

// outer maps a billy path back to an absolute path
func (b *BillyWalker) outer(path string) string {
	return filepath.Join(b.mount, path)
}
