package filesystem

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/IvanShishkin/shadowsnap/internal/config"
	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// Enumerator lists every file and folder below a root, excluding the root itself.
//
// Implementations are fail-soft: nodes that cannot be read are skipped, never
// reported as an error. A root that does not exist yields an empty listing.
// The order of the result is unspecified and paths are unique.
type Enumerator interface {
	Enumerate(ctx context.Context, root string) ([]models.Entry, error)
}

// NewEnumerator returns the backend selected by cfg.Backend
func NewEnumerator(cfg *config.Config, logger *zap.Logger) (Enumerator, error) {
	switch cfg.Backend {
	case "", config.BackendNative:
		return NewWalker(cfg.Exclude, logger), nil
	case config.BackendBilly:
		return NewBillyWalker(osfs.New("/"), "/", logger), nil
	case config.BackendIndex:
		if cfg.IndexPath == "" {
			return nil, errs.InvalidInput("enumerate", "", "index backend requires an index path")
		}
		return NewIndexServiceFromFile(cfg.IndexPath, logger), nil
	default:
		return nil, errs.InvalidInput("enumerate", "", "unknown backend %q", cfg.Backend)
	}
}

// absRoot cleans root into an absolute path
func absRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	return filepath.Clean(abs), nil
}
