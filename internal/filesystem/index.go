package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"go.uber.org/zap"
)

// IndexService answers enumeration queries from a prebuilt index instead of
// reading the disk, the way a desktop search daemon would. The index is a
// snapshot file loaded on first use.
type IndexService struct {
	path   string
	logger *zap.Logger

	once    sync.Once
	entries []models.Entry
	loadErr error
}

// NewIndexService creates an index service over an in-memory listing
func NewIndexService(entries []models.Entry, logger *zap.Logger) *IndexService {
	s := &IndexService{logger: logger}
	s.once.Do(func() { s.entries = dedupe(entries) })
	return s
}

// NewIndexServiceFromFile creates an index service backed by a snapshot file
func NewIndexServiceFromFile(path string, logger *zap.Logger) *IndexService {
	return &IndexService{path: path, logger: logger}
}

// Query builds the search string for root. Roots containing whitespace are
// quoted so the search syntax treats them as one term.
func Query(root string) string {
	if strings.ContainsAny(root, " \t") {
		return `"` + root + `"`
	}
	return root
}

// Enumerate implements Enumerator
func (s *IndexService) Enumerate(ctx context.Context, root string) ([]models.Entry, error) {
	root, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, Query(root))
}

// Search returns every indexed entry strictly below the queried root
func (s *IndexService) Search(ctx context.Context, query string) ([]models.Entry, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	root := filepath.Clean(strings.Trim(query, `"`))
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	var out []models.Entry
	for i, e := range s.entries {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if strings.HasPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}

	s.logger.Debug("Index query",
		zap.String("query", query),
		zap.Int("matches", len(out)))

	return out, nil
}

func (s *IndexService) load() error {
	s.once.Do(func() {
		entries, err := snapshot.Load(s.path)
		if err != nil {
			s.loadErr = err
			return
		}
		s.entries = dedupe(entries)
		s.logger.Info("Loaded index",
			zap.String("path", s.path),
			zap.Int("entries", len(s.entries)))
	})
	return s.loadErr
}

// dedupe keeps the first entry seen for each cleaned path
func dedupe(entries []models.Entry) []models.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		e.Path = filepath.Clean(e.Path)
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		out = append(out, e)
	}
	return out
}
