// Package compare finds the entries present on one side of two collections
// but not the other.
//
// Both sides are indexed once by a hash map keyed by path, so a comparison
// costs O(n+m). When a key repeats within one side the first entry wins; the
// later duplicates are neither indexed nor reported.
package compare

import (
	"path/filepath"
	"time"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// KeyFunc derives the identity of an entry. ok=false drops the entry.
type KeyFunc func(models.Entry) (key string, ok bool)

// ByPath keys entries by their absolute path
func ByPath(e models.Entry) (string, bool) {
	return e.Path, true
}

// RelativeTo keys entries by their slash-separated path relative to root.
// Entries outside root, and root itself, are dropped.
func RelativeTo(root string) KeyFunc {
	root = filepath.Clean(root)
	return func(e models.Entry) (string, bool) {
		rel, err := filepath.Rel(root, e.Path)
		if err != nil || rel == "." || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
			return "", false
		}
		return filepath.ToSlash(rel), true
	}
}

// Index maps each key to the first entry carrying it
func Index(entries []models.Entry, key KeyFunc) map[string]models.Entry {
	idx := make(map[string]models.Entry, len(entries))
	for _, e := range entries {
		k, ok := key(e)
		if !ok {
			continue
		}
		if _, dup := idx[k]; dup {
			continue
		}
		idx[k] = e
	}
	return idx
}

// Comparator computes set differences between two entry collections
type Comparator struct {
	leftKey   KeyFunc
	rightKey  KeyFunc
	tolerance time.Duration
	checkMeta bool
}

// Option configures a Comparator
type Option func(*Comparator)

// WithKeys sets how each side is keyed
func WithKeys(left, right KeyFunc) Option {
	return func(c *Comparator) {
		c.leftKey = left
		c.rightKey = right
	}
}

// WithTolerance allows modification times of matched files to differ by d
// before they count as changed
func WithTolerance(d time.Duration) Option {
	return func(c *Comparator) {
		c.tolerance = d
	}
}

// WithoutMetadata disables the Changed report, leaving only presence checks
func WithoutMetadata() Option {
	return func(c *Comparator) {
		c.checkMeta = false
	}
}

// New creates a comparator. Without options both sides are keyed by absolute path.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		leftKey:   ByPath,
		rightKey:  ByPath,
		checkMeta: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Diff compares left against right
func (c *Comparator) Diff(left, right []models.Entry) models.DiffResult {
	leftIdx := Index(left, c.leftKey)
	rightIdx := Index(right, c.rightKey)

	result := models.DiffResult{
		LeftCount:  len(leftIdx),
		RightCount: len(rightIdx),
	}

	result.LeftOnly, result.Changed = c.walk(left, c.leftKey, leftIdx, rightIdx, c.checkMeta)
	result.RightOnly, _ = c.walk(right, c.rightKey, rightIdx, leftIdx, false)

	return result
}

// walk visits side in order and collects entries missing from other. Only
// the indexed occurrence of a key is considered, so duplicates are skipped.
func (c *Comparator) walk(side []models.Entry, key KeyFunc, own, other map[string]models.Entry, meta bool) (missing, changed []models.Entry) {
	missing = []models.Entry{}
	if meta {
		changed = []models.Entry{}
	}

	seen := make(map[string]bool, len(own))
	for _, e := range side {
		k, ok := key(e)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true

		match, found := other[k]
		if !found {
			missing = append(missing, e)
			continue
		}
		if meta && c.differs(e, match) {
			changed = append(changed, e)
		}
	}
	return missing, changed
}

// differs reports whether two entries with the same key disagree on metadata
func (c *Comparator) differs(a, b models.Entry) bool {
	if a.Kind != b.Kind {
		return true
	}
	if a.IsFolder() {
		return false
	}
	if a.Size != b.Size {
		return true
	}
	delta := a.ModifiedAt.Sub(b.ModifiedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta > c.tolerance
}

// Diff compares two collections keyed by absolute path
func Diff(left, right []models.Entry) models.DiffResult {
	return New().Diff(left, right)
}

// DiffRelative compares two trees rooted at different places, keying each
// side by its path relative to its own root
func DiffRelative(leftRoot string, left []models.Entry, rightRoot string, right []models.Entry, opts ...Option) models.DiffResult {
	opts = append([]Option{WithKeys(RelativeTo(leftRoot), RelativeTo(rightRoot))}, opts...)
	result := New(opts...).Diff(left, right)
	result.LeftRoot = leftRoot
	result.RightRoot = rightRoot
	return result
}

// CommonRoot returns the deepest directory strictly containing every entry path.
// It is used to key a loaded snapshot whose capture root is not recorded.
func CommonRoot(entries []models.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	root := filepath.Dir(filepath.Clean(entries[0].Path))
	for _, e := range entries[1:] {
		for !within(root, filepath.Clean(e.Path)) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !(len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator))
}
