package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind distinguishes files from folders
type Kind uint8

const (
	KindFile Kind = iota
	KindFolder
)

// String returns the label used by the tabular snapshot format
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindFolder:
		return "Folder"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a kind label (case-insensitive)
func ParseKind(label string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "file":
		return KindFile, nil
	case "folder":
		return KindFolder, nil
	default:
		return 0, fmt.Errorf("unknown entry kind %q", label)
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if k != KindFile && k != KindFolder {
		return nil, fmt.Errorf("unknown entry kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Entry is the metadata of one filesystem node observed at a point in time.
// Entries are values: they are replaced, never mutated in place.
type Entry struct {
	Size       int64     `json:"size" yaml:"size"`             // Size in bytes, 0 for new folders
	ModifiedAt time.Time `json:"modifiedAt" yaml:"modifiedAt"` // Modification time
	Name       string    `json:"name" yaml:"name"`             // Base name
	Path       string    `json:"path" yaml:"path"`             // Absolute path, identity within a collection
	Kind       Kind      `json:"kind" yaml:"kind"`             // File or Folder
}

// Snapshot is an ordered collection of entries captured at one moment
type Snapshot = []Entry

// NewFolder mints the entry of a folder created now at path
func NewFolder(path string, now time.Time) Entry {
	return Entry{
		Size:       0,
		ModifiedAt: now,
		Name:       filepath.Base(path),
		Path:       path,
		Kind:       KindFolder,
	}
}

// IsFile reports whether the entry is a file
func (e Entry) IsFile() bool {
	return e.Kind == KindFile
}

// IsFolder reports whether the entry is a folder
func (e Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Ext returns the lowercased extension including the leading dot
func (e Entry) Ext() string {
	return strings.ToLower(filepath.Ext(e.Name))
}

// WithPath returns a copy of the entry relocated to path
func (e Entry) WithPath(path string) Entry {
	e.Path = path
	return e
}

// String renders a one-line summary
func (e Entry) String() string {
	size := fmt.Sprintf("%d", e.Size)
	if e.IsFolder() {
		size = "(Folder)"
	}
	path := e.Path
	if len(path) > 15 {
		path = path[:15] + "..."
	}
	return fmt.Sprintf("Name: %s\tSize (B): %s\tModified: %s\tPath: %s",
		e.Name, size, e.ModifiedAt.Format("2006-01-02"), path)
}
