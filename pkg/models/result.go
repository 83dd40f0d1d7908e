package models

import (
	"time"

	"go.uber.org/multierr"
)

// DiffResult holds the divergence between two entry collections
type DiffResult struct {
	LeftOnly  []Entry `json:"left_only"`  // In left, absent from right (left order)
	RightOnly []Entry `json:"right_only"` // In right, absent from left (right order)
	Changed   []Entry `json:"changed"`    // Left entries present on both sides with differing metadata

	LeftRoot   string `json:"left_root,omitempty"`
	RightRoot  string `json:"right_root,omitempty"`
	LeftCount  int    `json:"left_count"`
	RightCount int    `json:"right_count"`
}

// Identical reports whether nothing diverged
func (r DiffResult) Identical() bool {
	return len(r.LeftOnly) == 0 && len(r.RightOnly) == 0 && len(r.Changed) == 0
}

// CopyFailure records one item the synthesizer could not produce
type CopyFailure struct {
	Entry Entry  `json:"entry"` // Source entry
	Op    string `json:"op"`    // mkdir, copy, verify
	Dest  string `json:"dest"`  // Intended destination path
	Err   error  `json:"-"`
	Cause string `json:"error"` // Err rendered for reports
}

// ShadowResult contains the outcome of one shadow copy run
type ShadowResult struct {
	Source       string        `json:"source"`
	Destination  string        `json:"destination"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	Created      []Entry       `json:"created"`       // Folders in creation order, then new files in source order
	Overwritten  []Entry       `json:"overwritten"`   // Files copied over an existing destination file, in source order
	Failed       []CopyFailure `json:"failed"`        // Items that could not be created or copied
	Skipped      int           `json:"skipped_files"` // Files excluded by the filters
	BytesCopied  int64         `json:"bytes_copied"`
	SnapshotPath string        `json:"snapshot_path,omitempty"`
}

// Folders returns the created folders
func (r *ShadowResult) Folders() []Entry {
	var out []Entry
	for _, e := range r.Created {
		if e.IsFolder() {
			out = append(out, e)
		}
	}
	return out
}

// Files returns the copied files
func (r *ShadowResult) Files() []Entry {
	var out []Entry
	for _, e := range r.Created {
		if e.IsFile() {
			out = append(out, e)
		}
	}
	return out
}

// Copied returns every file written by the run, new or overwritten
func (r *ShadowResult) Copied() int {
	return len(r.Files()) + len(r.Overwritten)
}

// Err combines every recorded failure, nil when the run was clean
func (r *ShadowResult) Err() error {
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, f.Err)
	}
	return err
}
