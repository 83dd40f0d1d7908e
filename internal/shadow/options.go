package shadow

import (
	"runtime"

	"github.com/IvanShishkin/shadowsnap/internal/config"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// DefaultSnapshotName is the snapshot written at the destination root
const DefaultSnapshotName = "_Snapshot.csv"

// Options controls what the synthesizer copies
type Options struct {
	// Extensions is the allow-list of file extensions; matching ignores case.
	// Empty uses config.DefaultExtensions, config.AnyExtension matches all files.
	Extensions []string

	// EmitSnapshot persists the source listing into the destination after copying
	EmitSnapshot bool
	SnapshotName string

	// MaxFileSize skips larger files; 0 copies files of any size
	MaxFileSize int64

	// Workers bounds concurrent copies; <= 0 uses one per CPU
	Workers int

	// Verify compares xxh3 digests of each source and copy
	Verify bool

	// Filter is an extra predicate a file must pass to be copied
	Filter func(models.Entry) bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Extensions:   append([]string(nil), config.DefaultExtensions...),
		EmitSnapshot: true,
		SnapshotName: DefaultSnapshotName,
		Workers:      runtime.NumCPU(),
	}
}

// OptionsFromConfig maps the loaded configuration onto synthesizer options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	maxSize, err := config.ParseSize(cfg.MaxSize)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Extensions:   cfg.NormalizedExtensions(),
		EmitSnapshot: cfg.EmitSnapshot,
		SnapshotName: cfg.SnapshotName,
		MaxFileSize:  maxSize,
		Workers:      cfg.Workers,
		Verify:       cfg.Verify,
	}, nil
}

func (o Options) normalized() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = config.DefaultExtensions
	}
	o.Extensions = config.NormalizeExtensions(o.Extensions)
	if o.SnapshotName == "" {
		o.SnapshotName = DefaultSnapshotName
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// selects reports whether a source file passes every filter
func (o Options) selects(e models.Entry, allowed map[string]bool) bool {
	if !allowed[config.AnyExtension] && !allowed[e.Ext()] {
		return false
	}
	if o.MaxFileSize > 0 && e.Size > o.MaxFileSize {
		return false
	}
	if o.Filter != nil && !o.Filter(e) {
		return false
	}
	return true
}
