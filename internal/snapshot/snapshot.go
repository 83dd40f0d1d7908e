// Package snapshot persists ordered entry collections.
//
// The format is chosen by the file extension: ".csv" is the tabular text
// form, ".lz4" and ".zst" are the binary form inside a streaming compressor,
// ".bin" is the raw binary form, and ".json"/".yaml" are structured dumps.
// The binary form keeps only the day of each modification time.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// Format identifies an on-disk representation
type Format string

const (
	FormatCSV    Format = "csv"
	FormatLZ4    Format = "lz4"
	FormatZstd   Format = "zst"
	FormatBinary Format = "bin"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

var formatsByExt = map[string]Format{
	".csv":  FormatCSV,
	".lz4":  FormatLZ4,
	".zst":  FormatZstd,
	".bin":  FormatBinary,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// Extensions lists the recognized file extensions
func Extensions() []string {
	return []string{".csv", ".lz4", ".zst", ".bin", ".json", ".yaml", ".yml"}
}

// FormatFor returns the format selected by path's extension
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formatsByExt[ext]
	if !ok {
		return "", errs.Format("snapshot", path,
			fmt.Errorf("unsupported extension %q (want one of %s)", ext, strings.Join(Extensions(), ", ")))
	}
	return f, nil
}

type options struct {
	compressed bool
}

// Option tunes Save and Load
type Option func(*options)

// WithCompression toggles the compression stream of the .lz4 and .zst formats.
// Reader and writer must agree. Default true.
func WithCompression(on bool) Option {
	return func(o *options) {
		o.compressed = on
	}
}

func buildOptions(opts []Option) options {
	o := options{compressed: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Save writes entries to path in the format selected by its extension.
// The file is replaced atomically, a failed save leaves path untouched.
func Save(path string, entries []models.Entry, opts ...Option) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if err := validate(entries); err != nil {
		return wrapCodecErr("save", path, err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errs.IO("save", path, err)
	}
	tmp := f.Name()

	if err := writeFile(f, format, entries, opts); err != nil {
		os.Remove(tmp)
		return wrapCodecErr("save", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.IO("save", path, err)
	}
	return nil
}

func writeFile(f *os.File, format Format, entries []models.Entry, opts []Option) error {
	w := bufio.NewWriter(f)
	if err := Encode(w, format, entries, opts...); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads the entries stored at path
func Load(path string, opts ...Option) ([]models.Entry, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.IO("load", path, err)
	}
	defer f.Close()

	entries, err := Decode(bufio.NewReader(f), format, opts...)
	if err != nil {
		return nil, wrapCodecErr("load", path, err)
	}
	return entries, nil
}

// Convert re-encodes the snapshot at src into dst
func Convert(src, dst string, opts ...Option) (int, error) {
	if _, err := FormatFor(dst); err != nil {
		return 0, err
	}
	entries, err := Load(src, opts...)
	if err != nil {
		return 0, err
	}
	return len(entries), Save(dst, entries, opts...)
}

// Encode writes entries to w in the given format. Entries that no decoder
// would accept are rejected before anything is written.
func Encode(w io.Writer, format Format, entries []models.Entry, opts ...Option) error {
	if err := validate(entries); err != nil {
		return err
	}
	o := buildOptions(opts)
	switch format {
	case FormatCSV:
		return encodeCSV(w, entries)
	case FormatLZ4, FormatZstd:
		if !o.compressed {
			return encodeBinary(w, entries)
		}
		return encodeCompressed(w, format, entries)
	case FormatBinary:
		return encodeBinary(w, entries)
	case FormatJSON:
		return encodeJSON(w, entries)
	case FormatYAML:
		return encodeYAML(w, entries)
	default:
		return errs.Format("encode", "", fmt.Errorf("unknown format %q", format))
	}
}

// validate rejects unknown kinds and negative sizes
func validate(entries []models.Entry) error {
	for _, e := range entries {
		if e.Kind != models.KindFile && e.Kind != models.KindFolder {
			return errs.Format("encode", e.Path, fmt.Errorf("unknown entry kind %d", e.Kind))
		}
		if e.Size < 0 {
			return errs.Format("encode", e.Path, fmt.Errorf("negative size %d", e.Size))
		}
	}
	return nil
}

// Decode reads entries from r in the given format
func Decode(r io.Reader, format Format, opts ...Option) ([]models.Entry, error) {
	o := buildOptions(opts)
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatLZ4, FormatZstd:
		if !o.compressed {
			return decodeBinary(r)
		}
		return decodeCompressed(r, format)
	case FormatBinary:
		return decodeBinary(r)
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, errs.Format("decode", "", fmt.Errorf("unknown format %q", format))
	}
}

// wrapCodecErr classifies a codec failure, keeping errors that already carry a kind
func wrapCodecErr(op, path string, err error) error {
	if kind := errs.KindOf(err); kind != "" {
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
	return errs.IO(op, path, err)
}
