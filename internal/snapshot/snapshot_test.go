package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []models.Entry {
	plus5 := time.FixedZone("plus5", 5*3600)
	return []models.Entry{
		{Size: 0, ModifiedAt: time.Date(2024, 3, 15, 13, 45, 30, 123456789, time.UTC), Name: "a", Path: "/root/a", Kind: models.KindFolder},
		{Size: 1536, ModifiedAt: time.Date(2024, 3, 16, 1, 2, 3, 0, plus5), Name: "x.txt", Path: "/root/a/x.txt", Kind: models.KindFile},
		{Size: 42, ModifiedAt: time.Date(1999, 12, 31, 23, 59, 59, 999, time.UTC), Name: `odd, "quoted" ünïcode.md`, Path: "/root/a/odd, \"quoted\" ünïcode.md", Kind: models.KindFile},
		{Size: 7, ModifiedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Name: "with space.log", Path: "/root/dir with space/with space.log", Kind: models.KindFile},
		// Duplicates survive: the codec never filters
		{Size: 7, ModifiedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Name: "with space.log", Path: "/root/dir with space/with space.log", Kind: models.KindFile},
	}
}

// dayTruncated is what the binary form keeps of each entry
func dayTruncated(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	for i, e := range entries {
		u := e.ModifiedAt.UTC()
		e.ModifiedAt = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		out[i] = e
	}
	return out
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{"snap.csv", FormatCSV, false},
		{"SNAP.CSV", FormatCSV, false},
		{"snap.lz4", FormatLZ4, false},
		{"snap.zst", FormatZstd, false},
		{"snap.bin", FormatBinary, false},
		{"snap.json", FormatJSON, false},
		{"snap.yml", FormatYAML, false},
		{"snap.yaml", FormatYAML, false},
		{"snap.txt", "", true},
		{"snap", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrFormat)
				assert.Contains(t, err.Error(), ".csv, .lz4, .zst")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoundTrip_Exact(t *testing.T) {
	for _, ext := range []string{".csv", ".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snap"+ext)
			entries := sampleEntries()

			require.NoError(t, Save(path, entries))
			loaded, err := Load(path)
			require.NoError(t, err)

			if diff := cmp.Diff(entries, loaded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_BinaryTruncatesToDay(t *testing.T) {
	tests := []struct {
		ext        string
		compressed bool
	}{
		{".lz4", true},
		{".lz4", false},
		{".zst", true},
		{".zst", false},
		{".bin", true},
	}

	for _, tt := range tests {
		name := tt.ext
		if !tt.compressed {
			name += "-raw"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snap"+tt.ext)
			entries := sampleEntries()

			require.NoError(t, Save(path, entries, WithCompression(tt.compressed)))
			loaded, err := Load(path, WithCompression(tt.compressed))
			require.NoError(t, err)

			if diff := cmp.Diff(dayTruncated(entries), loaded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBinaryLayout(t *testing.T) {
	entries := []models.Entry{
		{Size: 5, ModifiedAt: time.Date(2023, 7, 4, 10, 0, 0, 0, time.UTC), Name: "n", Path: "/n", Kind: models.KindFolder},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatBinary, entries))

	expected := []byte{
		1, 0, 0, 0, // count
		5, 0, 0, 0, 0, 0, 0, 0, // size
		10, '2', '0', '2', '3', '-', '0', '7', '-', '0', '4', // date
		1, 'n', // name
		2, '/', 'n', // path
		1, // kind Folder
	}
	assert.Equal(t, expected, buf.Bytes())
}

func TestBinaryLongStringPrefix(t *testing.T) {
	long := string(bytes.Repeat([]byte("p"), 300))
	entries := []models.Entry{{Size: 1, ModifiedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Name: "n", Path: long, Kind: models.KindFile}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatBinary, entries))

	// 300 = 0b1_0010_1100 -> 0xAC 0x02
	offset := 4 + 8 + 11 + 2
	assert.Equal(t, []byte{0xAC, 0x02}, buf.Bytes()[offset:offset+2])

	loaded, err := Decode(&buf, FormatBinary)
	require.NoError(t, err)
	assert.Equal(t, long, loaded[0].Path)
}

func TestSave_UnknownExtensionTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.xyz")

	err := Save(path, sampleEntries())
	assert.ErrorIs(t, err, errs.ErrFormat)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file must be created")
}

func TestSave_InvalidEntryKeepsExistingFile(t *testing.T) {
	tests := []struct {
		name  string
		entry models.Entry
	}{
		{"Unknown kind", models.Entry{Name: "odd", Path: "/root/odd", Kind: models.Kind(7)}},
		{"Negative size", models.Entry{Size: -1, Name: "neg", Path: "/root/neg", Kind: models.KindFile}},
	}

	for _, tt := range tests {
		for _, ext := range Extensions() {
			t.Run(tt.name+ext, func(t *testing.T) {
				dir := t.TempDir()
				path := filepath.Join(dir, "snap"+ext)
				require.NoError(t, Save(path, sampleEntries()))
				before, err := os.ReadFile(path)
				require.NoError(t, err)

				err = Save(path, append(sampleEntries(), tt.entry))
				assert.ErrorIs(t, err, errs.ErrFormat)

				after, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, before, after)

				names, err := os.ReadDir(dir)
				require.NoError(t, err)
				assert.Len(t, names, 1, "no temporary file may remain")
			})
		}
	}
}

func TestSave_MissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "absent", "snap.csv"), sampleEntries())
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestSave_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.csv")
	require.NoError(t, Save(path, sampleEntries()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestEncode_RejectsInvalidEntries(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, FormatCSV, []models.Entry{{Name: "odd", Path: "/odd", Kind: models.Kind(3)}})
	assert.ErrorIs(t, err, errs.ErrFormat)
	assert.Zero(t, buf.Len())
}

func TestLoad_UnknownExtensionBeforeIO(t *testing.T) {
	// The file does not exist: a format error proves the extension is checked first
	_, err := Load(filepath.Join(t.TempDir(), "missing.doc"))
	assert.ErrorIs(t, err, errs.ErrFormat)
	assert.NotErrorIs(t, err, errs.ErrIO)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
	}{
		{"Empty csv", "a.csv", nil},
		{"Wrong header", "a.csv", []byte("Size,DateModified,Filename,Path,Type\n")},
		{"Bad kind label", "a.csv", []byte("size,modifiedAt,name,path,kind\n1,2024-01-01T00:00:00Z,a,/a,Link\n")},
		{"Bad size", "a.csv", []byte("size,modifiedAt,name,path,kind\nbig,2024-01-01T00:00:00Z,a,/a,File\n")},
		{"Negative size", "a.csv", []byte("size,modifiedAt,name,path,kind\n-1,2024-01-01T00:00:00Z,a,/a,File\n")},
		{"Missing column", "a.csv", []byte("size,modifiedAt,name,path,kind\n1,2024-01-01T00:00:00Z,a,/a\n")},
		{"Empty binary", "a.bin", nil},
		{"Truncated binary", "a.bin", []byte{2, 0, 0, 0, 5, 0, 0}},
		{"Bad kind code", "a.bin", []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10, '2', '0', '2', '3', '-', '0', '7', '-', '0', '4', 0, 0, 9}},
		{"Negative binary size", "a.bin", []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 10, '2', '0', '2', '3', '-', '0', '7', '-', '0', '4', 0, 0, 1}},
		{"Bad date", "a.bin", []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 'a', 'b', 'c', 0, 0, 0}},
		{"Not lz4", "a.lz4", []byte("definitely not an lz4 frame")},
		{"Not json", "a.json", []byte("{not json")},
		{"Empty yaml", "a.yaml", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, tt.content, 0644))

			_, err := Load(path)
			assert.ErrorIs(t, err, errs.ErrFormat)
		})
	}
}

func TestRoundTrip_Empty(t *testing.T) {
	for _, ext := range Extensions() {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "empty"+ext)
			require.NoError(t, Save(path, nil))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Empty(t, loaded)
		})
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snap.csv")
	dst := filepath.Join(dir, "snap.json")
	entries := sampleEntries()
	require.NoError(t, Save(src, entries))

	n, err := Convert(src, dst)
	require.NoError(t, err)
	assert.Equal(t, len(entries), n)

	loaded, err := Load(dst)
	require.NoError(t, err)
	if diff := cmp.Diff(entries, loaded); diff != "" {
		t.Errorf("convert mismatch (-want +got):\n%s", diff)
	}

	_, err = Convert(src, filepath.Join(dir, "snap.docx"))
	assert.True(t, errors.Is(err, errs.ErrFormat))
}
