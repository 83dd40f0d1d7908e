package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		label   string
		want    Kind
		wantErr bool
	}{
		{"File", KindFile, false},
		{"folder", KindFolder, false},
		{"FOLDER", KindFolder, false},
		{" file ", KindFile, false},
		{"Directory", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseKind(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "File", KindFile.String())
	assert.Equal(t, "Folder", KindFolder.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestKind_JSON(t *testing.T) {
	data, err := json.Marshal(struct{ K Kind }{KindFolder})
	require.NoError(t, err)
	assert.Equal(t, `{"K":"Folder"}`, string(data))

	var out struct{ K Kind }
	require.NoError(t, json.Unmarshal([]byte(`{"K":"file"}`), &out))
	assert.Equal(t, KindFile, out.K)

	assert.Error(t, json.Unmarshal([]byte(`{"K":"link"}`), &out))
	_, err = json.Marshal(struct{ K Kind }{Kind(9)})
	assert.Error(t, err)
}

func TestEntry_Helpers(t *testing.T) {
	e := Entry{Size: 12, Name: "README.TXT", Path: "/src/README.TXT", Kind: KindFile}

	assert.True(t, e.IsFile())
	assert.False(t, e.IsFolder())
	assert.Equal(t, ".txt", e.Ext())

	moved := e.WithPath("/dst/README.TXT")
	assert.Equal(t, "/dst/README.TXT", moved.Path)
	assert.Equal(t, "/src/README.TXT", e.Path)
	assert.Equal(t, e.Size, moved.Size)
}

func TestNewFolder(t *testing.T) {
	now := time.Now()
	f := NewFolder("/dst/a/b", now)

	assert.Equal(t, "b", f.Name)
	assert.Equal(t, int64(0), f.Size)
	assert.True(t, f.IsFolder())
	assert.True(t, f.ModifiedAt.Equal(now))
}

func TestEntry_String(t *testing.T) {
	when := time.Date(2023, 7, 4, 9, 30, 0, 0, time.UTC)

	file := Entry{Size: 42, ModifiedAt: when, Name: "a.txt", Path: "/a.txt", Kind: KindFile}
	assert.Equal(t, "Name: a.txt\tSize (B): 42\tModified: 2023-07-04\tPath: /a.txt", file.String())

	folder := Entry{ModifiedAt: when, Name: "long", Path: "/a/very/long/path/to/long", Kind: KindFolder}
	s := folder.String()
	assert.Contains(t, s, "Size (B): (Folder)")
	assert.True(t, strings.HasSuffix(s, "Path: /a/very/long/pa..."), s)
}

func TestShadowResult(t *testing.T) {
	r := &ShadowResult{
		Created: []Entry{
			{Name: "a", Kind: KindFolder},
			{Name: "x.txt", Kind: KindFile},
			{Name: "b", Kind: KindFolder},
		},
		Overwritten: []Entry{{Name: "y.txt", Kind: KindFile}},
	}

	assert.Len(t, r.Folders(), 2)
	assert.Len(t, r.Files(), 1)
	assert.Equal(t, 2, r.Copied())
	assert.NoError(t, r.Err())

	first := errors.New("first")
	second := errors.New("second")
	r.Failed = []CopyFailure{{Op: "copy", Err: first}, {Op: "mkdir", Err: second}}

	err := r.Err()
	assert.True(t, errors.Is(err, first))
	assert.True(t, errors.Is(err, second))
}

func TestDiffResult_Identical(t *testing.T) {
	assert.True(t, DiffResult{}.Identical())
	assert.False(t, DiffResult{Changed: []Entry{{}}}.Identical())
	assert.False(t, DiffResult{RightOnly: []Entry{{}}}.Identical())
}
