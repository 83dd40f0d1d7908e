package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

var when = time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)

func entry(path string, size int64, kind models.Kind) models.Entry {
	return models.Entry{Size: size, ModifiedAt: when, Name: filepath.Base(path), Path: path, Kind: kind}
}

func sampleDiff() models.DiffResult {
	return models.DiffResult{
		LeftOnly: []models.Entry{
			entry("/l/a.txt", 2048, models.KindFile),
			entry("/l/b.txt", 10, models.KindFile),
			entry("/l/c|pipe.txt", 1, models.KindFile),
		},
		RightOnly: []models.Entry{entry("/r/new", 0, models.KindFolder)},
		Changed:   []models.Entry{},
		LeftRoot:  "/l",
		RightRoot: "/r",
		LeftCount: 5, RightCount: 3,
	}
}

func sampleShadow() *models.ShadowResult {
	return &models.ShadowResult{
		Source:      "/src",
		Destination: "/dst",
		StartTime:   when,
		EndTime:     when.Add(1500 * time.Millisecond),
		Duration:    1500 * time.Millisecond,
		Created: []models.Entry{
			entry("/dst/a", 0, models.KindFolder),
			entry("/dst/a/x.txt", 1500000, models.KindFile),
		},
		Overwritten: []models.Entry{},
		Failed: []models.CopyFailure{{
			Entry: entry("/src/a/y.md", 3, models.KindFile),
			Op:    "copy",
			Dest:  "/dst/a/y.md",
			Err:   errors.New("permission denied"),
			Cause: "permission denied",
		}},
		Skipped:     4,
		BytesCopied: 1500000,
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250.00ms"},
		{1500 * time.Millisecond, "1.50s"},
		{90 * time.Second, "1m30.00s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h2m3.00s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestConsoleDiff_Limit(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, 2, false, zap.NewNop())

	path, err := g.GenerateDiff(sampleDiff(), FormatConsole, "")
	require.NoError(t, err)
	assert.Empty(t, path)

	out := buf.String()
	assert.Contains(t, out, "Missing on the right: 3")
	assert.Contains(t, out, "Missing on the left: 1")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "a.txt")
	assert.NotContains(t, out, "c|pipe.txt")
	assert.NotContains(t, out, "\033[")
}

func TestConsoleDiff_Identical(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, 25, true, zap.NewNop())

	_, err := g.GenerateDiff(models.DiffResult{}, FormatConsole, "")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Trees are identical")
	assert.Contains(t, buf.String(), colorReset)
}

func TestConsoleShadow(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, 0, false, zap.NewNop())

	_, err := g.GenerateShadow(sampleShadow(), FormatConsole, "")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1 new, 0 overwritten (1.5 MB)")
	assert.Contains(t, out, "FAILURES: 1")
	assert.Contains(t, out, "[copy] /dst/a/y.md: permission denied")
}

func TestGenerateDiff_Files(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(&bytes.Buffer{}, 25, false, zap.NewNop())

	tests := []struct {
		format string
		want   []string
	}{
		{FormatText, []string{"SHADOWSNAP DIFF REPORT", "Left Only:        3 (2.1 kB)", "/r/new"}},
		{FormatMarkdown, []string{"# Shadowsnap Diff Report", "## Left Only", "`/l/c\\|pipe.txt`"}},
		{FormatJSON, []string{`"left_only_bytes": 2059`, `"kind": "Folder"`, `"identical": false`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := filepath.Join(dir, "diff."+tt.format)
			path, err := g.GenerateDiff(sampleDiff(), tt.format, out)
			require.NoError(t, err)
			assert.Equal(t, out, path)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, string(data), w)
			}
		})
	}
}

func TestGenerateShadow_JSON(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, 25, false, zap.NewNop())

	_, err := g.GenerateShadow(sampleShadow(), FormatJSON, Stdout)
	require.NoError(t, err)

	var decoded struct {
		Source         string `json:"source"`
		FoldersCreated int    `json:"folders_created"`
		FilesCreated   int    `json:"files_created"`
		Failed         []struct {
			Op    string `json:"op"`
			Cause string `json:"error"`
		} `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/src", decoded.Source)
	assert.Equal(t, 1, decoded.FoldersCreated)
	assert.Equal(t, 1, decoded.FilesCreated)
	require.Len(t, decoded.Failed, 1)
	assert.Equal(t, "permission denied", decoded.Failed[0].Cause)
}

func TestGenerateShadow_TextAndMarkdown(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, 25, false, zap.NewNop())

	_, err := g.GenerateShadow(sampleShadow(), FormatText, Stdout)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Skipped Files:    4")
	assert.Contains(t, buf.String(), "Error:  permission denied")

	buf.Reset()
	_, err = g.GenerateShadow(sampleShadow(), FormatMarkdown, Stdout)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "| **Failures** | **1** |")
}

func TestGenerate_UnknownFormat(t *testing.T) {
	g := NewGenerator(&bytes.Buffer{}, 25, false, zap.NewNop())

	_, err := g.GenerateDiff(sampleDiff(), "xml", "")
	assert.Error(t, err)
	_, err = g.GenerateShadow(sampleShadow(), "html", "")
	assert.Error(t, err)
}

func TestGenerate_DefaultFilename(t *testing.T) {
	t.Chdir(t.TempDir())
	g := NewGenerator(&bytes.Buffer{}, 25, false, zap.NewNop())

	path, err := g.GenerateDiff(sampleDiff(), FormatMarkdown, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "SHADOWSNAP-DIFF-"), path)
	assert.Equal(t, ".md", filepath.Ext(path))
	assert.FileExists(t, path)
}

func TestPrintTree(t *testing.T) {
	entries := []models.Entry{
		entry("/data/b", 0, models.KindFolder),
		entry("/data/a", 0, models.KindFolder),
		entry("/data/a/deep", 0, models.KindFolder),
		entry("/data/a/file.txt", 1, models.KindFile),
		entry("/data/c/d", 0, models.KindFolder),
		entry("/elsewhere/x", 0, models.KindFolder),
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTree(&buf, entries, "/data"))

	want := strings.Join([]string{
		"+- /data",
		"   +- a",
		"   |  +- deep",
		"   +- b",
		"   +- c",
		"      +- d",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrintTree_CommonRoot(t *testing.T) {
	entries := []models.Entry{
		entry("/data/a", 0, models.KindFolder),
		entry("/data/b/c", 0, models.KindFolder),
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTree(&buf, entries, ""))

	assert.True(t, strings.HasPrefix(buf.String(), "+- /data\n"), buf.String())
	assert.Contains(t, buf.String(), "+- c")
}
