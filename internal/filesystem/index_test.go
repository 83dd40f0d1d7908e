package filesystem

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

func indexed(path string, kind models.Kind) models.Entry {
	return models.Entry{
		ModifiedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Name:       filepath.Base(path),
		Path:       path,
		Kind:       kind,
	}
}

func sampleIndex() []models.Entry {
	return []models.Entry{
		indexed("/vol/My Documents", models.KindFolder),
		indexed("/vol/My Documents/report.txt", models.KindFile),
		indexed("/vol/My Documents Old/stale.txt", models.KindFile),
		indexed("/vol/plain", models.KindFolder),
		indexed("/vol/plain/a.md", models.KindFile),
		indexed("/vol/plain/a.md", models.KindFile),
		indexed("/vol/plainer/b.md", models.KindFile),
	}
}

func TestQuery(t *testing.T) {
	tests := []struct {
		root string
		want string
	}{
		{"/vol/plain", "/vol/plain"},
		{"/vol/My Documents", `"/vol/My Documents"`},
		{"/vol/tab\tname", "\"/vol/tab\tname\""},
	}

	for _, tt := range tests {
		if got := Query(tt.root); got != tt.want {
			t.Errorf("Query(%q) = %q, want %q", tt.root, got, tt.want)
		}
	}
}

func TestIndexService_Enumerate(t *testing.T) {
	svc := NewIndexService(sampleIndex(), zap.NewNop())

	tests := []struct {
		name string
		root string
		want []string
	}{
		{"Plain root", "/vol/plain", []string{"a.md"}},
		{"Quoted root", "/vol/My Documents", []string{"report.txt"}},
		{"Trailing slash", "/vol/plain/", []string{"a.md"}},
		{"Unknown root", "/vol/none", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.Enumerate(context.Background(), tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, relPaths(t, filepath.Clean(tt.root), entries))
		})
	}
}

func TestIndexService_Search(t *testing.T) {
	svc := NewIndexService(sampleIndex(), zap.NewNop())

	entries, err := svc.Search(context.Background(), `"/vol/My Documents"`)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/vol/My Documents/report.txt", entries[0].Path)
}

func TestIndexService_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.lz4")
	require.NoError(t, snapshot.Save(path, sampleIndex()))

	svc := NewIndexServiceFromFile(path, zap.NewNop())
	entries, err := svc.Enumerate(context.Background(), "/vol")
	require.NoError(t, err)

	// The duplicate a.md is dropped
	assert.Len(t, entries, 6)
}

func TestIndexService_BadFile(t *testing.T) {
	svc := NewIndexServiceFromFile(filepath.Join(t.TempDir(), "index.unknown"), zap.NewNop())

	_, err := svc.Enumerate(context.Background(), "/vol")
	assert.True(t, errors.Is(err, errs.ErrFormat), "got %v", err)

	// The load error sticks
	_, err = svc.Enumerate(context.Background(), "/vol")
	assert.Error(t, err)
}
