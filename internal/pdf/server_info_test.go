package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
}

func fileNames(files []FileInfo) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

func TestLazyDirectoryScanner(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "B.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.pdf"))
	touch(t, filepath.Join(root, ".cache", "c.pdf"))
	touch(t, filepath.Join(root, "one", "d.pdf"))
	touch(t, filepath.Join(root, "one", "two", "e.pdf"))

	tests := []struct {
		name          string
		maxDepth      int
		fileLimit     int
		want          []string
		wantTruncated bool
	}{
		{name: "unlimited", want: []string{"B.PDF", "a.pdf", "d.pdf", "e.pdf"}},
		{name: "depth limit", maxDepth: 2, want: []string{"B.PDF", "a.pdf", "d.pdf"}},
		{name: "root only", maxDepth: 1, want: []string{"B.PDF", "a.pdf"}},
		{name: "file limit", fileLimit: 2, want: []string{"B.PDF", "a.pdf"}, wantTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := NewLazyDirectoryScanner(tt.maxDepth, tt.fileLimit, time.Second)
			result, err := scanner.ScanDirectory(context.Background(), root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fileNames(result.Files))
			assert.Equal(t, tt.wantTruncated, result.Truncated)
		})
	}
}

func TestLazyDirectoryScanner_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLazyDirectoryScanner(0, 0, 0).ScanDirectory(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryCache_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewDirectoryCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("/leases", &ScanResult{Files: []FileInfo{{Name: "a.pdf"}}, Truncated: true})

	entry, ok := c.Get("/leases")
	require.True(t, ok)
	assert.Len(t, entry.files, 1)
	assert.True(t, entry.truncated)

	_, ok = c.Get("/other")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("/leases")
	assert.False(t, ok)
}

func TestPDFServerInfo_UsesCache(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.pdf"))
	svc := newTestService(t, dir)

	first, err := svc.PDFServerInfo(context.Background(), "srv", "1")
	require.NoError(t, err)
	assert.Len(t, first.DirectoryContents, 1)

	touch(t, filepath.Join(dir, "b.pdf"))
	second, err := svc.PDFServerInfo(context.Background(), "srv", "1")
	require.NoError(t, err)
	assert.Len(t, second.DirectoryContents, 1, "listing is served from cache")
}
