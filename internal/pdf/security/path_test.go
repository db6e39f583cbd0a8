package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lease.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "subdir", "addendum.pdf"), []byte("x"), 0o644))
	return root
}

func TestNewPathValidator(t *testing.T) {
	_, err := NewPathValidator("")
	assert.Error(t, err)

	root := t.TempDir()
	v, err := NewPathValidator(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), v.Root())
}

func TestPathValidator_ValidatePath(t *testing.T) {
	root := setupRoot(t)
	v, err := NewPathValidator(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "empty path", path: "", wantErr: true},
		{name: "file in root", path: filepath.Join(root, "lease.pdf")},
		{name: "file in subdirectory", path: filepath.Join(root, "subdir", "addendum.pdf")},
		{name: "missing file inside root", path: filepath.Join(root, "missing.pdf")},
		{name: "root itself", path: root},
		{name: "outside root", path: "/etc/passwd", wantErr: true},
		{name: "parent traversal", path: filepath.Join(root, "..", "outside.pdf"), wantErr: true},
		{name: "dot segment", path: filepath.Join(root, ".", "lease.pdf")},
		{name: "sibling with shared prefix", path: root + "-other/lease.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	root := setupRoot(t)
	v, err := NewPathValidator(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative to root", path: "lease.pdf", want: filepath.Join(root, "lease.pdf")},
		{name: "relative subdirectory", path: "subdir/addendum.pdf", want: filepath.Join(root, "subdir", "addendum.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "lease.pdf"), want: filepath.Join(root, "lease.pdf")},
		{name: "null bytes stripped", path: "lease\x00.pdf", want: filepath.Join(root, "lease.pdf")},
		{name: "relative escape", path: "../../etc/passwd", wantErr: true},
		{name: "absolute outside", path: "/etc/passwd", wantErr: true},
		{name: "empty", path: "", wantErr: true},
		{name: "only null bytes", path: "\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathValidator_Symlinks(t *testing.T) {
	root := setupRoot(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.pdf")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o644))

	escape := filepath.Join(root, "escape.pdf")
	if err := os.Symlink(secret, escape); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	inner := filepath.Join(root, "inner.pdf")
	require.NoError(t, os.Symlink(filepath.Join(root, "lease.pdf"), inner))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	assert.False(t, v.IsPathWithinDirectory(escape))
	assert.True(t, v.IsPathWithinDirectory(inner))

	_, err = v.Resolve("escape.pdf")
	assert.Error(t, err)
}
