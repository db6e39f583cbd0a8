// Package security keeps tool callers inside the configured PDF directory.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathValidator rejects paths that resolve outside a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the configured directory as an absolute path
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns a caller-supplied path into an absolute path inside the
// root. Relative paths are taken relative to the root, not the process
// working directory.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	path = filepath.Clean(path)

	if err := v.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath checks that path, and its symlink target when it has one,
// stay inside the root
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if !v.IsPathWithinDirectory(abs) {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// IsPathWithinDirectory reports whether an absolute path is the root or
// lies below it. Both the root and the path are compared before and after
// symlink resolution, so a link inside the root that points outside fails.
func (v *PathValidator) IsPathWithinDirectory(path string) bool {
	clean := filepath.Clean(path)

	roots := []string{v.root}
	if real, err := filepath.EvalSymlinks(v.root); err == nil && real != v.root {
		roots = append(roots, real)
	}

	if !within(clean, roots) {
		return false
	}

	// A missing file has nothing to resolve; the loader reports it later.
	real, err := filepath.EvalSymlinks(clean)
	if err != nil {
		return true
	}
	return within(real, roots)
}

func within(path string, roots []string) bool {
	for _, root := range roots {
		if path == root {
			return true
		}
		prefix := root
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
