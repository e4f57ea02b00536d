// Package security confines document imports to the configured directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the import root.
var ErrOutsideRoot = errors.New("path is outside the configured directory")

// PathValidator resolves user supplied paths against an import root.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for root. The directory does not
// have to exist yet; while it is missing every path is accepted.
func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{root: root}, nil
}

// Root returns the configured directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the cleaned absolute form of path. Relative paths are taken
// relative to the root and null bytes are stripped. Symlinks are followed
// before the containment check.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.check(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// Within reports whether path lies inside the root.
func (v *PathValidator) Within(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return v.check(abs) == nil
}

func (v *PathValidator) check(abs string) error {
	if _, err := os.Stat(v.root); os.IsNotExist(err) {
		return nil
	}
	root, err := filepath.Abs(v.root)
	if err != nil {
		return fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	root = filepath.Clean(root)
	realRoot := root
	if r, err := filepath.EvalSymlinks(root); err == nil {
		realRoot = r
	}

	candidates := []string{filepath.Clean(abs)}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		candidates = append(candidates, r)
	}
	for _, c := range candidates {
		if !under(c, root) && !under(c, realRoot) {
			return fmt.Errorf("%w: %s", ErrOutsideRoot, abs)
		}
	}
	return nil
}

func under(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}
