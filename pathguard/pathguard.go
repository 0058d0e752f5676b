// Package pathguard confines document paths to a workspace root so that a
// server exposing open and create intents cannot reach the rest of the
// filesystem.
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside the root. It
// matches fs.ErrPermission.
var ErrOutsideRoot = fmt.Errorf("pathguard: path escapes workspace root: %w", fs.ErrPermission)

// Guard resolves paths against a root directory.
type Guard struct {
	root string
}

// New creates a Guard for root, which must be an existing directory.
// Symlinks in root are resolved once here.
func New(root string) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pathguard: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("pathguard: root: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("pathguard: root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pathguard: root %s is not a directory", real)
	}
	return &Guard{root: real}, nil
}

// Root returns the resolved root directory.
func (g *Guard) Root() string { return g.root }

// Resolve returns the absolute, symlink-free form of p. Relative paths are
// taken from the root. The file itself need not exist; symlinks are
// resolved along its longest existing prefix.
func (g *Guard) Resolve(p string) (string, error) {
	if p == "" {
		return "", errors.New("pathguard: empty path")
	}
	if strings.IndexByte(p, 0) >= 0 {
		return "", errors.New("pathguard: path contains NUL")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.root, p)
	}
	real, err := evalExisting(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("pathguard: %w", err)
	}
	if !within(g.root, real) {
		return "", ErrOutsideRoot
	}
	return real, nil
}

func evalExisting(p string) (string, error) {
	dir, rest := p, ""
	for {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(real, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return p, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
