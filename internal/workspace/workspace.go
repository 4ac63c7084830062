// Package workspace confines file access to one configured directory
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned for paths that escape the workspace directory
var ErrOutsideWorkspace = errors.New("path is outside the workspace directory")

// Workspace resolves user supplied paths against a root directory
type Workspace struct {
	dir string
}

// New creates a workspace rooted at dir. The directory does not need to
// exist yet.
func New(dir string) (*Workspace, error) {
	if dir == "" {
		return nil, fmt.Errorf("workspace directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}
	return &Workspace{dir: filepath.Clean(abs)}, nil
}

// Dir returns the absolute workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Resolve turns path into an absolute path inside the workspace. Relative
// paths are taken relative to the workspace directory.
func (w *Workspace) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(w.dir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !w.contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return abs, nil
}

// contains checks the cleaned path and its real location. Symlinks are
// resolved on the deepest existing ancestor, so a linked directory cannot
// lead outside the workspace either.
func (w *Workspace) contains(path string) bool {
	clean := filepath.Clean(path)

	realDir, err := evalExisting(w.dir)
	if err != nil {
		return false
	}

	if !isWithin(clean, w.dir) && !isWithin(clean, realDir) {
		return false
	}
	realPath, err := evalExisting(clean)
	if err != nil {
		return false
	}
	return isWithin(realPath, realDir)
}

// evalExisting resolves symlinks in the longest existing prefix of path and
// appends the elements that do not exist yet
func evalExisting(path string) (string, error) {
	var rest []string
	current := path
	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", err
			}
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		rest = append(rest, filepath.Base(current))
		current = parent
	}
}

func isWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
