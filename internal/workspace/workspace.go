// Package workspace manages temporary directories for uploaded scores.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a temp directory holding files for one job.
type Workspace struct {
	Root string
}

// New creates a fresh temp directory.
func New() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "score-grep-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{Root: dir}, nil
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Root, name)
}

// Save writes data to a file inside the workspace and returns its path.
func (w *Workspace) Save(name string, data []byte) (string, error) {
	p := w.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("saving %s: %w", name, err)
	}
	return p, nil
}

// Cleanup removes the workspace and everything in it.
func (w *Workspace) Cleanup() {
	if w.Root != "" {
		os.RemoveAll(w.Root)
	}
}
