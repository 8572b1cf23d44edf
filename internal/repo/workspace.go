package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"repo2pipe/internal/safeio"
)

// Workspace is an acquired repository ready for read-only analysis.
type Workspace struct {
	// Root is the directory holding the project.
	Root string
	// Kind is one of KindClone, KindArchive or KindPath.
	Kind string
	// FS is a read-only view of Root.
	FS *safeio.SafeFS
	// Logs describes how the workspace was obtained.
	Logs []string

	temp string
}

// Tree returns the read-only file tree.
func (w *Workspace) Tree() fs.FS { return w.FS }

// Notes returns the acquisition log.
func (w *Workspace) Notes() []string { return w.Logs }

// Temporary reports whether Cleanup will delete anything.
func (w *Workspace) Temporary() bool { return w != nil && w.temp != "" }

// Cleanup removes temporary directories created for the workspace. Local
// paths are left untouched. It is safe to call more than once.
func (w *Workspace) Cleanup() error {
	if w == nil || w.temp == "" {
		return nil
	}
	dir := w.temp
	if err := os.RemoveAll(dir); err != nil {
		// Read-only pack files (common under .git on some systems) block
		// removal until their write bit is restored.
		_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err == nil {
				_ = os.Chmod(p, 0o700)
			}
			return nil
		})
		if err2 := os.RemoveAll(dir); err2 != nil {
			return fmt.Errorf("repo: cleanup %s: %w", dir, errors.Join(err, err2))
		}
	}
	w.temp = ""
	return nil
}

func newWorkspace(root, kind, temp string, logs []string) (*Workspace, error) {
	sfs, err := safeio.New(root)
	if err != nil {
		return nil, err
	}
	return &Workspace{Root: sfs.Root(), Kind: kind, FS: sfs, Logs: logs, temp: temp}, nil
}
