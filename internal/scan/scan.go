// Package scan walks a repository tree once and keeps a small index of what
// it found, so detection rules can ask about paths without touching the
// filesystem again.
package scan

import (
	"errors"
	"io/fs"
	"path"
	"strings"
)

// DefaultIgnoreDirs are VCS, dependency and build output directories that
// never carry project markers of their own.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor", ".venv", "venv", "__pycache__",
	"dist", "build", "target", ".next", ".cache",
	".idea", ".vscode",
}

// FileVisit carries per-entry metadata to user callbacks.
type FileVisit struct {
	// Repo-relative path using forward slashes (e.g., "src/app.go").
	Path string
	// True when the entry is a directory.
	IsDir bool
	// Lowercased extension (e.g., ".go", ".md"); empty for dirs or no-ext files.
	Ext string
	// File size in bytes; 0 for dirs or when stat fails.
	Size int64
	// Number of directories between the root and the entry; root entries are 0.
	Depth int
}

// VisitFunc is invoked for every visited entry except the root itself.
type VisitFunc func(f FileVisit)

// Options tunes a walk.
type Options struct {
	// IgnoreDirs lists directory base names that are skipped entirely.
	// Nil means DefaultIgnoreDirs; an empty non-nil slice ignores nothing.
	IgnoreDirs []string
	// MaxDepth limits descent; 0 means unlimited. 1 visits root entries only.
	MaxDepth int
}

func (o Options) ignored() map[string]struct{} {
	dirs := o.IgnoreDirs
	if dirs == nil {
		dirs = DefaultIgnoreDirs
	}
	out := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d != "" {
			out[d] = struct{}{}
		}
	}
	return out
}

// Walk visits fsys in lexical order. Unreadable subtrees are skipped; only a
// failure to read the root is returned.
func Walk(fsys fs.FS, opts Options, cb VisitFunc) error {
	if fsys == nil {
		return errors.New("scan: nil filesystem")
	}
	if cb == nil {
		cb = func(FileVisit) {}
	}
	ignore := opts.ignored()
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == "." {
			return nil
		}
		depth := strings.Count(p, "/")
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := ignore[d.Name()]; skip {
				return fs.SkipDir
			}
			cb(FileVisit{Path: p, IsDir: true, Depth: depth})
			return nil
		}
		var size int64
		if info, e := d.Info(); e == nil {
			size = info.Size()
		}
		cb(FileVisit{
			Path:  p,
			Ext:   strings.ToLower(path.Ext(p)),
			Size:  size,
			Depth: depth,
		})
		return nil
	})
}
