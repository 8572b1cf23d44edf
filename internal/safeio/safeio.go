// Package safeio exposes an acquired repository as a read-only fs.FS that
// cannot be used to escape its root, either by ".." segments or by symlinks
// pointing outside the checkout.
package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrEmptyRoot = errors.New("safeio: empty root")
	ErrNotDir    = errors.New("safeio: root is not a directory")
	ErrOutsideFS = errors.New("safeio: path resolves outside root")
	errNilFS     = errors.New("safeio: filesystem not configured")
	errIsDir     = errors.New("safeio: path is a directory")
	errIsNotDir  = errors.New("safeio: path is not a directory")
)

// SafeFS is a read-only view of one directory tree.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
}

var (
	_ fs.FS         = (*SafeFS)(nil)
	_ fs.ReadFileFS = (*SafeFS)(nil)
	_ fs.StatFS     = (*SafeFS)(nil)
	_ fs.ReadDirFS  = (*SafeFS)(nil)
)

// New binds a SafeFS to root. The root is resolved to an absolute,
// symlink-free directory once; later lookups are checked against it.
func New(root string) (*SafeFS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrEmptyRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("safeio: abs %s: %w", root, err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("safeio: resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("safeio: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, ErrNotDir
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// Open implements fs.FS. Names are slash-separated and unrooted.
func (s *SafeFS) Open(name string) (fs.File, error) {
	p, err := s.resolve("open", name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// ReadFile implements fs.ReadFileFS.
func (s *SafeFS) ReadFile(name string) ([]byte, error) {
	p, err := s.resolve("readfile", name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: errIsDir}
	}
	return os.ReadFile(p)
}

// Stat implements fs.StatFS.
func (s *SafeFS) Stat(name string) (fs.FileInfo, error) {
	p, err := s.resolve("stat", name)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// ReadDir implements fs.ReadDirFS. Entries come back sorted by name.
func (s *SafeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := s.resolve("readdir", name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errIsNotDir}
	}
	return os.ReadDir(p)
}

func (s *SafeFS) resolve(op, name string) (string, error) {
	if s == nil {
		return "", errNilFS
	}
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return s.absRoot, nil
	}
	joined := filepath.Join(s.absRoot, filepath.FromSlash(name))
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
		}
		return "", err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return "", &fs.PathError{Op: op, Path: name, Err: ErrOutsideFS}
	}
	return resolved, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
