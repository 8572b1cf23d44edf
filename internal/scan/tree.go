package scan

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/dustin/go-humanize"
)

// Tree is an immutable index of one walk.
type Tree struct {
	files  []string
	dirs   []string
	fileOf map[string]struct{}
	dirOf  map[string]struct{}
	byBase map[string][]string
	bytes  int64
}

// Index walks fsys and returns the resulting Tree.
func Index(fsys fs.FS, opts Options) (*Tree, error) {
	t := &Tree{
		fileOf: map[string]struct{}{},
		dirOf:  map[string]struct{}{},
		byBase: map[string][]string{},
	}
	err := Walk(fsys, opts, func(fv FileVisit) {
		if fv.IsDir {
			t.dirs = append(t.dirs, fv.Path)
			t.dirOf[fv.Path] = struct{}{}
			return
		}
		t.files = append(t.files, fv.Path)
		t.fileOf[fv.Path] = struct{}{}
		base := path.Base(fv.Path)
		t.byBase[base] = append(t.byBase[base], fv.Path)
		t.bytes += fv.Size
	})
	if err != nil {
		return nil, fmt.Errorf("scan: index: %w", err)
	}
	for _, paths := range t.byBase {
		sortByDepth(paths)
	}
	return t, nil
}

// Files returns every indexed file path in lexical walk order.
func (t *Tree) Files() []string { return append([]string(nil), t.files...) }

// Dirs returns every indexed directory path.
func (t *Tree) Dirs() []string { return append([]string(nil), t.dirs...) }

// Len reports the number of indexed files.
func (t *Tree) Len() int { return len(t.files) }

// Empty reports whether the walk found no files at all.
func (t *Tree) Empty() bool { return len(t.files) == 0 }

// HasFile reports whether rel is an indexed file.
func (t *Tree) HasFile(rel string) bool {
	_, ok := t.fileOf[rel]
	return ok
}

// HasDir reports whether rel is an indexed directory.
func (t *Tree) HasDir(rel string) bool {
	_, ok := t.dirOf[rel]
	return ok
}

// FindBase returns the files named base, shallowest first.
func (t *Tree) FindBase(base string) []string {
	return append([]string(nil), t.byBase[base]...)
}

// Glob returns indexed files matching a doublestar pattern, in walk order.
// A leading "**/" also matches root-level files.
func (t *Tree) Glob(pattern string) []string {
	var out []string
	for _, f := range t.files {
		if globMatch(pattern, f) {
			out = append(out, f)
		}
	}
	return out
}

// AnyGlob reports whether any file matches any of the patterns.
func (t *Tree) AnyGlob(patterns ...string) (string, bool) {
	for _, f := range t.files {
		for _, p := range patterns {
			if globMatch(p, f) {
				return f, true
			}
		}
	}
	return "", false
}

// Summary describes the index in one line, e.g. "indexed 12 files in 3 directories (4.1 kB)".
func (t *Tree) Summary() string {
	return fmt.Sprintf("indexed %d files in %d directories (%s)", len(t.files), len(t.dirs), humanize.Bytes(uint64(t.bytes)))
}

func globMatch(pattern, name string) bool {
	if ok, err := doublestar.Match(pattern, name); err == nil && ok {
		return true
	}
	if rest, found := strings.CutPrefix(pattern, "**/"); found {
		if ok, err := doublestar.Match(rest, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Depth counts the directories between the root and rel.
func Depth(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(rel, "/")
}

func sortByDepth(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		di, dj := Depth(paths[i]), Depth(paths[j])
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
}
