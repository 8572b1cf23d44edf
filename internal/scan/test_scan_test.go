package scan

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
	"testing/fstest"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestWalk_SkipsDefaultIgnores(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.txt", "root file")
	write(t, root, "dir1/b.txt", "child file")
	write(t, root, "dir1/vendor/skip.txt", "ignored vendor")
	write(t, root, "node_modules/x.txt", "ignored nm")
	write(t, root, ".git/HEAD", "ref")
	write(t, root, "deep/level2/c.txt", "deep file")

	var got []string
	err := Walk(os.DirFS(root), Options{}, func(fv FileVisit) {
		if !fv.IsDir {
			got = append(got, fv.Path)
		}
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	sort.Strings(got)
	want := []string{"a.txt", "deep/level2/c.txt", "dir1/b.txt"}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestWalk_Depth(t *testing.T) {
	fsys := fstest.MapFS{
		"a.txt":      {Data: []byte("a")},
		"dir1/b.txt": {Data: []byte("b")},
		"d/e/f.txt":  {Data: []byte("f")},
	}
	var files []string
	if err := Walk(fsys, Options{MaxDepth: 1}, func(fv FileVisit) {
		if !fv.IsDir {
			files = append(files, fv.Path)
		}
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !slices.Equal(files, []string{"a.txt"}) {
		t.Fatalf("files=%v", files)
	}
}

func TestWalk_EmptyIgnoreListKeepsEverything(t *testing.T) {
	fsys := fstest.MapFS{
		"node_modules/x.js": {Data: []byte("x")},
	}
	var files []string
	if err := Walk(fsys, Options{IgnoreDirs: []string{}}, func(fv FileVisit) {
		if !fv.IsDir {
			files = append(files, fv.Path)
		}
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !slices.Equal(files, []string{"node_modules/x.js"}) {
		t.Fatalf("files=%v", files)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	err := Walk(os.DirFS(filepath.Join(t.TempDir(), "missing")), Options{}, nil)
	if err == nil {
		t.Fatalf("expected error for missing root")
	}
}
