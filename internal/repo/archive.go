package repo

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxExtractBytes = 2 << 30

var (
	errUnsupportedArchive = errors.New("unsupported archive format")
	errUnsafeEntry        = errors.New("archive entry escapes the extraction directory")
	errArchiveTooLarge    = errors.New("archive expands beyond the size limit")
)

var archiveExtensions = []string{".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2"}

func archiveFormat(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return "tar.bz2"
	case strings.HasSuffix(lower, ".tar"):
		return "tar"
	}
	return ""
}

func (p *Provider) extract(ctx context.Context, archive string) (*Workspace, error) {
	format := archiveFormat(archive)
	logs := []string{fmt.Sprintf("using archive %s (%s)", archive, format)}
	fail := func(err error) (*Workspace, error) {
		return nil, &AcquisitionError{Kind: KindArchive, Locator: archive, Logs: logs, Err: err}
	}

	tmp, err := p.tempDir("repo2pipe-archive-*")
	if err != nil {
		logs = append(logs, fmt.Sprintf("could not create a temporary directory: %v", err))
		return fail(err)
	}
	dest := filepath.Join(tmp, "repo")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		_ = os.RemoveAll(tmp)
		return fail(err)
	}
	logs = append(logs, fmt.Sprintf("extracting into %s", dest))

	var n int
	switch format {
	case "zip":
		n, err = extractZip(ctx, archive, dest)
	default:
		n, err = extractTarFile(ctx, archive, format, dest)
	}
	if err != nil {
		logs = append(logs, fmt.Sprintf("extraction failed: %v", err))
		_ = os.RemoveAll(tmp)
		return fail(err)
	}
	logs = append(logs, fmt.Sprintf("extracted %d files", n))

	root := unwrapSingleDir(dest)
	if root != dest {
		logs = append(logs, fmt.Sprintf("archive has a single top-level directory; using %s", filepath.Base(root)))
	}
	ws, err := newWorkspace(root, KindArchive, tmp, logs)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return fail(err)
	}
	return ws, nil
}

func extractZip(ctx context.Context, archive, dest string) (int, error) {
	zr, err := zip.OpenReader(archive)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return 0, fmt.Errorf("%w: %v", errUnsafeEntry, err)
	}
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	var files int
	var total int64
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return files, err
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
			continue
		case !mode.IsRegular():
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return files, err
		}
		written, err := writeFile(target, rc, maxExtractBytes-total)
		rc.Close()
		if err != nil {
			return files, err
		}
		total += written
		files++
	}
	return files, nil
}

func extractTarFile(ctx context.Context, archive, format, dest string) (int, error) {
	f, err := os.Open(archive)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case "tar.gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		r = gz
	case "tar.bz2":
		r = bzip2.NewReader(f)
	}
	return extractTar(ctx, tar.NewReader(r), dest)
}

func extractTar(ctx context.Context, tr *tar.Reader, dest string) (int, error) {
	var files int
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return files, fmt.Errorf("%w: %v", errUnsafeEntry, err)
		}
		if err != nil {
			return files, err
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return files, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			written, err := writeFile(target, tr, maxExtractBytes-total)
			if err != nil {
				return files, err
			}
			total += written
			files++
		}
	}
}

// safeJoin resolves an archive entry name under dest, rejecting absolute
// names and ".." escapes.
func safeJoin(dest, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", errUnsafeEntry, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errUnsafeEntry, name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(r, budget+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	if n > budget {
		return n, errArchiveTooLarge
	}
	return n, nil
}

// unwrapSingleDir returns the only child of dir when dir holds exactly one
// entry and it is a directory, which is how most source archives are laid out.
func unwrapSingleDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}
