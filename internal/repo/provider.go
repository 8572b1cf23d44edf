// Package repo makes a repository available on local disk: a directory used
// in place, an extracted archive, or a shallow git clone.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Provider acquires repositories. The zero value clones with depth 1 into the
// system temp directory and does not force a branch.
type Provider struct {
	// BaseDir is the parent for temporary directories; empty means os.TempDir().
	BaseDir string
	// DefaultBranch is used when Acquire is called without a branch.
	DefaultBranch string
	// Depth is the clone depth; values below 1 mean 1.
	Depth int
	// RemoteOnly accepts remote URLs only; local paths and file:// URLs
	// are rejected without touching the filesystem.
	RemoteOnly bool
}

// NewProvider returns a Provider with the given settings.
func NewProvider(baseDir, defaultBranch string, depth int) *Provider {
	return &Provider{BaseDir: baseDir, DefaultBranch: defaultBranch, Depth: depth}
}

var (
	reSCPLike   = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^/]`)
	reShorthand = regexp.MustCompile(`^(github\.com|gitlab\.com|bitbucket\.org)/[^/\s]+/[^/\s]+?(\.git)?/?$`)
)

var remoteSchemes = []string{"https://", "http://", "ssh://", "git://", "git+ssh://"}

var errLocalDisabled = errors.New("local repositories are disabled")

// Acquire resolves locator to a Workspace. Errors are always
// *AcquisitionError. The caller owns the workspace and must call Cleanup.
func (p *Provider) Acquire(ctx context.Context, locator, branch string) (*Workspace, error) {
	locator = strings.TrimSpace(locator)
	branch = strings.TrimSpace(branch)
	if locator == "" {
		return nil, &AcquisitionError{Kind: KindPath, Locator: locator, Err: errors.New("repository locator is empty"),
			Logs: []string{"no repository given"}}
	}
	if err := ctx.Err(); err != nil {
		return nil, &AcquisitionError{Kind: KindPath, Locator: locator, Err: err}
	}

	if p.RemoteOnly {
		url, ok := remoteURL(locator, false)
		if !ok {
			return nil, &AcquisitionError{
				Kind: KindPath, Locator: locator, Err: errLocalDisabled,
				Logs: []string{"only remote repository URLs are accepted here"},
			}
		}
		return p.clone(ctx, url, branch)
	}
	if url, ok := remoteURL(locator, true); ok {
		return p.clone(ctx, url, branch)
	}

	info, err := os.Stat(locator)
	switch {
	case err != nil:
		return nil, &AcquisitionError{
			Kind: KindPath, Locator: locator, Err: err,
			Logs: []string{fmt.Sprintf("path %s does not exist and is not a recognised repository URL", locator)},
		}
	case info.IsDir():
		return p.local(locator, branch)
	case archiveFormat(locator) != "":
		return p.extract(ctx, locator)
	default:
		return nil, &AcquisitionError{
			Kind: KindArchive, Locator: locator, Err: errUnsupportedArchive,
			Logs: []string{fmt.Sprintf("%s is a file but not a supported archive (%s)", locator, strings.Join(archiveExtensions, ", "))},
		}
	}
}

func (p *Provider) local(dir, branch string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &AcquisitionError{Kind: KindPath, Locator: dir, Err: err}
	}
	logs := []string{fmt.Sprintf("using local directory %s", abs)}
	if _, err := os.Stat(filepath.Join(abs, ".git")); err == nil {
		logs = append(logs, "directory is a git working tree; analysing it as checked out")
	}
	if branch != "" && branch != p.DefaultBranch {
		logs = append(logs, fmt.Sprintf("branch %s ignored for a local directory", branch))
	}
	ws, err := newWorkspace(abs, KindPath, "", logs)
	if err != nil {
		return nil, &AcquisitionError{Kind: KindPath, Locator: dir, Logs: logs, Err: err}
	}
	return ws, nil
}

func (p *Provider) tempDir(pattern string) (string, error) {
	base := p.BaseDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create temp base %s: %w", base, err)
	}
	return os.MkdirTemp(base, pattern)
}

func (p *Provider) depth() int {
	if p.Depth < 1 {
		return 1
	}
	return p.Depth
}

// remoteURL reports whether locator names a repository git should clone and
// returns the URL. With allowLocal, file:// URLs are accepted and existing
// paths shadow the scp-like and shorthand forms; without it the filesystem
// is never consulted.
func remoteURL(locator string, allowLocal bool) (string, bool) {
	lower := strings.ToLower(locator)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return locator, true
		}
	}
	if strings.HasPrefix(lower, "file://") {
		return locator, allowLocal
	}
	shadowed := allowLocal && isExistingPath(locator)
	if reSCPLike.MatchString(locator) && !shadowed {
		return locator, true
	}
	if reShorthand.MatchString(locator) && !shadowed {
		return "https://" + strings.TrimSuffix(locator, "/"), true
	}
	return "", false
}

func isExistingPath(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
