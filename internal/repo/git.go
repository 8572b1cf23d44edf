package repo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// runGitCommand is injectable in tests. It returns the combined output.
var runGitCommand = func(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (p *Provider) clone(ctx context.Context, url, branch string) (*Workspace, error) {
	if branch == "" {
		branch = p.DefaultBranch
	}
	fail := func(logs []string, err error) (*Workspace, error) {
		return nil, &AcquisitionError{Kind: KindClone, Locator: url, Branch: branch, Logs: logs, Err: err}
	}

	tmp, err := p.tempDir("repo2pipe-clone-*")
	if err != nil {
		return fail([]string{fmt.Sprintf("could not create a temporary directory: %v", err)}, err)
	}
	target := filepath.Join(tmp, "repo")
	logs := []string{fmt.Sprintf("created temporary directory %s", tmp)}

	args := []string{"clone", "--depth", strconv.Itoa(p.depth())}
	if branch != "" {
		args = append(args, "--branch", branch, "--single-branch")
	}
	args = append(args, "--", url, target)
	if branch != "" {
		logs = append(logs, fmt.Sprintf("cloning %s (branch %s, depth %d)", url, branch, p.depth()))
	} else {
		logs = append(logs, fmt.Sprintf("cloning %s (default branch, depth %d)", url, p.depth()))
	}

	out, err := runGitCommand(ctx, args...)
	logs = appendOutput(logs, out)
	if err != nil && branch != "" && branch == p.DefaultBranch && ctx.Err() == nil {
		// The configured default may not exist on this remote ("main" vs
		// "master"); fall back to whatever HEAD points at.
		logs = append(logs, fmt.Sprintf("branch %s not cloned: %v", branch, err))
		logs = append(logs, "retrying with the remote default branch")
		_ = os.RemoveAll(target)
		out, err = runGitCommand(ctx, "clone", "--depth", strconv.Itoa(p.depth()), "--", url, target)
		logs = appendOutput(logs, out)
	}
	if err != nil {
		logs = append(logs, fmt.Sprintf("clone failed: %v", err))
		_ = os.RemoveAll(tmp)
		return fail(logs, err)
	}
	logs = append(logs, fmt.Sprintf("repository cloned into %s", target))

	ws, err := newWorkspace(target, KindClone, tmp, logs)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return fail(logs, err)
	}
	return ws, nil
}

func appendOutput(logs []string, out string) []string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			logs = append(logs, "git: "+line)
		}
	}
	return logs
}
