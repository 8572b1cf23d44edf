package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo2pipe/internal/config"
	"repo2pipe/internal/console"
)

func testSetup(t *testing.T) (*config.Config, *console.Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	cfg := &config.Config{
		WorkDir:           t.TempDir(),
		DefaultBranch:     "main",
		CloneDepth:        1,
		MaxConcurrentRuns: 1,
		Results:           config.ResultsConfig{Store: config.StoreMemory},
	}
	var out, errw bytes.Buffer
	return cfg, &console.Printer{Out: &out, Err: &errw}, &out, &errw
}

func pythonRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("requests\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tests"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tests", "test_app.py"), []byte("def test_ok(): pass\n"), 0o644))
	return dir
}

func execute(t *testing.T, cfg *config.Config, p *console.Printer, args ...string) error {
	t.Helper()
	cmd := newRootCmd(cfg, p)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func TestCLIWritesGitLabFile(t *testing.T) {
	cfg, p, out, errw := testSetup(t)
	outDir := t.TempDir()

	err := execute(t, cfg, p, pythonRepo(t), "-o", outDir, "--quiet")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, ".gitlab-ci.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "stages:")
	assert.Equal(t, string(data), out.String())
	assert.Contains(t, errw.String(), "Review the generated pipeline")
}

func TestCLIWritesJenkinsfile(t *testing.T) {
	cfg, p, _, _ := testSetup(t)
	outDir := t.TempDir()

	require.NoError(t, execute(t, cfg, p, pythonRepo(t), "--type", "jenkins", "-o", outDir, "-q"))
	_, err := os.Stat(filepath.Join(outDir, "Jenkinsfile"))
	assert.NoError(t, err)
}

func TestCLIFailureWritesNothing(t *testing.T) {
	cfg, p, _, errw := testSetup(t)
	outDir := t.TempDir()

	err := execute(t, cfg, p, filepath.Join(t.TempDir(), "missing"), "-o", outDir, "-q")
	require.ErrorIs(t, err, errFailed)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, errw.String(), "Pipeline generation failed")
}

func TestCLIUnsupportedType(t *testing.T) {
	cfg, p, _, _ := testSetup(t)
	err := execute(t, cfg, p, pythonRepo(t), "--type", "travis", "-o", t.TempDir(), "-q")
	assert.ErrorIs(t, err, errFailed)
}

func TestCLIJSONAndSave(t *testing.T) {
	cfg, p, out, _ := testSetup(t)

	require.NoError(t, execute(t, cfg, p, pythonRepo(t), "--json", "--save", "-o", t.TempDir()))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["run_id"])
	templates, ok := resp["ci_templates"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, templates, 2)
}

func TestCLIRequiresRepository(t *testing.T) {
	cfg, p, _, _ := testSetup(t)
	assert.Error(t, execute(t, cfg, p))
}

func TestExitCodeReportsUsageErrors(t *testing.T) {
	cases := map[string][]string{
		"missing repository": nil,
		"unknown flag":       {"--bogus", "repo"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, p, _, errw := testSetup(t)
			cmd := newRootCmd(cfg, p)
			cmd.SetArgs(args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			assert.Equal(t, 1, exitCode(context.Background(), cmd, p))
			assert.NotEmpty(t, strings.TrimSpace(errw.String()))
			assert.Contains(t, errw.String(), "repo2pipe --help")
		})
	}
}

func TestExitCodeDoesNotRepeatReportedFailure(t *testing.T) {
	cfg, p, _, errw := testSetup(t)
	cmd := newRootCmd(cfg, p)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing"), "-q", "-o", t.TempDir()})

	assert.Equal(t, 1, exitCode(context.Background(), cmd, p))
	assert.Equal(t, 1, strings.Count(errw.String(), "Pipeline generation failed"))
	assert.NotContains(t, errw.String(), "--help")
}
