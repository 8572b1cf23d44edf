package progress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutTerminalCallsDirectly(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	got, err := Run(context.Background(), f, "working", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = Run(context.Background(), nil, "working", func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestModelLifecycle(t *testing.T) {
	m := newModel("Analysing repository")
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Analysing repository")

	next, cmd := m.Update(spinner.TickMsg{})
	_ = cmd
	assert.Contains(t, next.View(), "Analysing repository")

	next, cmd = next.Update(doneMsg{})
	assert.NotNil(t, cmd)
	assert.Empty(t, next.View())
}
