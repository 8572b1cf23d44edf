package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrinterRoutesOutput(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errw bytes.Buffer
	p := &Printer{Out: &out, Err: &errw}

	p.Document("stages: []")
	p.Warning("check %s", "images")
	p.Info("analysed %d files", 3)
	p.Error("failed")

	assert.Equal(t, "stages: []\n", out.String())
	assert.Contains(t, errw.String(), "check images")
	assert.Contains(t, errw.String(), "analysed 3 files")
	assert.Contains(t, errw.String(), "❌ failed")
}

func TestPrinterQuiet(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var errw bytes.Buffer
	p := &Printer{Out: &bytes.Buffer{}, Err: &errw, Quiet: true}
	p.Info("hidden")
	p.Title("hidden")
	p.Separator()
	p.Warning("shown")

	assert.NotContains(t, errw.String(), "hidden")
	assert.Contains(t, errw.String(), "shown")
}
