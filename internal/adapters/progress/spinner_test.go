package progress

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/usecase"
)

func TestSpinnerSink_StageLines(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	p := newSpinnerSink(&buf)

	p.Stage("Loading genesis")
	p.Stage("Saving state")
	p.Done()
	p.Done()

	assert.Contains(t, buf.String(), "✓ Loading genesis\n")
	assert.Contains(t, buf.String(), "✓ Saving state\n")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Saving state\n")))
}

func TestSpinnerSink_Error(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	p := newSpinnerSink(&buf)

	p.Stage("Applying genesis")
	p.Error("Genesis rejected")

	assert.Contains(t, buf.String(), "✗ Applying genesis\n")
	assert.Contains(t, buf.String(), "✗ Genesis rejected\n")
}

func TestNewProgressSink(t *testing.T) {
	assert.IsType(t, usecase.NopProgress{}, NewProgressSink(&config.RuntimeConfig{JSON: true}))
	assert.IsType(t, usecase.NopProgress{}, NewProgressSink(&config.RuntimeConfig{NonInteractive: true}))
	assert.IsType(t, &SpinnerSink{}, NewProgressSink(&config.RuntimeConfig{}))
}
