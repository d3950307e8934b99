package progress

import (
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewNopSink creates a no-op progress sink
func NewNopSink() usecase.ProgressSink {
	return usecase.NopProgress{}
}

// NewProgressSink picks the spinner for terminals and stays silent when
// output is machine-read.
func NewProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.JSON || cfg.NonInteractive {
		return NewNopSink()
	}
	return NewSpinnerSink()
}
