package config

import "github.com/urbandao/urbandao/internal/domain/config"

// RuntimeConfig is re-exported so callers wiring the CLI need one import.
type RuntimeConfig = config.RuntimeConfig
