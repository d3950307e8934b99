package config

import (
	"path/filepath"
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	DataDir     string
	GenesisPath string

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Signing: the key name (env var or .env entry) calls are sent from
	From string

	// MetricsFile, when set, receives the command's counters in the
	// Prometheus text format for a textfile collector.
	MetricsFile string

	// Genesis defaults; after init these live in persisted state
	ChainID               uint64
	Governance            Governance
	MonthlyGrievanceLimit uint64
	ReceiptBaseURI        string
}

// Governance holds the governor parameters applied at init.
type Governance struct {
	VotingDelay       time.Duration
	VotingPeriod      time.Duration
	TimelockDelay     time.Duration
	QuorumBps         uint64
	ProposalThreshold string // decimal token amount
}

// StatePath is where the engine state snapshot lives.
func (c *RuntimeConfig) StatePath() string {
	return filepath.Join(c.DataDir, "state.json")
}

// EventsPath is the sqlite event store.
func (c *RuntimeConfig) EventsPath() string {
	return filepath.Join(c.DataDir, "events.db")
}
