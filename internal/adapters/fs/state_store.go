package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/urban"
	"github.com/urbandao/urbandao/internal/usecase"
)

// StateStoreAdapter implements StateStore as a single JSON file
type StateStoreAdapter struct {
	statePath string
}

// NewStateStoreAdapter creates a new StateStoreAdapter
func NewStateStoreAdapter(cfg *config.RuntimeConfig) *StateStoreAdapter {
	return &StateStoreAdapter{statePath: cfg.StatePath()}
}

// Exists reports whether a state file has been written
func (s *StateStoreAdapter) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.statePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat state file: %w", err)
}

// Load reads the state file into freshly allocated slots
func (s *StateStoreAdapter) Load(_ context.Context) (*urban.States, error) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	states := urban.EmptyStates()
	if err := json.Unmarshal(data, states); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.statePath, err)
	}
	return states, nil
}

// Save writes the state next to the target and renames it into place, so a
// crash never leaves a half-written file behind.
func (s *StateStoreAdapter) Save(_ context.Context, states *urban.States) error {
	dir := filepath.Dir(s.statePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.statePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Path returns the state file location
func (s *StateStoreAdapter) Path() string {
	return s.statePath
}

// Ensure StateStoreAdapter implements StateStore
var _ usecase.StateStore = (*StateStoreAdapter)(nil)
