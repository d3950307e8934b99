package config

import (
	"fmt"
	"os"

	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"gopkg.in/yaml.v3"
)

// LoadProposal reads a governance proposal file.
func LoadProposal(path string) (*config.ProposalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proposal file: %w", err)
	}

	var file config.ProposalFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse proposal file: %w", err)
	}
	if file.Description == "" {
		return nil, fmt.Errorf("%w: proposal has no description", domain.ErrInvalidInput)
	}
	if len(file.Actions) == 0 {
		return nil, fmt.Errorf("%w: proposal has no actions", domain.ErrInvalidInput)
	}
	for i, a := range file.Actions {
		if a.Module == "" || a.Method == "" {
			return nil, fmt.Errorf("%w: action %d needs module and method", domain.ErrInvalidInput, i)
		}
	}
	return &file, nil
}
