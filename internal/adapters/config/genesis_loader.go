package config

import (
	"context"

	"github.com/urbandao/urbandao/internal/config"
	domainconfig "github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/urban"
	"github.com/urbandao/urbandao/internal/usecase"
)

// GenesisLoaderAdapter reads the configured genesis file
type GenesisLoaderAdapter struct {
	cfg *config.RuntimeConfig
}

// NewGenesisLoaderAdapter creates a new adapter
func NewGenesisLoaderAdapter(cfg *config.RuntimeConfig) *GenesisLoaderAdapter {
	return &GenesisLoaderAdapter{cfg: cfg}
}

// Load parses the genesis file and resolves it against runtime defaults
func (a *GenesisLoaderAdapter) Load(_ context.Context) (urban.Params, urban.Genesis, error) {
	file, err := config.LoadGenesis(a.cfg.GenesisPath)
	if err != nil {
		return urban.Params{}, urban.Genesis{}, err
	}
	return config.ResolveGenesis(a.cfg, file)
}

// ProposalLoaderAdapter reads proposal files
type ProposalLoaderAdapter struct{}

// NewProposalLoaderAdapter creates a new adapter
func NewProposalLoaderAdapter() *ProposalLoaderAdapter {
	return &ProposalLoaderAdapter{}
}

// Load parses and validates a proposal file
func (ProposalLoaderAdapter) Load(path string) (*domainconfig.ProposalFile, error) {
	return config.LoadProposal(path)
}

// Ensure the adapters implement the interfaces
var (
	_ usecase.GenesisLoader  = (*GenesisLoaderAdapter)(nil)
	_ usecase.ProposalLoader = (*ProposalLoaderAdapter)(nil)
)
