package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/modules/governor"
	"github.com/urbandao/urbandao/internal/urban"
)

// LoadGenesis reads a genesis.toml file.
func LoadGenesis(path string) (*config.GenesisFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("genesis file %s: %w", path, err)
	}
	var file config.GenesisFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &file, nil
}

// ResolveGenesis turns the genesis file and runtime defaults into the
// parameters and setup calls of a fresh system. The file's chain id wins over
// the configured one.
func ResolveGenesis(cfg *RuntimeConfig, file *config.GenesisFile) (urban.Params, urban.Genesis, error) {
	var params urban.Params
	var genesis urban.Genesis

	admin, err := ParseAddress(file.Admin)
	if err != nil {
		return params, genesis, fmt.Errorf("admin: %w", err)
	}
	treasury, err := ParseAddress(file.Treasury)
	if err != nil {
		return params, genesis, fmt.Errorf("treasury: %w", err)
	}
	chainID := cfg.ChainID
	if file.ChainID != 0 {
		chainID = file.ChainID
	}

	relayers := make([]common.Address, 0, len(file.Relayers))
	for _, r := range file.Relayers {
		addr, err := ParseAddress(r)
		if err != nil {
			return params, genesis, fmt.Errorf("relayer: %w", err)
		}
		relayers = append(relayers, addr)
	}

	gov, err := GovernorParams(cfg.Governance)
	if err != nil {
		return params, genesis, err
	}

	params = urban.Params{
		Deployment: urban.Deployment{
			ChainID:  chainID,
			Admin:    admin,
			Treasury: treasury,
			Relayers: relayers,
		},
		Governance:     gov,
		MonthlyLimit:   cfg.MonthlyGrievanceLimit,
		ReceiptBaseURI: cfg.ReceiptBaseURI,
	}

	for _, g := range file.Grants {
		account, err := ParseAddress(g.Account)
		if err != nil {
			return params, genesis, fmt.Errorf("grant: %w", err)
		}
		for _, name := range g.Roles {
			role, err := domain.ParseRole(name)
			if err != nil {
				return params, genesis, fmt.Errorf("grant to %s: %w", g.Account, err)
			}
			genesis.Grants = append(genesis.Grants, urban.Grant{Account: account, Role: role, MetadataURI: g.Metadata})
		}
	}

	for _, a := range file.Areas {
		area := urban.Area{Name: a.Name, MetadataURI: a.Metadata}
		if a.Head != "" {
			head, err := ParseAddress(a.Head)
			if err != nil {
				return params, genesis, fmt.Errorf("area %q head: %w", a.Name, err)
			}
			area.Head = head
		}
		genesis.Areas = append(genesis.Areas, area)
	}

	for _, m := range file.Mints {
		account, err := ParseAddress(m.Account)
		if err != nil {
			return params, genesis, fmt.Errorf("mint: %w", err)
		}
		amount, ok := new(big.Int).SetString(m.Amount, 10)
		if !ok || amount.Sign() <= 0 {
			return params, genesis, fmt.Errorf("%w: mint amount %q for %s", domain.ErrInvalidAmount, m.Amount, m.Account)
		}
		genesis.Mints = append(genesis.Mints, urban.Mint{Account: account, Amount: amount})
	}

	return params, genesis, nil
}

// GovernorParams converts configured governance settings.
func GovernorParams(g config.Governance) (governor.Params, error) {
	threshold := new(big.Int)
	if g.ProposalThreshold != "" {
		if _, ok := threshold.SetString(g.ProposalThreshold, 10); !ok {
			return governor.Params{}, fmt.Errorf("%w: proposal threshold %q", domain.ErrInvalidAmount, g.ProposalThreshold)
		}
	}
	return governor.Params{
		VotingDelay:       g.VotingDelay,
		VotingPeriod:      g.VotingPeriod,
		TimelockDelay:     g.TimelockDelay,
		QuorumBps:         g.QuorumBps,
		ProposalThreshold: threshold,
	}, nil
}

// ParseAddress accepts a 0x-prefixed hex address and rejects the zero address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not an address", domain.ErrInvalidInput, s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: zero address", domain.ErrInvalidIdentity)
	}
	return addr, nil
}
