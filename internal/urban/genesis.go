package urban

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// Grant is a role handed out at genesis.
type Grant struct {
	Account     common.Address
	Role        domain.Role
	MetadataURI string
}

// Mint is a token allocation made at genesis.
type Mint struct {
	Account common.Address
	Amount  *big.Int
}

// Area is an area created at genesis, with an optional admin head.
type Area struct {
	Name        string
	MetadataURI string
	Head        common.Address
}

// Genesis lists what the admin sets up right after bootstrap.
type Genesis struct {
	Grants []Grant
	Areas  []Area
	Mints  []Mint
}

// ApplyGenesis hands the governor its executor role, then applies grants,
// areas and mints as ordinary admin calls.
func (s *System) ApplyGenesis(ctx context.Context, g Genesis) error {
	admin := s.States.Deployment.Admin
	if _, err := s.Call(ctx, admin, domain.RoleAdminGovt, models.ModuleAccess, "grantRole",
		s.Governor.Executor(), uint8(domain.RoleAdminGovt)); err != nil {
		return fmt.Errorf("grant governor executor: %w", err)
	}

	for _, gr := range g.Grants {
		var err error
		if gr.MetadataURI != "" {
			_, err = s.Call(ctx, admin, domain.RoleNone, models.ModuleAccess, "grantRoleWithMetadata",
				gr.Account, uint8(gr.Role), gr.MetadataURI)
		} else {
			_, err = s.Call(ctx, admin, domain.RoleNone, models.ModuleAccess, "grantRole",
				gr.Account, uint8(gr.Role))
		}
		if err != nil {
			return fmt.Errorf("grant %s to %s: %w", gr.Role, gr.Account.Hex(), err)
		}
	}

	for _, a := range g.Areas {
		out, err := s.Call(ctx, admin, domain.RoleAdminGovt, models.ModuleAccess, "createArea", a.Name, a.MetadataURI)
		if err != nil {
			return fmt.Errorf("create area %q: %w", a.Name, err)
		}
		if a.Head == (common.Address{}) {
			continue
		}
		if _, err := s.Call(ctx, admin, domain.RoleAdminGovt, models.ModuleAccess, "assignAreaAdminHead",
			out.ResultID, a.Head); err != nil {
			return fmt.Errorf("assign head of area %q: %w", a.Name, err)
		}
	}

	for _, m := range g.Mints {
		if _, err := s.Call(ctx, admin, domain.RoleAdminGovt, models.ModuleToken, "mint", m.Account, m.Amount); err != nil {
			return fmt.Errorf("mint %s to %s: %w", m.Amount, m.Account.Hex(), err)
		}
	}
	return nil
}
