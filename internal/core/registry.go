package core

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const registryABI = `[
	{"type":"function","name":"registerModule","inputs":[
		{"name":"moduleId","type":"string"},
		{"name":"implementation","type":"address"}],"outputs":[]}
]`

var registryParsed = MustABI(registryABI)

func (c *Core) ID() string      { return models.ModuleCore }
func (c *Core) Version() string { return Version }
func (c *Core) ABI() abi.ABI    { return registryParsed }

func (c *Core) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"registerModule": {domain.RoleAdminGovt},
	}
}

// Invoke serves the registry's own methods. It runs inside Dispatch, so the
// core lock is already held.
func (c *Core) Invoke(ctx context.Context, inv *Invocation) (uint64, error) {
	switch inv.Method.Name {
	case "registerModule":
		return 0, c.registerModule(ctx, inv, inv.Args.String(0), inv.Args.Address(1))
	}
	return 0, domain.UnknownMethodErr{Module: c.ID(), Method: inv.Method.Name}
}

func (c *Core) registerModule(ctx context.Context, inv *Invocation, id string, impl common.Address) error {
	if impl == (common.Address{}) {
		return fmt.Errorf("%w: zero implementation", domain.ErrInvalidIdentity)
	}
	if id == models.ModuleCore {
		return fmt.Errorf("%w: the registry cannot be replaced", domain.ErrInvalidInput)
	}
	m, ok := c.catalog[impl]
	if !ok {
		return fmt.Errorf("%w: implementation %s is not installed", domain.ErrNotFound, impl.Hex())
	}
	if m.ID() != id {
		return fmt.Errorf("%w: implementation %s serves %q, not %q", domain.ErrInvalidInput, impl.Hex(), m.ID(), id)
	}

	prev := c.pointers[id]
	journal.Set(inv.Journal, c.pointers, id, impl)
	return inv.Emit(ctx, domain.Event{
		Type: domain.EventModuleRegistered,
		From: prev.Hex(),
		To:   impl.Hex(),
		Data: map[string]string{"module": id, "version": m.Version()},
	})
}
