package token

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

const Version = "1.0.0"

const tokenABI = `[
	{"type":"function","name":"transfer","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"mint","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var parsedABI = core.MustABI(tokenABI)

type Module struct {
	state *State
}

var _ core.Module = (*Module)(nil)

func New(state *State) *Module {
	return &Module{state: state}
}

func (m *Module) ID() string      { return models.ModuleToken }
func (m *Module) Version() string { return Version }
func (m *Module) ABI() abi.ABI    { return parsedABI }
func (m *Module) State() *State   { return m.state }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"transfer": {},
		"mint":     {domain.RoleAdminGovt},
	}
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	switch inv.Method.Name {
	case "transfer":
		return 0, m.state.Transfer(ctx, inv.Journal, inv.Caller, inv.Caller, inv.Args.Address(0), inv.Args.Big(1))
	case "mint":
		return 0, m.state.Mint(ctx, inv.Journal, inv.Caller, inv.Args.Address(0), inv.Args.Big(1))
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}
