package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
)

// CallModule sends one direct call from a local key
type CallModule struct {
	engine *Engine
	keys   KeyStore
}

// NewCallModule creates a new call use case
func NewCallModule(engine *Engine, keys KeyStore) *CallModule {
	return &CallModule{engine: engine, keys: keys}
}

// CallParams contains parameters for a module call
type CallParams struct {
	// From names the key the call is sent from
	From string
	// Role optionally pins the role to act under
	Role   string
	Module string
	Method string
	Args   []string
}

// CallResult contains the committed outcome
type CallResult struct {
	Caller  common.Address
	Outcome *core.Outcome
}

// Execute encodes, runs and persists a call
func (c *CallModule) Execute(ctx context.Context, params CallParams) (*CallResult, error) {
	caller, err := c.caller(params.From)
	if err != nil {
		return nil, err
	}
	role := domain.RoleNone
	if params.Role != "" {
		if role, err = domain.ParseRole(params.Role); err != nil {
			return nil, err
		}
	}

	sys, err := c.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	data, err := sys.Encode(params.Module, params.Method, params.Args)
	if err != nil {
		return nil, err
	}

	out, err := sys.Core.Execute(ctx, core.Call{Caller: caller, Role: role, Module: params.Module, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s.%s reverted: %w", params.Module, params.Method, err)
	}
	if err := c.engine.Save(ctx, sys); err != nil {
		return nil, err
	}
	return &CallResult{Caller: caller, Outcome: out}, nil
}

func (c *CallModule) caller(name string) (common.Address, error) {
	if name == "" {
		return common.Address{}, fmt.Errorf("%w: no sender key given (use --from)", domain.ErrInvalidIdentity)
	}
	key, err := c.keys.Key(name)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// Resolve turns an address or a key name into an address.
func (c *CallModule) Resolve(account string) (common.Address, error) {
	if common.IsHexAddress(account) {
		return common.HexToAddress(account), nil
	}
	return c.caller(account)
}
