// Package moduletest wires a core with a bootstrapped role table for module
// package tests.
package moduletest

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/modules/access"
)

// Genesis is the start time of every harness clock.
var Genesis = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type Harness struct {
	t     *testing.T
	Clock *domain.ManualClock
	Core  *core.Core
	Roles *access.State
	Admin common.Address
}

// New returns a core with the access module installed and Admin holding
// AdminGovt.
func New(t *testing.T) *Harness {
	t.Helper()
	h := &Harness{
		t:     t,
		Clock: domain.NewManualClock(Genesis),
		Roles: access.NewState(),
		Admin: Addr(0xad),
	}
	require.NoError(t, h.Roles.Bootstrap(h.Admin, Genesis))
	h.Core = core.New(h.Clock, h.Roles, nil, nil)
	h.Core.Install(access.New(h.Roles))
	return h
}

// Addr builds a readable test address.
func Addr(n uint64) common.Address {
	return common.BigToAddress(new(big.Int).SetUint64(n))
}

// Grant gives account each role through a real grantRole call by Admin.
func (h *Harness) Grant(account common.Address, roles ...domain.Role) {
	h.t.Helper()
	for _, r := range roles {
		h.MustCall(h.Admin, "access", "grantRole", account, uint8(r))
	}
}

// Call packs and executes method on the live implementation of module.
func (h *Harness) Call(caller common.Address, module, method string, args ...interface{}) (*core.Outcome, error) {
	h.t.Helper()
	mod := h.Core.Module(module)
	if mod == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModule, module)
	}
	data, err := core.Pack(mod, method, args...)
	require.NoError(h.t, err)
	return h.Core.Execute(context.Background(), core.Call{Caller: caller, Module: module, Data: data})
}

// MustCall is Call that fails the test on error.
func (h *Harness) MustCall(caller common.Address, module, method string, args ...interface{}) *core.Outcome {
	h.t.Helper()
	out, err := h.Call(caller, module, method, args...)
	require.NoError(h.t, err, "%s.%s", module, method)
	return out
}

// Types lists the event types of an outcome in order.
func Types(out *core.Outcome) []domain.EventType {
	types := make([]domain.EventType, len(out.Events))
	for i, ev := range out.Events {
		types[i] = ev.Type
	}
	return types
}
