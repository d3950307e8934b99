package core

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/journal"
)

// Module is the logic currently serving a module id. Implementations hold no
// state of their own beyond a pointer to the state slot of their id, so a
// newer implementation can take over the same data.
type Module interface {
	ID() string
	Version() string
	ABI() abi.ABI
	// Permissions maps each ABI method to the roles allowed to call it. An
	// empty slice marks a public method; a missing entry denies the call.
	Permissions() map[string][]domain.Role
	Invoke(ctx context.Context, inv *Invocation) (uint64, error)
}

// RoleChecker answers role membership questions.
type RoleChecker interface {
	HasRole(account common.Address, role domain.Role) bool
}

// Dispatcher routes a call to its module inside an already open journal.
type Dispatcher interface {
	Dispatch(ctx context.Context, j *journal.Journal, call Call) (uint64, error)
}

// EventSink receives committed events.
type EventSink interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Call is one request to run a module method.
type Call struct {
	// Caller is the effective caller used for every authorization check.
	Caller common.Address
	// Relayer is the transport caller of a relayed request; zero for direct calls.
	Relayer common.Address
	Module  string
	// Role optionally pins the role the caller acts under.
	Role domain.Role
	Data []byte
}

// Invocation is a decoded, authorized call handed to a module.
type Invocation struct {
	Call
	Method  *abi.Method
	Args    Args
	Role    domain.Role
	Journal *journal.Journal

	roles RoleChecker
}

// Now is the execution time of the call.
func (inv *Invocation) Now() time.Time {
	return inv.Journal.Now()
}

// Holds reports whether the effective caller holds role.
func (inv *Invocation) Holds(role domain.Role) bool {
	return inv.HasRole(inv.Caller, role)
}

// HasRole reports whether any account holds role.
func (inv *Invocation) HasRole(account common.Address, role domain.Role) bool {
	return inv.roles != nil && inv.roles.HasRole(account, role)
}

// Emit records an event on behalf of the invoked module.
func (inv *Invocation) Emit(ctx context.Context, ev domain.Event) error {
	if ev.Actor == (common.Address{}) {
		ev.Actor = inv.Caller
	}
	if ev.Module == "" {
		ev.Module = inv.Module
	}
	return inv.Journal.Emit(ctx, ev)
}

// ModuleAddress is the stable identity a module acts under when it calls
// another module or when it is granted roles.
func ModuleAddress(id string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("urbandao.module." + id))[12:])
}

// ImplementationAddress identifies one version of a module's logic.
func ImplementationAddress(id, version string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("urbandao.impl." + id + "@" + version))[12:])
}

// MustABI parses a JSON ABI definition, panicking on malformed input. Module
// ABIs are compile-time constants.
func MustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
