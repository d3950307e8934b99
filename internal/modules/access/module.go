package access

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const Version = "1.0.0"

const accessABI = `[
	{"type":"function","name":"grantRole","inputs":[
		{"name":"account","type":"address"},
		{"name":"role","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"grantRoleWithMetadata","inputs":[
		{"name":"account","type":"address"},
		{"name":"role","type":"uint8"},
		{"name":"metadataUri","type":"string"}],"outputs":[]},
	{"type":"function","name":"revokeRole","inputs":[
		{"name":"account","type":"address"},
		{"name":"role","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"renounceRole","inputs":[
		{"name":"role","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"createArea","inputs":[
		{"name":"name","type":"string"},
		{"name":"metadataUri","type":"string"}],"outputs":[{"name":"areaId","type":"uint64"}]},
	{"type":"function","name":"assignAreaAdminHead","inputs":[
		{"name":"areaId","type":"uint64"},
		{"name":"adminHead","type":"address"}],"outputs":[]},
	{"type":"function","name":"requestRole","inputs":[
		{"name":"role","type":"uint8"},
		{"name":"areaId","type":"uint64"},
		{"name":"metadataUri","type":"string"}],"outputs":[{"name":"requestId","type":"uint64"}]},
	{"type":"function","name":"approveRoleRequest","inputs":[
		{"name":"requestId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"rejectRoleRequest","inputs":[
		{"name":"requestId","type":"uint64"},
		{"name":"reason","type":"string"}],"outputs":[]}
]`

var parsedABI = core.MustABI(accessABI)

var admins = []domain.Role{domain.RoleAdminHead, domain.RoleAdminGovt}

// Module serves the role table, the area registry and role requests.
type Module struct {
	state *State
}

var _ core.Module = (*Module)(nil)
var _ core.RoleChecker = (*State)(nil)

func New(state *State) *Module {
	return &Module{state: state}
}

func (m *Module) ID() string      { return models.ModuleAccess }
func (m *Module) Version() string { return Version }
func (m *Module) ABI() abi.ABI    { return parsedABI }
func (m *Module) State() *State   { return m.state }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"grantRole":             admins,
		"grantRoleWithMetadata": admins,
		"revokeRole":            admins,
		"renounceRole":          {},
		"createArea":            {domain.RoleAdminGovt},
		"assignAreaAdminHead":   {domain.RoleAdminGovt},
		"requestRole":           {},
		"approveRoleRequest":    admins,
		"rejectRoleRequest":     admins,
	}
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	switch inv.Method.Name {
	case "grantRole":
		return 0, m.grant(ctx, inv, inv.Args.Address(0), domain.Role(inv.Args.Uint8(1)), "")
	case "grantRoleWithMetadata":
		return 0, m.grant(ctx, inv, inv.Args.Address(0), domain.Role(inv.Args.Uint8(1)), inv.Args.String(2))
	case "revokeRole":
		return 0, m.revoke(ctx, inv, inv.Args.Address(0), domain.Role(inv.Args.Uint8(1)))
	case "renounceRole":
		return 0, m.renounce(ctx, inv, domain.Role(inv.Args.Uint8(0)))
	case "createArea":
		return m.createArea(ctx, inv, inv.Args.String(0), inv.Args.String(1))
	case "assignAreaAdminHead":
		id := inv.Args.Uint64(0)
		return id, m.assignHead(ctx, inv, id, inv.Args.Address(1))
	case "requestRole":
		return m.requestRole(ctx, inv, domain.Role(inv.Args.Uint8(0)), inv.Args.Uint64(1), inv.Args.String(2))
	case "approveRoleRequest":
		id := inv.Args.Uint64(0)
		return id, m.approveRequest(ctx, inv, id)
	case "rejectRoleRequest":
		id := inv.Args.Uint64(0)
		return id, m.rejectRequest(ctx, inv, id, inv.Args.String(1))
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}

// Bootstrap seeds the single initial AdminGovt holder of a fresh role table.
func (s *State) Bootstrap(admin common.Address, at time.Time) error {
	if admin == (common.Address{}) {
		return fmt.Errorf("%w: zero admin", domain.ErrInvalidIdentity)
	}
	if len(s.Holders(domain.RoleAdminGovt)) > 0 {
		return fmt.Errorf("%w: role table already bootstrapped", domain.ErrAlreadyExists)
	}
	s.Accounts[admin] = &Account{Roles: map[domain.Role]Membership{
		domain.RoleAdminGovt: {GrantedBy: admin, GrantedAt: at},
	}}
	return nil
}

// mayAdminister checks the hierarchy for the role the call acts under, or
// for any held admin role when none was pinned.
func (m *Module) mayAdminister(inv *core.Invocation, target domain.Role) bool {
	if inv.Call.Role != domain.RoleNone {
		return domain.CanAdminister(inv.Role, target)
	}
	return lo.SomeBy(target.AdminRoles(), inv.Holds)
}

func checkTarget(account common.Address, role domain.Role) error {
	if account == (common.Address{}) {
		return fmt.Errorf("%w: zero account", domain.ErrInvalidIdentity)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: role %d", domain.ErrInvalidInput, uint8(role))
	}
	return nil
}

func (m *Module) grant(ctx context.Context, inv *core.Invocation, account common.Address, role domain.Role, metadata string) error {
	if err := checkTarget(account, role); err != nil {
		return err
	}
	if !m.mayAdminister(inv, role) {
		return fmt.Errorf("%w: %s may not grant %s", domain.ErrUnauthorized, inv.Caller.Hex(), role)
	}
	if m.state.HasRole(account, role) {
		return nil
	}
	for _, other := range role.ConflictsWith() {
		if m.state.HasRole(account, other) {
			return fmt.Errorf("%w: %s holds %s", domain.ErrRoleConflict, account.Hex(), other)
		}
	}

	next := &Account{Roles: map[domain.Role]Membership{}}
	if prev, ok := m.state.Accounts[account]; ok {
		next = prev.clone()
	}
	next.Roles[role] = Membership{GrantedBy: inv.Caller, GrantedAt: inv.Now(), MetadataURI: metadata}
	journal.Set(inv.Journal, m.state.Accounts, account, next)

	data := roleData(account, role)
	if metadata != "" {
		data["metadataUri"] = metadata
	}
	return inv.Emit(ctx, domain.Event{Type: domain.EventRoleGranted, Data: data})
}

func (m *Module) revoke(ctx context.Context, inv *core.Invocation, account common.Address, role domain.Role) error {
	if err := checkTarget(account, role); err != nil {
		return err
	}
	if !m.mayAdminister(inv, role) {
		return fmt.Errorf("%w: %s may not revoke %s", domain.ErrUnauthorized, inv.Caller.Hex(), role)
	}
	return m.remove(ctx, inv, account, role)
}

func (m *Module) renounce(ctx context.Context, inv *core.Invocation, role domain.Role) error {
	if err := checkTarget(inv.Caller, role); err != nil {
		return err
	}
	return m.remove(ctx, inv, inv.Caller, role)
}

func (m *Module) remove(ctx context.Context, inv *core.Invocation, account common.Address, role domain.Role) error {
	if !m.state.HasRole(account, role) {
		return nil
	}
	if role == domain.RoleAdminGovt && len(m.state.Holders(domain.RoleAdminGovt)) == 1 {
		return fmt.Errorf("%w: cannot remove the last %s holder", domain.ErrInvalidState, role)
	}

	next := m.state.Accounts[account].clone()
	delete(next.Roles, role)
	journal.Set(inv.Journal, m.state.Accounts, account, next)

	return inv.Emit(ctx, domain.Event{Type: domain.EventRoleRevoked, Data: roleData(account, role)})
}

func roleData(account common.Address, role domain.Role) map[string]string {
	return map[string]string{
		"account": account.Hex(),
		"role":    role.String(),
		"roleId":  role.Hash().Hex(),
	}
}
