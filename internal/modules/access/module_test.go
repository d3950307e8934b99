package access_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/modules/moduletest"
)

var (
	head      = moduletest.Addr(0x01)
	alice     = moduletest.Addr(0x02)
	bob       = moduletest.Addr(0x03)
	collector = moduletest.Addr(0x04)
)

func TestAccess_GrantHierarchy(t *testing.T) {
	h := moduletest.New(t)
	h.Grant(head, domain.RoleAdminHead)

	tests := []struct {
		name    string
		role    domain.Role
		wantErr error
	}{
		{name: "admin head grants citizen", role: domain.RoleCitizen},
		{name: "admin head grants validator", role: domain.RoleValidator},
		{name: "admin head cannot grant admin head", role: domain.RoleAdminHead, wantErr: domain.ErrUnauthorized},
		{name: "admin head cannot grant admin govt", role: domain.RoleAdminGovt, wantErr: domain.ErrUnauthorized},
		{name: "invalid role", role: domain.Role(42), wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Call(head, "access", "grantRole", bob, uint8(tt.role))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, h.Roles.HasRole(bob, tt.role))
				return
			}
			require.NoError(t, err)
			assert.True(t, h.Roles.HasRole(bob, tt.role))
		})
	}

	_, err := h.Call(alice, "access", "grantRole", bob, uint8(domain.RoleCitizen))
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "no role at all")

	h.MustCall(h.Admin, "access", "grantRole", alice, uint8(domain.RoleAdminHead))
	assert.True(t, h.Roles.HasRole(alice, domain.RoleAdminHead))
}

func TestAccess_GrantIsIdempotent(t *testing.T) {
	h := moduletest.New(t)

	out := h.MustCall(h.Admin, "access", "grantRole", alice, uint8(domain.RoleCitizen))
	assert.Equal(t, []domain.EventType{domain.EventRoleGranted}, moduletest.Types(out))
	assert.Equal(t, alice.Hex(), out.Events[0].Data["account"])
	assert.Equal(t, domain.RoleCitizen.Hash().Hex(), out.Events[0].Data["roleId"])

	out = h.MustCall(h.Admin, "access", "grantRole", alice, uint8(domain.RoleCitizen))
	assert.Empty(t, out.Events)

	out = h.MustCall(h.Admin, "access", "revokeRole", alice, uint8(domain.RoleCitizen))
	assert.Equal(t, []domain.EventType{domain.EventRoleRevoked}, moduletest.Types(out))
	assert.False(t, h.Roles.HasRole(alice, domain.RoleCitizen))

	out = h.MustCall(h.Admin, "access", "revokeRole", alice, uint8(domain.RoleCitizen))
	assert.Empty(t, out.Events)
}

func TestAccess_RoleConflict(t *testing.T) {
	h := moduletest.New(t)
	h.Grant(collector, domain.RoleTaxCollector)

	_, err := h.Call(h.Admin, "access", "grantRole", collector, uint8(domain.RoleCitizen))
	assert.ErrorIs(t, err, domain.ErrRoleConflict)
	assert.False(t, h.Roles.HasRole(collector, domain.RoleCitizen))
}

func TestAccess_ZeroAccountRejected(t *testing.T) {
	h := moduletest.New(t)

	_, err := h.Call(h.Admin, "access", "grantRole", moduletest.Addr(0), uint8(domain.RoleCitizen))
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}

func TestAccess_RenounceAndLastAdmin(t *testing.T) {
	h := moduletest.New(t)
	h.Grant(alice, domain.RoleCitizen)

	h.MustCall(alice, "access", "renounceRole", uint8(domain.RoleCitizen))
	assert.False(t, h.Roles.HasRole(alice, domain.RoleCitizen))

	_, err := h.Call(h.Admin, "access", "renounceRole", uint8(domain.RoleAdminGovt))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.True(t, h.Roles.HasRole(h.Admin, domain.RoleAdminGovt))

	h.Grant(bob, domain.RoleAdminGovt)
	h.MustCall(bob, "access", "revokeRole", h.Admin, uint8(domain.RoleAdminGovt))
	assert.Equal(t, []common.Address{bob}, h.Roles.Holders(domain.RoleAdminGovt))
}

func TestAccess_Metadata(t *testing.T) {
	h := moduletest.New(t)

	h.MustCall(h.Admin, "access", "grantRoleWithMetadata", alice, uint8(domain.RoleValidator), "ipfs://validator-credentials")
	m, ok := h.Roles.Membership(alice, domain.RoleValidator)
	require.True(t, ok)
	assert.Equal(t, "ipfs://validator-credentials", m.MetadataURI)
	assert.Equal(t, h.Admin, m.GrantedBy)
	assert.Equal(t, []domain.Role{domain.RoleValidator}, h.Roles.RolesOf(alice))
}

func TestAccess_BootstrapOnce(t *testing.T) {
	h := moduletest.New(t)
	err := h.Roles.Bootstrap(alice, moduletest.Genesis)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}
