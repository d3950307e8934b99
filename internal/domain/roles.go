package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role is one of the fixed civic roles. RoleNone marks operations that any
// account may call.
type Role uint8

const (
	RoleNone Role = iota
	RoleCitizen
	RoleValidator
	RoleTaxCollector
	RoleProjectManager
	RoleAdminHead
	RoleAdminGovt
)

// AllRoles lists every assignable role in ascending privilege order.
var AllRoles = []Role{
	RoleCitizen,
	RoleValidator,
	RoleTaxCollector,
	RoleProjectManager,
	RoleAdminHead,
	RoleAdminGovt,
}

var roleNames = map[Role]string{
	RoleNone:           "NONE",
	RoleCitizen:        "CITIZEN_ROLE",
	RoleValidator:      "VALIDATOR_ROLE",
	RoleTaxCollector:   "TAX_COLLECTOR_ROLE",
	RoleProjectManager: "PROJECT_MANAGER_ROLE",
	RoleAdminHead:      "ADMIN_HEAD_ROLE",
	RoleAdminGovt:      "ADMIN_GOVT_ROLE",
}

// roleAdmins is the grant hierarchy: the roles allowed to grant and revoke
// the key role. Lookups never widen: a role missing here is administered by
// nobody.
var roleAdmins = map[Role][]Role{
	RoleCitizen:        {RoleAdminHead, RoleAdminGovt},
	RoleValidator:      {RoleAdminHead, RoleAdminGovt},
	RoleTaxCollector:   {RoleAdminHead, RoleAdminGovt},
	RoleProjectManager: {RoleAdminHead, RoleAdminGovt},
	RoleAdminHead:      {RoleAdminGovt},
	RoleAdminGovt:      {RoleAdminGovt},
}

// roleConflicts pairs roles an account may not hold at the same time.
var roleConflicts = map[Role][]Role{
	RoleCitizen:      {RoleTaxCollector},
	RoleTaxCollector: {RoleCitizen},
}

// String returns the canonical role name, e.g. "CITIZEN_ROLE".
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROLE(%d)", uint8(r))
}

// Short returns the lower-case role name used on the command line.
func (r Role) Short() string {
	return strings.ToLower(strings.TrimSuffix(r.String(), "_ROLE"))
}

// Hash returns keccak256 of the role name.
func (r Role) Hash() common.Hash {
	return crypto.Keccak256Hash([]byte(r.String()))
}

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	return r >= RoleCitizen && r <= RoleAdminGovt
}

// AdminRoles returns the roles that may grant or revoke r.
func (r Role) AdminRoles() []Role {
	return roleAdmins[r]
}

// CanAdminister reports whether a holder of admin may grant or revoke target.
func CanAdminister(admin, target Role) bool {
	for _, r := range roleAdmins[target] {
		if r == admin {
			return true
		}
	}
	return false
}

// ConflictsWith returns the roles that may not be held together with r.
func (r Role) ConflictsWith() []Role {
	return roleConflicts[r]
}

// ParseRole accepts "citizen", "CITIZEN_ROLE", "admin-govt" and similar forms.
func ParseRole(s string) (Role, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if !strings.HasSuffix(norm, "_ROLE") {
		norm += "_ROLE"
	}
	for r, name := range roleNames {
		if r != RoleNone && name == norm {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// RoleNames returns the short names of all assignable roles.
func RoleNames() []string {
	names := make([]string, 0, len(AllRoles))
	for _, r := range AllRoles {
		names = append(names, r.Short())
	}
	return names
}
