// Package access keeps role membership and enforces the role hierarchy.
package access

import (
	"bytes"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// Membership records one held role.
type Membership struct {
	GrantedBy   common.Address `json:"grantedBy"`
	GrantedAt   time.Time      `json:"grantedAt"`
	MetadataURI string         `json:"metadataUri,omitempty"`
}

// Account is the set of roles one address holds. AreaID is set when a role
// request in that area is approved.
type Account struct {
	Roles  map[domain.Role]Membership `json:"roles"`
	AreaID uint64                     `json:"areaId,omitempty"`
}

func (a *Account) clone() *Account {
	out := &Account{Roles: make(map[domain.Role]Membership, len(a.Roles)), AreaID: a.AreaID}
	for r, m := range a.Roles {
		out.Roles[r] = m
	}
	return out
}

// State is the persistent role table. It outlives module implementations.
type State struct {
	Accounts      map[common.Address]*Account    `json:"accounts"`
	Areas         map[uint64]*models.Area        `json:"areas"`
	NextAreaID    uint64                         `json:"nextAreaId"`
	Requests      map[uint64]*models.RoleRequest `json:"requests"`
	NextRequestID uint64                         `json:"nextRequestId"`
}

func NewState() *State {
	return &State{
		Accounts: make(map[common.Address]*Account),
		Areas:    make(map[uint64]*models.Area),
		Requests: make(map[uint64]*models.RoleRequest),
	}
}

// HasRole reports whether account holds role.
func (s *State) HasRole(account common.Address, role domain.Role) bool {
	a, ok := s.Accounts[account]
	if !ok {
		return false
	}
	_, held := a.Roles[role]
	return held
}

// RolesOf lists the roles account holds, lowest privilege first.
func (s *State) RolesOf(account common.Address) []domain.Role {
	var roles []domain.Role
	for _, r := range domain.AllRoles {
		if s.HasRole(account, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Holders lists the accounts holding role in address order.
func (s *State) Holders(role domain.Role) []common.Address {
	var out []common.Address
	for addr := range s.Accounts {
		if s.HasRole(addr, role) {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// Membership returns the grant record of a held role.
func (s *State) Membership(account common.Address, role domain.Role) (Membership, bool) {
	a, ok := s.Accounts[account]
	if !ok {
		return Membership{}, false
	}
	m, ok := a.Roles[role]
	return m, ok
}
