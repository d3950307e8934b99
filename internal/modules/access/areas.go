package access

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

// AreaExists reports whether id names a created area.
func (s *State) AreaExists(id uint64) bool {
	_, ok := s.Areas[id]
	return ok
}

func (s *State) area(id uint64) (*models.Area, error) {
	a, ok := s.Areas[id]
	if !ok {
		return nil, fmt.Errorf("%w: area %d", domain.ErrNotFound, id)
	}
	return a, nil
}

// Area returns a copy of an area.
func (s *State) Area(id uint64) (*models.Area, error) {
	a, err := s.area(id)
	if err != nil {
		return nil, err
	}
	c := *a
	return &c, nil
}

// AreaList returns every area ordered by id.
func (s *State) AreaList() []*models.Area {
	out := make([]*models.Area, 0, len(s.Areas))
	for _, a := range s.Areas {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AreaOfHead returns the area head administers, or 0.
func (s *State) AreaOfHead(head common.Address) uint64 {
	for id, a := range s.Areas {
		if a.AdminHead == head {
			return id
		}
	}
	return 0
}

// AreaCitizens lists the citizens whose approved request placed them in area.
func (s *State) AreaCitizens(area uint64) []common.Address {
	var out []common.Address
	for addr, a := range s.Accounts {
		if a.AreaID == area && s.HasRole(addr, domain.RoleCitizen) {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func (s *State) request(id uint64) (*models.RoleRequest, error) {
	r, ok := s.Requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: role request %d", domain.ErrNotFound, id)
	}
	return r, nil
}

// Request returns a copy of a role request.
func (s *State) Request(id uint64) (*models.RoleRequest, error) {
	r, err := s.request(id)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// RequestFilter selects role requests; zero fields match everything.
type RequestFilter struct {
	Requester common.Address
	Role      domain.Role
	Status    models.RequestStatus
	AreaID    uint64
}

func (f RequestFilter) matches(r *models.RoleRequest) bool {
	if f.Requester != (common.Address{}) && r.Requester != f.Requester {
		return false
	}
	if f.Role != domain.RoleNone && domain.Role(r.Role) != f.Role {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return f.AreaID == 0 || r.AreaID == f.AreaID
}

// RequestList returns matching role requests ordered by id.
func (s *State) RequestList(f RequestFilter) []*models.RoleRequest {
	var out []*models.RoleRequest
	for _, r := range s.Requests {
		if f.matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApprovedCitizens counts approved citizen requests.
func (s *State) ApprovedCitizens() int {
	return len(s.RequestList(RequestFilter{Role: domain.RoleCitizen, Status: models.RequestApproved}))
}

func (m *Module) createArea(ctx context.Context, inv *core.Invocation, name, metadata string) (uint64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: area name is required", domain.ErrInvalidInput)
	}
	for _, a := range m.state.Areas {
		if a.Name == name {
			return 0, fmt.Errorf("%w: area %q is #%d", domain.ErrAlreadyExists, name, a.ID)
		}
	}
	id := m.state.NextAreaID + 1
	journal.Assign(inv.Journal, &m.state.NextAreaID, id)
	journal.Set(inv.Journal, m.state.Areas, id, &models.Area{
		ID:          id,
		Name:        name,
		MetadataURI: metadata,
		CreatedAt:   inv.Now(),
	})
	return id, inv.Emit(ctx, domain.Event{
		Type:     domain.EventAreaCreated,
		EntityID: id,
		Data:     map[string]string{"name": name},
	})
}

// assignHead makes head the single admin head of area. A head administers at
// most one area.
func (m *Module) assignHead(ctx context.Context, inv *core.Invocation, id uint64, head common.Address) error {
	a, err := m.state.area(id)
	if err != nil {
		return err
	}
	if !m.state.HasRole(head, domain.RoleAdminHead) {
		return fmt.Errorf("%w: %s does not hold %s", domain.ErrInvalidIdentity, head.Hex(), domain.RoleAdminHead)
	}
	if other := m.state.AreaOfHead(head); other != 0 && other != id {
		return fmt.Errorf("%w: %s already heads area %d", domain.ErrAlreadyExists, head.Hex(), other)
	}

	next := *a
	next.AdminHead = head
	journal.Set(inv.Journal, m.state.Areas, id, &next)
	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventAreaHeadAssigned,
		EntityID: id,
		From:     a.AdminHead.Hex(),
		To:       head.Hex(),
	})
}

func (m *Module) requestRole(ctx context.Context, inv *core.Invocation, role domain.Role, area uint64, metadata string) (uint64, error) {
	if !role.Valid() || !domain.CanAdminister(domain.RoleAdminHead, role) {
		return 0, fmt.Errorf("%w: %s cannot be requested", domain.ErrInvalidInput, role)
	}
	if !m.state.AreaExists(area) {
		return 0, fmt.Errorf("%w: area %d", domain.ErrNotFound, area)
	}
	if m.state.HasRole(inv.Caller, role) {
		return 0, fmt.Errorf("%w: %s already holds %s", domain.ErrAlreadyExists, inv.Caller.Hex(), role)
	}
	for _, other := range role.ConflictsWith() {
		if m.state.HasRole(inv.Caller, other) {
			return 0, fmt.Errorf("%w: %s holds %s", domain.ErrRoleConflict, inv.Caller.Hex(), other)
		}
	}
	pending := m.state.RequestList(RequestFilter{Requester: inv.Caller, Role: role, Status: models.RequestPending})
	if len(pending) > 0 {
		return 0, fmt.Errorf("%w: request %d is pending", domain.ErrAlreadyExists, pending[0].ID)
	}

	id := m.state.NextRequestID + 1
	journal.Assign(inv.Journal, &m.state.NextRequestID, id)
	journal.Set(inv.Journal, m.state.Requests, id, &models.RoleRequest{
		ID:          id,
		Requester:   inv.Caller,
		Role:        uint8(role),
		AreaID:      area,
		MetadataURI: metadata,
		Status:      models.RequestPending,
		RequestedAt: inv.Now(),
	})
	return id, inv.Emit(ctx, domain.Event{
		Type:     domain.EventRoleRequested,
		EntityID: id,
		Data:     map[string]string{"role": role.String(), "area": strconv.FormatUint(area, 10)},
	})
}

// reviewable loads a pending request the caller may decide: any AdminGovt
// holder, or the admin head of the request's area.
func (m *Module) reviewable(inv *core.Invocation, id uint64) (*models.RoleRequest, error) {
	r, err := m.state.request(id)
	if err != nil {
		return nil, err
	}
	if r.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request %d is %s", domain.ErrInvalidState, id, r.Status)
	}
	if inv.Call.Role != domain.RoleAdminHead && inv.Holds(domain.RoleAdminGovt) {
		return r, nil
	}
	if a := m.state.Areas[r.AreaID]; a == nil || a.AdminHead != inv.Caller {
		return nil, fmt.Errorf("%w: %s does not head area %d", domain.ErrUnauthorized, inv.Caller.Hex(), r.AreaID)
	}
	return r, nil
}

func (m *Module) approveRequest(ctx context.Context, inv *core.Invocation, id uint64) error {
	r, err := m.reviewable(inv, id)
	if err != nil {
		return err
	}
	next := r.Clone()
	next.Status = models.RequestApproved
	next.Reviewer = inv.Caller
	at := inv.Now()
	next.DecidedAt = &at
	journal.Set(inv.Journal, m.state.Requests, id, next)

	if err := m.grant(ctx, inv, r.Requester, domain.Role(r.Role), r.MetadataURI); err != nil {
		return err
	}
	account := m.state.Accounts[r.Requester].clone()
	account.AreaID = r.AreaID
	journal.Set(inv.Journal, m.state.Accounts, r.Requester, account)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventRoleRequestDone,
		EntityID: id,
		From:     string(r.Status),
		To:       string(next.Status),
		Data:     roleData(r.Requester, domain.Role(r.Role)),
	})
}

func (m *Module) rejectRequest(ctx context.Context, inv *core.Invocation, id uint64, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection needs a reason", domain.ErrInvalidInput)
	}
	r, err := m.reviewable(inv, id)
	if err != nil {
		return err
	}
	next := r.Clone()
	next.Status = models.RequestRejected
	next.Reviewer = inv.Caller
	next.Reason = reason
	at := inv.Now()
	next.DecidedAt = &at
	journal.Set(inv.Journal, m.state.Requests, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventRoleRequestDone,
		EntityID: id,
		From:     string(r.Status),
		To:       string(next.Status),
		Data:     roleData(r.Requester, domain.Role(r.Role)),
	})
}
