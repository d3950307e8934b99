// Package grievance tracks citizen grievances through validator review.
//
// Lifecycle: Filed -> UnderReview -> Validated -> Resolved, or
// UnderReview -> Rejected. Rejected and Resolved are terminal; refiling
// creates a new grievance.
package grievance

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const Version = "1.0.0"

const grievanceABI = `[
	{"type":"function","name":"fileGrievance","inputs":[
		{"name":"areaId","type":"uint64"},
		{"name":"title","type":"string"},
		{"name":"descriptionRef","type":"string"}],"outputs":[{"name":"id","type":"uint64"}]},
	{"type":"function","name":"assignValidator","inputs":[
		{"name":"grievanceId","type":"uint64"},
		{"name":"validator","type":"address"}],"outputs":[]},
	{"type":"function","name":"validate","inputs":[
		{"name":"grievanceId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"reject","inputs":[
		{"name":"grievanceId","type":"uint64"},
		{"name":"feedback","type":"string"}],"outputs":[]},
	{"type":"function","name":"resolve","inputs":[
		{"name":"grievanceId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"addComment","inputs":[
		{"name":"grievanceId","type":"uint64"},
		{"name":"ref","type":"string"}],"outputs":[]},
	{"type":"function","name":"linkProject","inputs":[
		{"name":"grievanceId","type":"uint64"},
		{"name":"projectId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"setMonthlyLimit","inputs":[
		{"name":"limit","type":"uint64"}],"outputs":[]}
]`

var parsedABI = core.MustABI(grievanceABI)

var admins = []domain.Role{domain.RoleAdminHead, domain.RoleAdminGovt}

// Projects answers whether a project exists, for linking grievances to the
// project that addresses them.
type Projects interface {
	Exists(id uint64) bool
}

// Areas answers whether an area is registered.
type Areas interface {
	AreaExists(id uint64) bool
}

type Module struct {
	state    *State
	projects Projects
	areas    Areas
}

var _ core.Module = (*Module)(nil)

func New(state *State, projects Projects, areas Areas) *Module {
	return &Module{state: state, projects: projects, areas: areas}
}

func (m *Module) ID() string      { return models.ModuleGrievance }
func (m *Module) Version() string { return Version }
func (m *Module) ABI() abi.ABI    { return parsedABI }
func (m *Module) State() *State   { return m.state }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"fileGrievance":   {domain.RoleCitizen},
		"assignValidator": admins,
		"validate":        {domain.RoleValidator},
		"reject":          {domain.RoleValidator},
		"resolve":         {},
		"addComment":      {},
		"linkProject":     admins,
		"setMonthlyLimit": {domain.RoleAdminGovt},
	}
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	id := inv.Args.Uint64(0)
	switch inv.Method.Name {
	case "fileGrievance":
		return m.file(ctx, inv, inv.Args.Uint64(0), inv.Args.String(1), inv.Args.String(2))
	case "assignValidator":
		return id, m.assign(ctx, inv, id, inv.Args.Address(1))
	case "validate":
		return id, m.decide(ctx, inv, id, models.GrievanceValidated, "")
	case "reject":
		feedback := inv.Args.String(1)
		if feedback == "" {
			return 0, fmt.Errorf("%w: rejection needs feedback", domain.ErrInvalidInput)
		}
		return id, m.decide(ctx, inv, id, models.GrievanceRejected, feedback)
	case "resolve":
		return id, m.resolve(ctx, inv, id)
	case "addComment":
		return id, m.comment(ctx, inv, id, inv.Args.String(1))
	case "linkProject":
		return id, m.link(ctx, inv, id, inv.Args.Uint64(1))
	case "setMonthlyLimit":
		if inv.Args.Uint64(0) == 0 {
			return 0, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
		}
		journal.Assign(inv.Journal, &m.state.MonthlyLimit, inv.Args.Uint64(0))
		return 0, nil
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}

func (m *Module) file(ctx context.Context, inv *core.Invocation, area uint64, title, ref string) (uint64, error) {
	if title == "" || ref == "" {
		return 0, fmt.Errorf("%w: title and description reference are required", domain.ErrInvalidInput)
	}
	if !m.areas.AreaExists(area) {
		return 0, fmt.Errorf("%w: area %d", domain.ErrNotFound, area)
	}
	key := filingKey(inv.Caller, inv.Now())
	filed := m.state.Filings[key]
	if filed >= m.state.MonthlyLimit {
		return 0, fmt.Errorf("%w: %d grievances this month", domain.ErrMonthlyLimitReached, filed)
	}

	id := m.state.NextID + 1
	journal.Assign(inv.Journal, &m.state.NextID, id)
	journal.Set(inv.Journal, m.state.Filings, key, filed+1)
	journal.Set(inv.Journal, m.state.Grievances, id, &models.Grievance{
		ID:             id,
		Filer:          inv.Caller,
		AreaID:         area,
		Title:          title,
		DescriptionRef: ref,
		Status:         models.GrievanceFiled,
		FiledAt:        inv.Now(),
	})

	return id, inv.Emit(ctx, domain.Event{
		Type:     domain.EventGrievanceFiled,
		EntityID: id,
		To:       string(models.GrievanceFiled),
		Data:     map[string]string{"area": strconv.FormatUint(area, 10), "title": title},
	})
}

func (m *Module) assign(ctx context.Context, inv *core.Invocation, id uint64, validator common.Address) error {
	g, err := m.state.get(id)
	if err != nil {
		return err
	}
	if validator == (common.Address{}) {
		return fmt.Errorf("%w: zero validator", domain.ErrInvalidIdentity)
	}
	if !inv.HasRole(validator, domain.RoleValidator) {
		return fmt.Errorf("%w: %s does not hold %s", domain.ErrUnauthorized, validator.Hex(), domain.RoleValidator)
	}
	if g.Status != models.GrievanceFiled && g.Status != models.GrievanceUnderReview {
		return fmt.Errorf("%w: grievance %d is %s", domain.ErrInvalidState, id, g.Status)
	}

	now := inv.Now()
	next := g.Clone()
	next.Validator = validator
	next.Status = models.GrievanceUnderReview
	next.ReviewAt = &now
	journal.Set(inv.Journal, m.state.Grievances, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventGrievanceStatus,
		EntityID: id,
		From:     string(g.Status),
		To:       string(next.Status),
		Data:     map[string]string{"validator": validator.Hex()},
	})
}

func (m *Module) decide(ctx context.Context, inv *core.Invocation, id uint64, to models.GrievanceStatus, feedback string) error {
	g, err := m.state.get(id)
	if err != nil {
		return err
	}
	if !g.Assigned() {
		return fmt.Errorf("%w: grievance %d has no validator", domain.ErrInvalidState, id)
	}
	if g.Validator != inv.Caller {
		return fmt.Errorf("%w: grievance %d is assigned to %s", domain.ErrNotAssigned, id, g.Validator.Hex())
	}
	if g.Status != models.GrievanceUnderReview {
		return fmt.Errorf("%w: grievance %d is %s", domain.ErrInvalidState, id, g.Status)
	}

	now := inv.Now()
	next := g.Clone()
	next.Status = to
	next.Feedback = feedback
	next.DecidedAt = &now
	journal.Set(inv.Journal, m.state.Grievances, id, next)

	ev := domain.Event{
		Type:     domain.EventGrievanceStatus,
		EntityID: id,
		From:     string(g.Status),
		To:       string(to),
	}
	if feedback != "" {
		ev.Data = map[string]string{"feedback": feedback}
	}
	return inv.Emit(ctx, ev)
}

func (m *Module) resolve(ctx context.Context, inv *core.Invocation, id uint64) error {
	g, err := m.state.get(id)
	if err != nil {
		return err
	}
	if g.Filer != inv.Caller && !inv.Holds(domain.RoleAdminHead) && !inv.Holds(domain.RoleAdminGovt) {
		return fmt.Errorf("%w: only the filer or an admin may resolve grievance %d", domain.ErrUnauthorized, id)
	}
	if g.Status != models.GrievanceValidated {
		return fmt.Errorf("%w: grievance %d is %s", domain.ErrInvalidState, id, g.Status)
	}

	now := inv.Now()
	next := g.Clone()
	next.Status = models.GrievanceResolved
	next.ResolvedAt = &now
	journal.Set(inv.Journal, m.state.Grievances, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventGrievanceStatus,
		EntityID: id,
		From:     string(g.Status),
		To:       string(next.Status),
	})
}

func (m *Module) comment(ctx context.Context, inv *core.Invocation, id uint64, ref string) error {
	g, err := m.state.get(id)
	if err != nil {
		return err
	}
	if ref == "" {
		return fmt.Errorf("%w: empty comment reference", domain.ErrInvalidInput)
	}
	participant := g.Filer == inv.Caller || g.Validator == inv.Caller ||
		inv.Holds(domain.RoleAdminHead) || inv.Holds(domain.RoleAdminGovt)
	if !participant {
		return fmt.Errorf("%w: %s is not part of grievance %d", domain.ErrUnauthorized, inv.Caller.Hex(), id)
	}
	if g.Status.Terminal() {
		return fmt.Errorf("%w: grievance %d is closed", domain.ErrInvalidState, id)
	}

	next := g.Clone()
	next.Comments = append(next.Comments, models.Comment{Author: inv.Caller, Ref: ref, At: inv.Now()})
	journal.Set(inv.Journal, m.state.Grievances, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventGrievanceComment,
		EntityID: id,
		Data:     map[string]string{"ref": ref},
	})
}

func (m *Module) link(ctx context.Context, inv *core.Invocation, id, projectID uint64) error {
	g, err := m.state.get(id)
	if err != nil {
		return err
	}
	if g.Status != models.GrievanceValidated && g.Status != models.GrievanceResolved {
		return fmt.Errorf("%w: grievance %d is %s", domain.ErrInvalidState, id, g.Status)
	}
	if m.projects != nil && !m.projects.Exists(projectID) {
		return fmt.Errorf("%w: project %d", domain.ErrNotFound, projectID)
	}

	next := g.Clone()
	next.ProjectID = projectID
	journal.Set(inv.Journal, m.state.Grievances, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventGrievanceLinked,
		EntityID: id,
		Data:     map[string]string{"project": strconv.FormatUint(projectID, 10)},
	})
}
