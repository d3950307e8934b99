// Package project tracks treasury-funded public projects. Budgets are
// reserved against the treasury balance on allocation and paid out to the
// project manager milestone by milestone.
package project

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
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

const projectABI = `[
	{"type":"function","name":"createProject","inputs":[
		{"name":"areaId","type":"uint64"},
		{"name":"name","type":"string"},
		{"name":"description","type":"string"},
		{"name":"budget","type":"uint256"},
		{"name":"metadataCid","type":"string"}],"outputs":[{"name":"id","type":"uint64"}]},
	{"type":"function","name":"addMilestone","inputs":[
		{"name":"projectId","type":"uint64"},
		{"name":"description","type":"string"},
		{"name":"amount","type":"uint256"},
		{"name":"deadline","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"approveProject","inputs":[
		{"name":"projectId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"allocateBudget","inputs":[
		{"name":"projectId","type":"uint64"},
		{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"startProject","inputs":[
		{"name":"projectId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"completeMilestone","inputs":[
		{"name":"projectId","type":"uint64"},
		{"name":"index","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"cancelProject","inputs":[
		{"name":"projectId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"upvote","inputs":[
		{"name":"projectId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"submitFeedback","inputs":[
		{"name":"projectId","type":"uint64"},
		{"name":"satisfied","type":"bool"},
		{"name":"ref","type":"string"}],"outputs":[]}
]`

var parsedABI = core.MustABI(projectABI)

var admins = []domain.Role{domain.RoleAdminHead, domain.RoleAdminGovt}

// Treasury reads and moves token balances inside an open call.
type Treasury interface {
	BalanceOf(account common.Address) *big.Int
	Transfer(ctx context.Context, j *journal.Journal, actor, from, to common.Address, amount *big.Int) error
}

// Areas answers whether an area is registered.
type Areas interface {
	AreaExists(id uint64) bool
}

type Module struct {
	state    *State
	ledger   Treasury
	treasury common.Address
	areas    Areas
}

var _ core.Module = (*Module)(nil)

func New(state *State, ledger Treasury, treasury common.Address, areas Areas) *Module {
	return &Module{state: state, ledger: ledger, treasury: treasury, areas: areas}
}

func (m *Module) ID() string      { return models.ModuleProject }
func (m *Module) Version() string { return Version }
func (m *Module) ABI() abi.ABI    { return parsedABI }
func (m *Module) State() *State   { return m.state }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"createProject":     {domain.RoleProjectManager},
		"addMilestone":      {domain.RoleProjectManager},
		"approveProject":    admins,
		"allocateBudget":    admins,
		"startProject":      {domain.RoleProjectManager},
		"completeMilestone": {domain.RoleProjectManager},
		"cancelProject":     {},
		"upvote":            {domain.RoleCitizen},
		"submitFeedback":    {domain.RoleCitizen},
	}
}

// Available is the treasury balance not reserved by any project.
func (m *Module) Available() *big.Int {
	return new(big.Int).Sub(m.ledger.BalanceOf(m.treasury), m.state.Reserved)
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	id := inv.Args.Uint64(0)
	switch inv.Method.Name {
	case "createProject":
		return m.create(ctx, inv)
	case "addMilestone":
		return id, m.addMilestone(ctx, inv, id, inv.Args.String(1), inv.Args.Big(2), inv.Args.Uint64(3))
	case "approveProject":
		return id, m.transition(ctx, inv, id, models.ProjectProposed, models.ProjectApproved)
	case "allocateBudget":
		return id, m.allocate(ctx, inv, id, inv.Args.Big(1))
	case "startProject":
		p, err := m.managed(inv, id)
		if err != nil {
			return 0, err
		}
		if len(p.Milestones) == 0 {
			return 0, fmt.Errorf("%w: project %d has no milestones", domain.ErrInvalidState, id)
		}
		return p.ID, m.transition(ctx, inv, id, models.ProjectApproved, models.ProjectInProgress)
	case "completeMilestone":
		return id, m.completeMilestone(ctx, inv, id, inv.Args.Uint64(1))
	case "cancelProject":
		return id, m.cancel(ctx, inv, id)
	case "upvote":
		return id, m.upvote(ctx, inv, id)
	case "submitFeedback":
		return id, m.feedback(ctx, inv, id, inv.Args.Bool(1), inv.Args.String(2))
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}

// managed loads a project the caller manages.
func (m *Module) managed(inv *core.Invocation, id uint64) (*models.Project, error) {
	p, err := m.state.get(id)
	if err != nil {
		return nil, err
	}
	if p.Manager != inv.Caller {
		return nil, fmt.Errorf("%w: project %d is managed by %s", domain.ErrUnauthorized, id, p.Manager.Hex())
	}
	return p, nil
}

func (m *Module) create(ctx context.Context, inv *core.Invocation) (uint64, error) {
	area := inv.Args.Uint64(0)
	name := inv.Args.String(1)
	description := inv.Args.String(2)
	budget := inv.Args.Big(3)
	cid := inv.Args.String(4)

	if name == "" || cid == "" {
		return 0, fmt.Errorf("%w: name and metadata CID are required", domain.ErrInvalidInput)
	}
	if budget.Sign() <= 0 {
		return 0, fmt.Errorf("%w: budget %s", domain.ErrInvalidAmount, budget)
	}
	if !m.areas.AreaExists(area) {
		return 0, fmt.Errorf("%w: area %d", domain.ErrNotFound, area)
	}

	id := m.state.NextID + 1
	journal.Assign(inv.Journal, &m.state.NextID, id)
	journal.Set(inv.Journal, m.state.Projects, id, &models.Project{
		ID:          id,
		Manager:     inv.Caller,
		AreaID:      area,
		Name:        name,
		Description: description,
		MetadataCID: cid,
		Status:      models.ProjectProposed,
		Budget:      budget,
		Allocated:   new(big.Int),
		Disbursed:   new(big.Int),
		History:     map[models.ProjectStatus]time.Time{models.ProjectProposed: inv.Now()},
	})

	return id, inv.Emit(ctx, domain.Event{
		Type:     domain.EventProjectCreated,
		EntityID: id,
		To:       string(models.ProjectProposed),
		Data:     map[string]string{"name": name, "budget": budget.String(), "area": strconv.FormatUint(area, 10)},
	})
}

func (m *Module) addMilestone(ctx context.Context, inv *core.Invocation, id uint64, description string, amount *big.Int, deadline uint64) error {
	p, err := m.managed(inv, id)
	if err != nil {
		return err
	}
	if p.Status != models.ProjectProposed && p.Status != models.ProjectApproved {
		return fmt.Errorf("%w: project %d is %s", domain.ErrInvalidState, id, p.Status)
	}
	if description == "" {
		return fmt.Errorf("%w: milestone description required", domain.ErrInvalidInput)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: milestone amount %s", domain.ErrInvalidAmount, amount)
	}
	var due time.Time
	if deadline > 0 {
		due = time.Unix(int64(deadline), 0).UTC()
		if !due.After(inv.Now()) {
			return fmt.Errorf("%w: milestone deadline is in the past", domain.ErrInvalidInput)
		}
	}
	total := new(big.Int).Add(p.MilestoneTotal(), amount)
	if total.Cmp(p.Budget) > 0 {
		return fmt.Errorf("%w: milestones would total %s of budget %s", domain.ErrBudgetExceeded, total, p.Budget)
	}

	next := p.Clone()
	next.Milestones = append(next.Milestones, models.Milestone{Description: description, Amount: amount, Deadline: due})
	journal.Set(inv.Journal, m.state.Projects, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventMilestoneAdded,
		EntityID: id,
		Data:     map[string]string{"index": strconv.Itoa(len(next.Milestones) - 1), "amount": amount.String()},
	})
}

func (m *Module) allocate(ctx context.Context, inv *core.Invocation, id uint64, amount *big.Int) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if p.Status != models.ProjectApproved && p.Status != models.ProjectInProgress {
		return fmt.Errorf("%w: project %d is %s", domain.ErrInvalidState, id, p.Status)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: allocation %s", domain.ErrInvalidAmount, amount)
	}
	allocated := new(big.Int).Add(p.Allocated, amount)
	if allocated.Cmp(p.Budget) > 0 {
		return fmt.Errorf("%w: allocation would reach %s of budget %s", domain.ErrBudgetExceeded, allocated, p.Budget)
	}
	if available := m.Available(); amount.Cmp(available) > 0 {
		return fmt.Errorf("%w: treasury has %s unreserved, needs %s", domain.ErrBudgetExceeded, available, amount)
	}

	next := p.Clone()
	next.Allocated = allocated
	journal.Set(inv.Journal, m.state.Projects, id, next)
	journal.Assign(inv.Journal, &m.state.Reserved, new(big.Int).Add(m.state.Reserved, amount))

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventBudgetAllocated,
		EntityID: id,
		Data:     map[string]string{"amount": amount.String(), "allocated": allocated.String()},
	})
}

// transition moves a project between two statuses.
func (m *Module) transition(ctx context.Context, inv *core.Invocation, id uint64, from, to models.ProjectStatus) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if p.Status != from {
		return fmt.Errorf("%w: project %d is %s, not %s", domain.ErrInvalidState, id, p.Status, from)
	}
	next := p.Clone()
	next.Status = to
	next.History[to] = inv.Now()
	journal.Set(inv.Journal, m.state.Projects, id, next)
	return m.emitStatus(ctx, inv, id, from, to, nil)
}

func (m *Module) emitStatus(ctx context.Context, inv *core.Invocation, id uint64, from, to models.ProjectStatus, data map[string]string) error {
	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventProjectStatus,
		EntityID: id,
		From:     string(from),
		To:       string(to),
		Data:     data,
	})
}

// completeMilestone marks the next milestone done and pays its amount from
// the treasury to the manager in the same call.
func (m *Module) completeMilestone(ctx context.Context, inv *core.Invocation, id, index uint64) error {
	p, err := m.managed(inv, id)
	if err != nil {
		return err
	}
	if p.Status != models.ProjectInProgress {
		return fmt.Errorf("%w: project %d is %s", domain.ErrInvalidState, id, p.Status)
	}
	if index >= uint64(len(p.Milestones)) {
		return fmt.Errorf("%w: milestone %d of project %d", domain.ErrNotFound, index, id)
	}
	if p.Milestones[index].Completed {
		return fmt.Errorf("%w: milestone %d already completed", domain.ErrInvalidState, index)
	}
	if nextIdx := p.NextMilestone(); uint64(nextIdx) != index {
		return fmt.Errorf("%w: milestone %d must be completed first", domain.ErrOutOfOrder, nextIdx)
	}

	amount := p.Milestones[index].Amount
	disbursed := new(big.Int).Add(p.Disbursed, amount)
	if disbursed.Cmp(p.Allocated) > 0 {
		return fmt.Errorf("%w: disbursing %s would exceed allocation %s", domain.ErrBudgetExceeded, disbursed, p.Allocated)
	}

	now := inv.Now()
	next := p.Clone()
	next.Milestones[index].Completed = true
	next.Milestones[index].CompletedAt = &now
	next.Disbursed = disbursed
	release := new(big.Int).Set(amount)

	last := next.NextMilestone() == -1
	if last {
		// leftover allocation goes back to the treasury pool
		release.Add(release, new(big.Int).Sub(next.Allocated, next.Disbursed))
		next.Allocated = new(big.Int).Set(next.Disbursed)
		next.Status = models.ProjectCompleted
		next.History[models.ProjectCompleted] = now
	}
	journal.Set(inv.Journal, m.state.Projects, id, next)
	journal.Assign(inv.Journal, &m.state.Reserved, new(big.Int).Sub(m.state.Reserved, release))

	if err := m.ledger.Transfer(ctx, inv.Journal, core.ModuleAddress(m.ID()), m.treasury, p.Manager, amount); err != nil {
		return err
	}
	if err := inv.Emit(ctx, domain.Event{
		Type:     domain.EventMilestoneDone,
		EntityID: id,
		Data:     map[string]string{"index": strconv.FormatUint(index, 10), "amount": amount.String()},
	}); err != nil {
		return err
	}
	if last {
		return m.emitStatus(ctx, inv, id, models.ProjectInProgress, models.ProjectCompleted, nil)
	}
	return nil
}

func (m *Module) cancel(ctx context.Context, inv *core.Invocation, id uint64) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if p.Manager != inv.Caller && !inv.Holds(domain.RoleAdminHead) && !inv.Holds(domain.RoleAdminGovt) {
		return fmt.Errorf("%w: only the manager or an admin may cancel project %d", domain.ErrUnauthorized, id)
	}
	if p.Status.Terminal() {
		return fmt.Errorf("%w: project %d is %s", domain.ErrInvalidState, id, p.Status)
	}

	released := p.Reserved()
	next := p.Clone()
	next.Status = models.ProjectCancelled
	next.Allocated = new(big.Int).Set(p.Disbursed)
	next.History[models.ProjectCancelled] = inv.Now()
	journal.Set(inv.Journal, m.state.Projects, id, next)
	journal.Assign(inv.Journal, &m.state.Reserved, new(big.Int).Sub(m.state.Reserved, released))

	return m.emitStatus(ctx, inv, id, p.Status, models.ProjectCancelled, map[string]string{"released": released.String()})
}

func (m *Module) upvote(ctx context.Context, inv *core.Invocation, id uint64) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if p.Status == models.ProjectCancelled {
		return fmt.Errorf("%w: project %d is cancelled", domain.ErrInvalidState, id)
	}
	if lo.Contains(p.Upvoters, inv.Caller) {
		return fmt.Errorf("%w: %s already upvoted project %d", domain.ErrAlreadyVoted, inv.Caller.Hex(), id)
	}

	next := p.Clone()
	next.Upvoters = append(next.Upvoters, inv.Caller)
	journal.Set(inv.Journal, m.state.Projects, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventProjectUpvoted,
		EntityID: id,
		Data:     map[string]string{"upvotes": strconv.Itoa(len(next.Upvoters))},
	})
}

func (m *Module) feedback(ctx context.Context, inv *core.Invocation, id uint64, satisfied bool, ref string) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if p.Status != models.ProjectCompleted {
		return fmt.Errorf("%w: feedback opens when project %d completes", domain.ErrInvalidState, id)
	}
	if lo.ContainsBy(p.Feedback, func(f models.ProjectFeedback) bool { return f.Citizen == inv.Caller }) {
		return fmt.Errorf("%w: %s already gave feedback on project %d", domain.ErrAlreadyExists, inv.Caller.Hex(), id)
	}

	next := p.Clone()
	next.Feedback = append(next.Feedback, models.ProjectFeedback{Citizen: inv.Caller, Satisfied: satisfied, Ref: ref, At: inv.Now()})
	journal.Set(inv.Journal, m.state.Projects, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventProjectFeedback,
		EntityID: id,
		Data:     map[string]string{"satisfied": strconv.FormatBool(satisfied)},
	})
}
