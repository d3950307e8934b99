// Package governor runs token-weighted proposals with a timelock. Executed
// proposals dispatch their actions through the core under the governor's
// own identity, so they pass the same role checks as any direct call.
package governor

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const Version = "1.0.0"

const governorABI = `[
	{"type":"function","name":"propose","inputs":[
		{"name":"description","type":"string"},
		{"name":"modules","type":"string[]"},
		{"name":"calldatas","type":"bytes[]"}],"outputs":[{"name":"id","type":"uint64"}]},
	{"type":"function","name":"castVote","inputs":[
		{"name":"proposalId","type":"uint64"},
		{"name":"support","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"queue","inputs":[
		{"name":"proposalId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"execute","inputs":[
		{"name":"proposalId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"cancel","inputs":[
		{"name":"proposalId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"setParams","inputs":[
		{"name":"votingDelay","type":"uint64"},
		{"name":"votingPeriod","type":"uint64"},
		{"name":"timelockDelay","type":"uint64"},
		{"name":"quorumBps","type":"uint64"},
		{"name":"proposalThreshold","type":"uint256"}],"outputs":[]}
]`

var parsedABI = core.MustABI(governorABI)

// Votes reads historical token balances.
type Votes interface {
	BalanceAt(account common.Address, t time.Time) *big.Int
	TotalSupplyAt(t time.Time) *big.Int
}

type Module struct {
	state      *State
	votes      Votes
	dispatcher core.Dispatcher
}

var _ core.Module = (*Module)(nil)

func New(state *State, votes Votes, dispatcher core.Dispatcher) *Module {
	return &Module{state: state, votes: votes, dispatcher: dispatcher}
}

func (m *Module) ID() string      { return models.ModuleGovernor }
func (m *Module) Version() string { return Version }
func (m *Module) ABI() abi.ABI    { return parsedABI }
func (m *Module) State() *State   { return m.state }

// Executor is the identity queued actions run under.
func (m *Module) Executor() common.Address { return core.ModuleAddress(m.ID()) }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"propose":   {},
		"castVote":  {},
		"queue":     {},
		"execute":   {},
		"cancel":    {},
		"setParams": {domain.RoleAdminGovt},
	}
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	id := inv.Args.Uint64(0)
	switch inv.Method.Name {
	case "propose":
		return m.propose(ctx, inv, inv.Args.String(0), inv.Args.Strings(1), inv.Args.BytesList(2))
	case "castVote":
		return id, m.castVote(ctx, inv, id, inv.Args.Uint8(1))
	case "queue":
		return id, m.queue(ctx, inv, id)
	case "execute":
		return id, m.execute(ctx, inv, id)
	case "cancel":
		return id, m.cancel(ctx, inv, id)
	case "setParams":
		return 0, m.setParams(inv)
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}

func (m *Module) propose(ctx context.Context, inv *core.Invocation, description string, modules []string, calldatas [][]byte) (uint64, error) {
	if description == "" {
		return 0, fmt.Errorf("%w: empty description", domain.ErrInvalidInput)
	}
	if len(modules) == 0 || len(modules) != len(calldatas) {
		return 0, fmt.Errorf("%w: %d modules for %d calldatas", domain.ErrInvalidInput, len(modules), len(calldatas))
	}
	actions := make([]models.ProposalAction, len(modules))
	for i := range modules {
		if modules[i] == "" || len(calldatas[i]) < 4 {
			return 0, fmt.Errorf("%w: action %d is malformed", domain.ErrInvalidInput, i)
		}
		actions[i] = models.ProposalAction{Module: modules[i], Data: append([]byte(nil), calldatas[i]...)}
	}

	now := inv.Now()
	params := m.state.Params
	// Checkpoints at now can still change within this instant; the snapshot
	// must already be settled.
	snapshot := now.Add(-time.Nanosecond)
	if weight := m.votes.BalanceAt(inv.Caller, snapshot); weight.Cmp(params.ProposalThreshold) < 0 {
		return 0, fmt.Errorf("%w: proposer holds %s, threshold is %s", domain.ErrInsufficientBalance, weight, params.ProposalThreshold)
	}

	supply := m.votes.TotalSupplyAt(snapshot)
	quorum := new(big.Int).Mul(supply, new(big.Int).SetUint64(params.QuorumBps))
	quorum.Div(quorum, big.NewInt(10_000))

	id := m.state.NextID + 1
	start := now.Add(params.VotingDelay)
	p := &models.Proposal{
		ID:           id,
		Proposer:     inv.Caller,
		Description:  description,
		Actions:      actions,
		Status:       models.ProposalStatusPending,
		Snapshot:     snapshot,
		VoteStart:    start,
		VoteEnd:      start.Add(params.VotingPeriod),
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
		AbstainVotes: new(big.Int),
		Votes:        make(map[common.Address]models.Vote),
		Quorum:       quorum,
	}
	journal.Assign(inv.Journal, &m.state.NextID, id)
	journal.Set(inv.Journal, m.state.Proposals, id, p)

	return id, inv.Emit(ctx, domain.Event{
		Type:     domain.EventProposalCreated,
		EntityID: id,
		To:       string(p.StateAt(now)),
		Data: map[string]string{
			"actions":   strconv.Itoa(len(actions)),
			"voteStart": p.VoteStart.Format(time.RFC3339),
			"voteEnd":   p.VoteEnd.Format(time.RFC3339),
			"quorum":    quorum.String(),
		},
	})
}

func (m *Module) castVote(ctx context.Context, inv *core.Invocation, id uint64, support uint8) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if st := p.StateAt(inv.Now()); st != models.ProposalStatusActive {
		return fmt.Errorf("%w: proposal %d is %s", domain.ErrInvalidState, id, st)
	}
	if support > uint8(models.VoteAbstain) {
		return fmt.Errorf("%w: support %d", domain.ErrInvalidInput, support)
	}
	if _, voted := p.Votes[inv.Caller]; voted {
		return fmt.Errorf("%w: %s on proposal %d", domain.ErrAlreadyVoted, inv.Caller.Hex(), id)
	}
	weight := m.votes.BalanceAt(inv.Caller, p.Snapshot)
	if weight.Sign() == 0 {
		return fmt.Errorf("%w: no voting weight at snapshot", domain.ErrInvalidAmount)
	}

	next := p.Clone()
	choice := models.VoteSupport(support)
	next.Votes[inv.Caller] = models.Vote{Support: choice, Weight: weight}
	switch choice {
	case models.VoteFor:
		next.ForVotes = new(big.Int).Add(p.ForVotes, weight)
	case models.VoteAgainst:
		next.AgainstVotes = new(big.Int).Add(p.AgainstVotes, weight)
	case models.VoteAbstain:
		next.AbstainVotes = new(big.Int).Add(p.AbstainVotes, weight)
	}
	journal.Set(inv.Journal, m.state.Proposals, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventVoteCast,
		EntityID: id,
		Data:     map[string]string{"support": choice.String(), "weight": weight.String()},
	})
}

func (m *Module) queue(ctx context.Context, inv *core.Invocation, id uint64) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	now := inv.Now()
	if st := p.StateAt(now); st != models.ProposalStatusSucceeded {
		return fmt.Errorf("%w: proposal %d is %s", domain.ErrInvalidState, id, st)
	}

	next := p.Clone()
	next.Status = models.ProposalStatusQueued
	next.ETA = now.Add(m.state.Params.TimelockDelay)
	journal.Set(inv.Journal, m.state.Proposals, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventProposalStatus,
		EntityID: id,
		From:     string(models.ProposalStatusSucceeded),
		To:       string(models.ProposalStatusQueued),
		Data:     map[string]string{"eta": next.ETA.Format(time.RFC3339)},
	})
}

// execute marks the proposal executed and then dispatches its actions. Any
// failing action reverts the whole execution, status included.
func (m *Module) execute(ctx context.Context, inv *core.Invocation, id uint64) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	now := inv.Now()
	if p.Status != models.ProposalStatusQueued {
		return fmt.Errorf("%w: proposal %d is %s", domain.ErrInvalidState, id, p.StateAt(now))
	}
	if now.Before(p.ETA) {
		return fmt.Errorf("%w: proposal %d is timelocked until %s", domain.ErrInvalidState, id, p.ETA.Format(time.RFC3339))
	}

	next := p.Clone()
	next.Status = models.ProposalStatusExecuted
	journal.Set(inv.Journal, m.state.Proposals, id, next)
	if err := inv.Emit(ctx, domain.Event{
		Type:     domain.EventProposalStatus,
		EntityID: id,
		From:     string(models.ProposalStatusQueued),
		To:       string(models.ProposalStatusExecuted),
	}); err != nil {
		return err
	}

	for i, action := range p.Actions {
		_, err := m.dispatcher.Dispatch(ctx, inv.Journal, core.Call{
			Caller:  m.Executor(),
			Relayer: inv.Caller,
			Module:  action.Module,
			Data:    action.Data,
		})
		if err != nil {
			return fmt.Errorf("proposal %d action %d (%s): %w", id, i, action.Module, err)
		}
	}
	return nil
}

func (m *Module) cancel(ctx context.Context, inv *core.Invocation, id uint64) error {
	p, err := m.state.get(id)
	if err != nil {
		return err
	}
	if p.Proposer != inv.Caller && !inv.Holds(domain.RoleAdminGovt) {
		return fmt.Errorf("%w: only the proposer or %s may cancel", domain.ErrUnauthorized, domain.RoleAdminGovt)
	}
	from := p.StateAt(inv.Now())
	if from == models.ProposalStatusExecuted || from == models.ProposalStatusCanceled {
		return fmt.Errorf("%w: proposal %d is %s", domain.ErrInvalidState, id, from)
	}

	next := p.Clone()
	next.Status = models.ProposalStatusCanceled
	journal.Set(inv.Journal, m.state.Proposals, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventProposalStatus,
		EntityID: id,
		From:     string(from),
		To:       string(models.ProposalStatusCanceled),
	})
}

func (m *Module) setParams(inv *core.Invocation) error {
	params := Params{
		VotingDelay:       time.Duration(inv.Args.Uint64(0)) * time.Second,
		VotingPeriod:      time.Duration(inv.Args.Uint64(1)) * time.Second,
		TimelockDelay:     time.Duration(inv.Args.Uint64(2)) * time.Second,
		QuorumBps:         inv.Args.Uint64(3),
		ProposalThreshold: inv.Args.Big(4),
	}
	if err := params.validate(); err != nil {
		return err
	}
	journal.Assign(inv.Journal, &m.state.Params, params)
	return nil
}
