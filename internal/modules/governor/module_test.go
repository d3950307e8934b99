package governor

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/modules/moduletest"
	"github.com/urbandao/urbandao/internal/modules/token"
)

var (
	proposer  = moduletest.Addr(0x01)
	voter     = moduletest.Addr(0x02)
	latecomer = moduletest.Addr(0x03)
	treasury  = moduletest.Addr(0x7e)
)

type fixture struct {
	*moduletest.Harness
	gov    *State
	tokens *token.State
	module *Module
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := moduletest.New(t)
	params := DefaultParams()
	params.ProposalThreshold = big.NewInt(100)
	gov, err := NewState(params)
	require.NoError(t, err)

	f := &fixture{Harness: h, gov: gov, tokens: token.NewState()}
	f.module = New(gov, f.tokens, h.Core)
	h.Core.Install(token.New(f.tokens))
	h.Core.Install(f.module)
	h.Grant(f.module.Executor(), domain.RoleAdminGovt)

	h.MustCall(h.Admin, "token", "mint", proposer, big.NewInt(1000))
	h.MustCall(h.Admin, "token", "mint", voter, big.NewInt(500))
	h.Clock.Advance(time.Second)
	return f
}

func (f *fixture) mintProposal(t *testing.T, amount int64) uint64 {
	t.Helper()
	data := core.MustPack(f.Core.Module("token"), "mint", treasury, big.NewInt(amount))
	return f.MustCall(proposer, "governor", "propose", "Fund the treasury", []string{"token"}, [][]byte{data}).ResultID
}

func (f *fixture) status(t *testing.T, id uint64) models.ProposalStatus {
	t.Helper()
	st, err := f.gov.StateOf(id, f.Clock.Now())
	require.NoError(t, err)
	return st
}

func TestGovernor_TimelockedExecution(t *testing.T) {
	f := newFixture(t)
	id := f.mintProposal(t, 250)
	params := f.gov.Params
	assert.Equal(t, models.ProposalStatusPending, f.status(t, id))

	_, err := f.Call(proposer, "governor", "castVote", id, uint8(models.VoteFor))
	assert.ErrorIs(t, err, domain.ErrInvalidState, "voting has not started")

	f.Clock.Advance(params.VotingDelay)
	assert.Equal(t, models.ProposalStatusActive, f.status(t, id))
	f.MustCall(proposer, "governor", "castVote", id, uint8(models.VoteFor))
	f.MustCall(voter, "governor", "castVote", id, uint8(models.VoteAgainst))

	_, err = f.Call(proposer, "governor", "castVote", id, uint8(models.VoteFor))
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	_, err = f.Call(proposer, "governor", "queue", id)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "still active")

	f.Clock.Advance(params.VotingPeriod + time.Second)
	assert.Equal(t, models.ProposalStatusSucceeded, f.status(t, id))
	f.MustCall(voter, "governor", "queue", id)

	_, err = f.Call(voter, "governor", "execute", id)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "timelock not elapsed")
	assert.Zero(t, f.tokens.BalanceOf(treasury).Sign())

	f.Clock.Advance(params.TimelockDelay)
	out := f.MustCall(voter, "governor", "execute", id)
	assert.Equal(t, []domain.EventType{domain.EventProposalStatus, domain.EventMint}, moduletest.Types(out))
	assert.Equal(t, f.module.Executor(), out.Events[1].Actor)
	assert.Equal(t, int64(250), f.tokens.BalanceOf(treasury).Int64())

	_, err = f.Call(voter, "governor", "execute", id)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(250), f.tokens.BalanceOf(treasury).Int64(), "dispatched exactly once")
	assert.Equal(t, models.ProposalStatusExecuted, f.status(t, id))
}

func TestGovernor_FailingActionRevertsExecution(t *testing.T) {
	f := newFixture(t)
	data := core.MustPack(f.Core.Module("token"), "transfer", treasury, big.NewInt(1))
	id := f.MustCall(proposer, "governor", "propose", "Spend what the governor lacks", []string{"token"}, [][]byte{data}).ResultID

	f.Clock.Advance(f.gov.Params.VotingDelay)
	f.MustCall(proposer, "governor", "castVote", id, uint8(models.VoteFor))
	f.Clock.Advance(f.gov.Params.VotingPeriod + time.Second)
	f.MustCall(proposer, "governor", "queue", id)
	f.Clock.Advance(f.gov.Params.TimelockDelay)

	_, err := f.Call(proposer, "governor", "execute", id)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, models.ProposalStatusQueued, f.status(t, id))
}

func TestGovernor_DefeatedWithoutQuorumOrMajority(t *testing.T) {
	f := newFixture(t)
	params := f.gov.Params

	// 4% of 1500 is 60; a 50-token voter alone misses quorum.
	f.MustCall(proposer, "token", "transfer", latecomer, big.NewInt(50))
	f.Clock.Advance(time.Second)
	noQuorum := f.mintProposal(t, 1)
	f.Clock.Advance(params.VotingDelay)
	f.MustCall(latecomer, "governor", "castVote", noQuorum, uint8(models.VoteFor))
	f.Clock.Advance(params.VotingPeriod + time.Second)
	assert.Equal(t, models.ProposalStatusDefeated, f.status(t, noQuorum))

	outvoted := f.mintProposal(t, 1)
	f.Clock.Advance(params.VotingDelay)
	f.MustCall(voter, "governor", "castVote", outvoted, uint8(models.VoteFor))
	f.MustCall(proposer, "governor", "castVote", outvoted, uint8(models.VoteAgainst))
	f.Clock.Advance(params.VotingPeriod + time.Second)
	assert.Equal(t, models.ProposalStatusDefeated, f.status(t, outvoted))

	_, err := f.Call(proposer, "governor", "queue", outvoted)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestGovernor_WeightFromSnapshot(t *testing.T) {
	f := newFixture(t)
	id := f.mintProposal(t, 1)

	f.Clock.Advance(time.Minute)
	f.MustCall(voter, "token", "transfer", latecomer, big.NewInt(500))
	f.Clock.Advance(f.gov.Params.VotingDelay)

	_, err := f.Call(latecomer, "governor", "castVote", id, uint8(models.VoteFor))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount, "tokens received after the snapshot carry no weight")

	f.MustCall(voter, "governor", "castVote", id, uint8(models.VoteAbstain))
	p, err := f.gov.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.AbstainVotes.Int64())

	_, err = f.Call(proposer, "governor", "castVote", id, uint8(7))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGovernor_SameInstantTransferCarriesNoWeight(t *testing.T) {
	f := newFixture(t)
	f.MustCall(f.Admin, "governor", "setParams", uint64(0), uint64(3600), uint64(3600), uint64(400), big.NewInt(100))

	id := f.mintProposal(t, 1)
	f.MustCall(proposer, "governor", "castVote", id, uint8(models.VoteFor))
	f.MustCall(proposer, "token", "transfer", latecomer, big.NewInt(1000))

	_, err := f.Call(latecomer, "governor", "castVote", id, uint8(models.VoteFor))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	p, err := f.gov.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.ForVotes.Int64())
	assert.LessOrEqual(t, p.ForVotes.Cmp(f.tokens.TotalSupplyAt(p.Snapshot)), 0)
	assert.True(t, p.Snapshot.Before(f.Clock.Now()))
}

func TestGovernor_ProposeValidation(t *testing.T) {
	f := newFixture(t)
	data := core.MustPack(f.Core.Module("token"), "mint", treasury, big.NewInt(1))

	tests := []struct {
		name      string
		caller    common.Address
		modules   []string
		calldatas [][]byte
		wantErr   error
	}{
		{name: "below threshold", caller: latecomer, modules: []string{"token"}, calldatas: [][]byte{data}, wantErr: domain.ErrInsufficientBalance},
		{name: "no actions", caller: proposer, modules: []string{}, calldatas: [][]byte{}, wantErr: domain.ErrInvalidInput},
		{name: "length mismatch", caller: proposer, modules: []string{"token", "tax"}, calldatas: [][]byte{data}, wantErr: domain.ErrInvalidInput},
		{name: "short calldata", caller: proposer, modules: []string{"token"}, calldatas: [][]byte{{1, 2}}, wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Call(tt.caller, "governor", "propose", "p", tt.modules, tt.calldatas)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGovernor_Cancel(t *testing.T) {
	f := newFixture(t)
	id := f.mintProposal(t, 1)

	_, err := f.Call(voter, "governor", "cancel", id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.MustCall(proposer, "governor", "cancel", id)
	assert.Equal(t, models.ProposalStatusCanceled, f.status(t, id))

	_, err = f.Call(f.Admin, "governor", "cancel", id)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	other := f.mintProposal(t, 2)
	f.MustCall(f.Admin, "governor", "cancel", other)
}

func TestGovernor_SetParams(t *testing.T) {
	f := newFixture(t)

	_, err := f.Call(proposer, "governor", "setParams", uint64(0), uint64(60), uint64(60), uint64(100), big.NewInt(0))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.Call(f.Admin, "governor", "setParams", uint64(0), uint64(0), uint64(60), uint64(100), big.NewInt(0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.MustCall(f.Admin, "governor", "setParams", uint64(0), uint64(60), uint64(30), uint64(100), big.NewInt(0))
	assert.Equal(t, time.Minute, f.gov.Params.VotingPeriod)

	id := f.mintProposal(t, 1)
	assert.Equal(t, models.ProposalStatusActive, f.status(t, id), "zero delay opens voting at once")
}
