package grievance

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/modules/moduletest"
)

var (
	citizen   = moduletest.Addr(0xc1)
	other     = moduletest.Addr(0xc2)
	validator = moduletest.Addr(0x71)
	rival     = moduletest.Addr(0x72)
	head      = moduletest.Addr(0xa4)
)

type knownProjects map[uint64]bool

func (k knownProjects) Exists(id uint64) bool { return k[id] }

type knownAreas map[uint64]bool

func (k knownAreas) AreaExists(id uint64) bool { return k[id] }

func newTestHub(t *testing.T) (*moduletest.Harness, *State) {
	t.Helper()
	h := moduletest.New(t)
	state := NewState(0)
	h.Core.Install(New(state, knownProjects{7: true}, knownAreas{1: true, 3: true}))

	h.Grant(citizen, domain.RoleCitizen)
	h.Grant(other, domain.RoleCitizen)
	h.Grant(validator, domain.RoleValidator)
	h.Grant(rival, domain.RoleValidator)
	h.Grant(head, domain.RoleAdminHead)
	return h, state
}

func fileOne(t *testing.T, h *moduletest.Harness) uint64 {
	t.Helper()
	return h.MustCall(citizen, "grievance", "fileGrievance", uint64(3), "Broken streetlight", "ipfs://evidence").ResultID
}

func TestGrievance_HappyPath(t *testing.T) {
	h, state := newTestHub(t)
	id := fileOne(t, h)

	h.MustCall(head, "grievance", "assignValidator", id, validator)
	h.MustCall(validator, "grievance", "validate", id)
	out := h.MustCall(citizen, "grievance", "resolve", id)

	require.Len(t, out.Events, 1)
	assert.Equal(t, string(models.GrievanceValidated), out.Events[0].From)
	assert.Equal(t, string(models.GrievanceResolved), out.Events[0].To)

	g, err := state.Grievance(id)
	require.NoError(t, err)
	assert.Equal(t, models.GrievanceResolved, g.Status)
	assert.NotNil(t, g.ReviewAt)
	assert.NotNil(t, g.DecidedAt)
	assert.NotNil(t, g.ResolvedAt)
	assert.Equal(t, ValidatorStats{Assigned: 1, Validated: 1}, state.ValidatorStats(validator))
}

func TestGrievance_ValidatorChecks(t *testing.T) {
	h, _ := newTestHub(t)
	id := fileOne(t, h)

	_, err := h.Call(validator, "grievance", "validate", id)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "not yet assigned")

	h.MustCall(head, "grievance", "assignValidator", id, validator)

	_, err = h.Call(citizen, "grievance", "validate", id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.Call(rival, "grievance", "validate", id)
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	_, err = h.Call(rival, "grievance", "reject", id, "not real")
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	_, err = h.Call(head, "grievance", "assignValidator", id, other)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "assignee must be a validator")
}

func TestGrievance_RejectIsTerminal(t *testing.T) {
	h, state := newTestHub(t)
	id := fileOne(t, h)
	h.MustCall(head, "grievance", "assignValidator", id, validator)

	_, err := h.Call(validator, "grievance", "reject", id, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	h.MustCall(validator, "grievance", "reject", id, "duplicate of #1")
	g, err := state.Grievance(id)
	require.NoError(t, err)
	assert.Equal(t, models.GrievanceRejected, g.Status)
	assert.Equal(t, "duplicate of #1", g.Feedback)

	for _, call := range []struct {
		caller common.Address
		method string
		args   []interface{}
	}{
		{caller: validator, method: "validate", args: []interface{}{id}},
		{caller: citizen, method: "resolve", args: []interface{}{id}},
		{caller: head, method: "assignValidator", args: []interface{}{id, validator}},
	} {
		_, err := h.Call(call.caller, "grievance", call.method, call.args...)
		assert.ErrorIs(t, err, domain.ErrInvalidState, call.method)
	}

	next := fileOne(t, h)
	assert.NotEqual(t, id, next, "refiling creates a new grievance")
}

func TestGrievance_ResolveAuthorization(t *testing.T) {
	h, _ := newTestHub(t)
	id := fileOne(t, h)
	h.MustCall(head, "grievance", "assignValidator", id, validator)

	_, err := h.Call(citizen, "grievance", "resolve", id)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "still under review")

	h.MustCall(validator, "grievance", "validate", id)
	_, err = h.Call(other, "grievance", "resolve", id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	h.MustCall(head, "grievance", "resolve", id)
}

func TestGrievance_MonthlyLimit(t *testing.T) {
	h, state := newTestHub(t)

	for i := 0; i < DefaultMonthlyLimit; i++ {
		fileOne(t, h)
	}
	_, err := h.Call(citizen, "grievance", "fileGrievance", uint64(3), "One more", "ipfs://x")
	assert.ErrorIs(t, err, domain.ErrMonthlyLimitReached)
	assert.Equal(t, uint64(DefaultMonthlyLimit), state.FilingsInMonth(citizen, h.Clock.Now()))

	h.MustCall(other, "grievance", "fileGrievance", uint64(3), "Different citizen", "ipfs://y")

	h.Clock.Advance(31 * 24 * time.Hour)
	fileOne(t, h)

	h.MustCall(h.Admin, "grievance", "setMonthlyLimit", uint64(1))
	_, err = h.Call(citizen, "grievance", "fileGrievance", uint64(3), "Over new limit", "ipfs://z")
	assert.ErrorIs(t, err, domain.ErrMonthlyLimitReached)
}

func TestGrievance_FilingRequiresCitizen(t *testing.T) {
	h, state := newTestHub(t)
	_, err := h.Call(validator, "grievance", "fileGrievance", uint64(1), "t", "ref")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.Call(citizen, "grievance", "fileGrievance", uint64(1), "", "ref")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.Call(citizen, "grievance", "fileGrievance", uint64(2), "Unknown ward", "ref")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, state.FilingsInMonth(citizen, h.Clock.Now()), "rejected filings do not count")
}

func TestGrievance_CommentsAndLinks(t *testing.T) {
	h, state := newTestHub(t)
	id := fileOne(t, h)

	h.MustCall(citizen, "grievance", "addComment", id, "ipfs://photo2")
	_, err := h.Call(other, "grievance", "addComment", id, "ipfs://spam")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.Call(head, "grievance", "linkProject", id, uint64(7))
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	h.MustCall(head, "grievance", "assignValidator", id, validator)
	h.MustCall(validator, "grievance", "addComment", id, "ipfs://site-visit")
	h.MustCall(validator, "grievance", "validate", id)

	_, err = h.Call(head, "grievance", "linkProject", id, uint64(8))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	h.MustCall(head, "grievance", "linkProject", id, uint64(7))

	g, err := state.Grievance(id)
	require.NoError(t, err)
	assert.Len(t, g.Comments, 2)
	assert.Equal(t, uint64(7), g.ProjectID)

	assert.Len(t, state.List(Filter{Filer: citizen}), 1)
	assert.Len(t, state.List(Filter{Status: models.GrievanceValidated, AreaID: 3}), 1)
	assert.Empty(t, state.List(Filter{Validator: rival}))
}
