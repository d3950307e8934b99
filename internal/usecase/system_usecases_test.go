package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

func TestInitSystem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("creates genesis state", func(t *testing.T) {
		res := f.initSystem(t)
		assert.Equal(t, f.addr["admin"], res.Deployment.Admin)
		assert.Equal(t, core.ModuleAddress(models.ModuleGovernor), res.Executor)
		assert.Equal(t, 3, res.Grants)
		assert.Equal(t, 1, res.Areas)
		assert.Equal(t, 1, res.Mints)
		assert.NotEmpty(t, res.Modules)
		assert.Equal(t, res.Events, uint64(len(f.events.events)))
	})

	initSys := usecase.NewInitSystem(f.engine, f.store, f.events, f.genesis(), usecase.NopProgress{})

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, err := initSys.Execute(ctx, usecase.InitParams{})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("force replaces state and history", func(t *testing.T) {
		f.mustCall(t, "citizen", "token", "transfer", f.addr["relayer"].Hex(), "5")
		res, err := initSys.Execute(ctx, usecase.InitParams{Force: true})
		require.NoError(t, err)
		assert.Equal(t, res.Events, uint64(len(f.events.events)))

		acct, err := usecase.NewShowAccount(f.engine).Execute(ctx, f.addr["relayer"])
		require.NoError(t, err)
		assert.Zero(t, acct.Balance.Sign())
	})
}

func TestEngine_OpenWithoutState(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Open(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCallModule_TaxCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)
	citizen := f.addr["citizen"]

	res := f.mustCall(t, "collector", "tax", "assess", citizen.Hex(), "2025", "100", "0", "bafy-doc")
	assert.Equal(t, f.addr["collector"], res.Caller)
	id := res.Outcome.ResultID
	f.mustCall(t, "citizen", "tax", "payTax", "1")

	entity, err := usecase.NewShowEntity(f.engine).Execute(ctx, "assessment", id)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentPaid, entity.AssessmentStatus)

	acct, err := usecase.NewShowAccount(f.engine).Execute(ctx, citizen)
	require.NoError(t, err)
	assert.Equal(t, int64(900), acct.Balance.Int64())
	assert.Len(t, acct.Receipts, 1)
	assert.Equal(t, []domain.Role{domain.RoleCitizen}, acct.Roles)

	status, err := usecase.NewShowStatus(f.engine).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), status.Treasury.Int64())
	assert.Equal(t, int64(100), status.Collected.Int64())
	assert.Equal(t, 1, status.Receipts)
	assert.Equal(t, int64(1000), status.Supply.Int64())

	events, err := usecase.NewListEvents(f.events).Execute(ctx, domain.EventFilter{Module: "receipt"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventReceiptMinted, events[0].Type)
}

func TestCallModule_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)
	before := append([]byte(nil), f.store.raw...)

	tests := []struct {
		name    string
		params  usecase.CallParams
		wantErr error
	}{
		{name: "no sender", params: usecase.CallParams{Module: "token", Method: "transfer"}, wantErr: domain.ErrInvalidIdentity},
		{name: "unknown key", params: usecase.CallParams{From: "mallory", Module: "token", Method: "transfer"}, wantErr: domain.ErrNotFound},
		{name: "unknown module", params: usecase.CallParams{From: "citizen", Module: "parking", Method: "pay"}, wantErr: domain.ErrUnknownModule},
		{name: "bad role", params: usecase.CallParams{From: "citizen", Role: "mayor", Module: "token", Method: "transfer"}, wantErr: domain.ErrInvalidInput},
		{name: "unauthorized", params: usecase.CallParams{From: "citizen", Module: "tax", Method: "assess",
			Args: []string{common.HexToAddress("0xa1").Hex(), "2025", "1", "0", "doc"}}, wantErr: domain.ErrUnauthorized},
		{name: "reverted", params: usecase.CallParams{From: "citizen", Module: "token", Method: "transfer",
			Args: []string{common.HexToAddress("0xa1").Hex(), "5000"}}, wantErr: domain.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.call.Execute(ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, before, f.store.raw, "failed calls are never saved")
}

func TestRelay_SignAndSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)

	signed, err := usecase.NewSignRelay(f.engine, f.keys, f.files).Execute(ctx, usecase.SignRelayParams{
		From:   "citizen",
		Module: "grievance",
		Method: "fileGrievance",
		Args:   []string{"1", "Pothole on 5th", "ipfs://pothole"},
		Out:    "req.json",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.SignedRequest{*signed}, f.files["req.json"])
	assert.Equal(t, f.addr["citizen"], signed.Request.From)
	assert.Equal(t, uint64(genesisAt.Add(usecase.DefaultRelayTTL).Unix()), signed.Request.Deadline)

	submit := usecase.NewSubmitRelay(f.engine, f.keys, f.files)
	res, err := submit.Execute(ctx, usecase.SubmitRelayParams{Relayer: "relayer", Files: []string{"req.json"}})
	require.NoError(t, err)
	assert.Equal(t, f.addr["relayer"], res.Relayer)
	assert.Equal(t, 1, res.Succeeded())

	entity, err := usecase.NewShowEntity(f.engine).Execute(ctx, "grievance", res.Results[0].ResultID)
	require.NoError(t, err)
	assert.Equal(t, f.addr["citizen"], entity.Grievance.Filer)

	acct, err := usecase.NewShowAccount(f.engine).Execute(ctx, f.addr["citizen"])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acct.Nonce)

	backing := make([]models.SignedRequest, 1, 2)
	backing[0] = *signed
	res, err = submit.Execute(ctx, usecase.SubmitRelayParams{Relayer: "relayer", Requests: backing, Files: []string{"req.json"}})
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded())
	require.Len(t, res.Results, 2)
	assert.ErrorIs(t, res.Results[0].Err, domain.ErrNonceReused)
	assert.Equal(t, models.SignedRequest{}, backing[:2][1], "file requests stay out of the caller's slice")

	_, err = submit.Execute(ctx, usecase.SubmitRelayParams{Relayer: "relayer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = submit.Execute(ctx, usecase.SubmitRelayParams{Relayer: "relayer", Files: []string{"missing.json"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRelay_ExpiredRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)

	signed, err := usecase.NewSignRelay(f.engine, f.keys, f.files).Execute(ctx, usecase.SignRelayParams{
		From: "citizen", Module: "token", Method: "transfer",
		Args: []string{f.addr["relayer"].Hex(), "1"},
		TTL:  time.Minute,
	})
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	res, err := usecase.NewSubmitRelay(f.engine, f.keys, f.files).Execute(ctx, usecase.SubmitRelayParams{
		Relayer: "relayer", Requests: []models.SignedRequest{*signed},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Results[0].Err, domain.ErrExpired)
}

func TestProposeFromFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)
	newcomer := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	f.proposals["validator.yaml"] = &config.ProposalFile{
		Description: "Add a validator",
		Actions: []config.ProposalAction{
			{Module: "access", Method: "grantRole", Args: []string{newcomer.Hex(), "2"}},
		},
	}
	f.proposals["broken.yaml"] = &config.ProposalFile{
		Description: "Broken",
		Actions:     []config.ProposalAction{{Module: "access", Method: "grantRol", Args: []string{newcomer.Hex(), "2"}}},
	}
	propose := usecase.NewProposeFromFile(f.engine, f.proposals, f.call)

	res, err := propose.Execute(ctx, usecase.ProposeParams{From: "citizen", Path: "validator.yaml"})
	require.NoError(t, err)
	assert.Equal(t, f.addr["citizen"], res.Proposal.Proposer)
	require.Len(t, res.Proposal.Actions, 1)
	assert.Equal(t, "access", res.Proposal.Actions[0].Module)

	list, err := usecase.NewListEntities(f.engine).Execute(ctx, usecase.ListEntitiesParams{Kind: "proposal"})
	require.NoError(t, err)
	require.Len(t, list.Proposals, 1)
	assert.Equal(t, models.ProposalStatusPending, list.Statuses[res.Proposal.ID])

	_, err = propose.Execute(ctx, usecase.ProposeParams{From: "citizen", Path: "broken.yaml"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "grantRole")
}

func TestRegisterModule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)

	modules, err := usecase.NewListModules(f.engine).Execute(ctx)
	require.NoError(t, err)
	var taxImpl common.Address
	for _, m := range modules.Live {
		if m.ID == "tax" {
			taxImpl = m.Implementation
		}
	}
	require.NotEqual(t, common.Address{}, taxImpl)

	register := usecase.NewRegisterModule(f.cfg, f.engine, f.call, f.prompter, f.prompter)
	params := usecase.RegisterModuleParams{From: "admin", Module: "tax", Target: taxImpl.Hex()}

	t.Run("declined", func(t *testing.T) {
		f.prompter.On("Confirm", mock.Anything).Return(false, nil).Once()
		res, err := register.Execute(ctx, params)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
	})

	t.Run("confirmed", func(t *testing.T) {
		f.prompter.On("Confirm", mock.Anything).Return(true, nil).Once()
		seq := uint64(len(f.events.events))
		res, err := register.Execute(ctx, params)
		require.NoError(t, err)
		assert.False(t, res.Skipped)
		assert.Equal(t, taxImpl, res.Previous)
		require.Len(t, f.events.events, int(seq)+1)
		assert.Equal(t, domain.EventModuleRegistered, f.events.events[seq].Type)
	})

	t.Run("not an admin", func(t *testing.T) {
		p := params
		p.From, p.Yes = "citizen", true
		_, err := register.Execute(ctx, p)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown version", func(t *testing.T) {
		p := params
		p.Target, p.Yes = "9.9.9", true
		_, err := register.Execute(ctx, p)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no alternative to pick", func(t *testing.T) {
		p := params
		p.Target = ""
		_, err := register.Execute(ctx, p)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non-interactive needs yes", func(t *testing.T) {
		strict := usecase.NewRegisterModule(&config.RuntimeConfig{NonInteractive: true}, f.engine, f.call, f.prompter, f.prompter)
		_, err := strict.Execute(ctx, params)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	f.prompter.AssertExpectations(t)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initSystem(t)

	t.Run("unknown kind suggests", func(t *testing.T) {
		_, err := usecase.NewShowEntity(f.engine).Execute(ctx, "grievnce", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.ErrorContains(t, err, `did you mean "grievance"`)
	})

	t.Run("missing entity", func(t *testing.T) {
		_, err := usecase.NewShowEntity(f.engine).Execute(ctx, "project", 4)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("role holders", func(t *testing.T) {
		holders, err := usecase.NewListRoleHolders(f.engine).Execute(ctx, "tax-collector")
		require.NoError(t, err)
		require.Len(t, holders, 1)
		assert.Equal(t, []common.Address{f.addr["collector"]}, holders[0].Holders)

		all, err := usecase.NewListRoleHolders(f.engine).Execute(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, len(domain.AllRoles))
	})

	t.Run("areas and role requests", func(t *testing.T) {
		res := f.mustCall(t, "collector", "access", "requestRole", "2", "1", "ipfs://cv")
		require.Equal(t, uint64(1), res.Outcome.ResultID)

		area, err := usecase.NewShowEntity(f.engine).Execute(ctx, "area", 1)
		require.NoError(t, err)
		assert.Equal(t, "Old Town", area.Area.Name)

		list, err := usecase.NewListEntities(f.engine).Execute(ctx, usecase.ListEntitiesParams{
			Kind: "request", Status: string(models.RequestPending), AreaID: 1,
		})
		require.NoError(t, err)
		require.Len(t, list.Requests, 1)
		assert.Equal(t, f.addr["collector"], list.Requests[0].Requester)

		status, err := usecase.NewShowStatus(f.engine).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, status.Areas)
		assert.Equal(t, 1, status.PendingRequests)
	})

	t.Run("assessments need an account", func(t *testing.T) {
		_, err := usecase.NewListEntities(f.engine).Execute(ctx, usecase.ListEntitiesParams{Kind: "assessment"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
