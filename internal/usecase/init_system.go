package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/urban"
)

// InitSystem creates genesis state from the genesis file
type InitSystem struct {
	engine   *Engine
	store    StateStore
	events   EventStore
	genesis  GenesisLoader
	progress ProgressSink
}

// NewInitSystem creates a new init use case
func NewInitSystem(
	engine *Engine,
	store StateStore,
	events EventStore,
	genesis GenesisLoader,
	progress ProgressSink,
) *InitSystem {
	return &InitSystem{
		engine:   engine,
		store:    store,
		events:   events,
		genesis:  genesis,
		progress: progress,
	}
}

// InitParams contains parameters for initialization
type InitParams struct {
	// Force replaces existing state and drops the event history
	Force bool
}

// InitResult describes the freshly created system
type InitResult struct {
	Deployment urban.Deployment
	Executor   common.Address
	Modules    []models.ModuleInfo
	Grants     int
	Areas      int
	Mints      int
	Events     uint64
}

// Execute runs genesis and persists the result
func (i *InitSystem) Execute(ctx context.Context, params InitParams) (*InitResult, error) {
	exists, err := i.store.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists && !params.Force {
		return nil, fmt.Errorf("%w: state already initialized (use --force to replace it)", domain.ErrAlreadyExists)
	}

	i.progress.Stage("Loading genesis")
	p, genesis, err := i.genesis.Load(ctx)
	if err != nil {
		i.progress.Error("Genesis could not be loaded")
		return nil, err
	}

	if exists {
		if err := i.events.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset event store: %w", err)
		}
		i.progress.Info("Replacing existing state")
	}

	i.progress.Stage("Applying genesis")
	sys, err := i.engine.Create(p)
	if err != nil {
		i.progress.Error("Genesis rejected")
		return nil, err
	}
	if err := sys.ApplyGenesis(ctx, genesis); err != nil {
		i.progress.Error("Genesis rejected")
		return nil, err
	}

	i.progress.Stage("Saving state")
	if err := i.engine.Save(ctx, sys); err != nil {
		i.progress.Error("State could not be saved")
		return nil, err
	}
	i.progress.Done()

	return &InitResult{
		Deployment: sys.States.Deployment,
		Executor:   sys.Governor.Executor(),
		Modules:    sys.Core.Modules(),
		Grants:     len(genesis.Grants),
		Areas:      len(genesis.Areas),
		Mints:      len(genesis.Mints),
		Events:     sys.Core.Seq(),
	}, nil
}
