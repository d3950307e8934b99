package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/urban"
)

// Engine opens the persisted system for one command and saves it back.
type Engine struct {
	store   StateStore
	events  EventStore
	sinks   EventSinks
	clock   domain.Clock
	log     *slog.Logger
	metrics *core.Metrics
}

// NewEngine creates a new engine loader
func NewEngine(
	store StateStore,
	events EventStore,
	sinks EventSinks,
	clock domain.Clock,
	log *slog.Logger,
	metrics *core.Metrics,
) *Engine {
	return &Engine{
		store:   store,
		events:  events,
		sinks:   sinks,
		clock:   clock,
		log:     log,
		metrics: metrics,
	}
}

// Open loads the persisted state and wires a system over it.
func (e *Engine) Open(ctx context.Context) (*urban.System, error) {
	ok, err := e.store.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no state found, run 'urbandao init' first", domain.ErrNotFound)
	}
	states, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return e.wire(states)
}

// Create wires a system over fresh genesis states.
func (e *Engine) Create(params urban.Params) (*urban.System, error) {
	states, err := urban.NewStates(params, e.clock.Now())
	if err != nil {
		return nil, err
	}
	return e.wire(states)
}

func (e *Engine) wire(states *urban.States) (*urban.System, error) {
	sys, err := urban.New(states, e.clock, e.log, e.metrics)
	if err != nil {
		return nil, err
	}
	sys.Core.AddSink(e.events)
	for _, s := range e.sinks {
		sys.Core.AddSink(s)
	}
	return sys, nil
}

// Save persists the system's state.
func (e *Engine) Save(ctx context.Context, sys *urban.System) error {
	if err := e.store.Save(ctx, sys.Snapshot()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}
