package usecase

import (
	"context"
	"fmt"

	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// ProposeFromFile submits a governance proposal described in a YAML file
type ProposeFromFile struct {
	engine *Engine
	loader ProposalLoader
	call   *CallModule
}

// NewProposeFromFile creates a new proposal use case
func NewProposeFromFile(engine *Engine, loader ProposalLoader, call *CallModule) *ProposeFromFile {
	return &ProposeFromFile{engine: engine, loader: loader, call: call}
}

// ProposeParams contains parameters for proposing
type ProposeParams struct {
	From string
	Path string
}

// ProposeResult contains the created proposal
type ProposeResult struct {
	Proposal *models.Proposal
	Outcome  *core.Outcome
}

// Execute encodes each action against the live module ABIs and proposes them
func (p *ProposeFromFile) Execute(ctx context.Context, params ProposeParams) (*ProposeResult, error) {
	file, err := p.loader.Load(params.Path)
	if err != nil {
		return nil, err
	}
	caller, err := p.call.caller(params.From)
	if err != nil {
		return nil, err
	}

	sys, err := p.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	modules := make([]string, len(file.Actions))
	calldatas := make([][]byte, len(file.Actions))
	for i, a := range file.Actions {
		data, err := sys.Encode(a.Module, a.Method, a.Args)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s.%s): %w", i, a.Module, a.Method, err)
		}
		modules[i] = a.Module
		calldatas[i] = data
	}

	out, err := sys.Call(ctx, caller, domain.RoleNone, models.ModuleGovernor, "propose", file.Description, modules, calldatas)
	if err != nil {
		return nil, fmt.Errorf("propose reverted: %w", err)
	}
	if err := p.engine.Save(ctx, sys); err != nil {
		return nil, err
	}
	proposal, err := sys.States.Governor.Proposal(out.ResultID)
	if err != nil {
		return nil, err
	}
	return &ProposeResult{Proposal: proposal, Outcome: out}, nil
}
