package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/config"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// ListModules reports the module registry
type ListModules struct {
	engine *Engine
}

// NewListModules creates a new list modules use case
func NewListModules(engine *Engine) *ListModules {
	return &ListModules{engine: engine}
}

// ModuleListResult contains live pointers and the full catalog
type ModuleListResult struct {
	Live            []models.ModuleInfo
	Implementations []models.ModuleInfo
}

// Execute lists the registry
func (l *ListModules) Execute(ctx context.Context) (*ModuleListResult, error) {
	sys, err := l.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &ModuleListResult{
		Live:            sys.Core.Modules(),
		Implementations: sys.Core.Implementations(),
	}, nil
}

// RegisterModule switches a module id to another implementation
type RegisterModule struct {
	cfg       *config.RuntimeConfig
	engine    *Engine
	call      *CallModule
	confirmer Confirmer
	selector  Selector
}

// NewRegisterModule creates a new register module use case
func NewRegisterModule(cfg *config.RuntimeConfig, engine *Engine, call *CallModule, confirmer Confirmer, selector Selector) *RegisterModule {
	return &RegisterModule{cfg: cfg, engine: engine, call: call, confirmer: confirmer, selector: selector}
}

// RegisterModuleParams contains parameters for an upgrade
type RegisterModuleParams struct {
	From   string
	Module string
	// Target is an implementation address or a version of the module. Empty
	// prompts for one of the installed implementations.
	Target string
	// Yes skips the confirmation prompt
	Yes bool
}

// RegisterModuleResult reports the switch
type RegisterModuleResult struct {
	Module   string
	Previous common.Address
	Current  common.Address
	Skipped  bool
}

// Execute confirms and performs the upgrade
func (r *RegisterModule) Execute(ctx context.Context, params RegisterModuleParams) (*RegisterModuleResult, error) {
	sys, err := r.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := sys.Core.GetModule(params.Module)
	if err != nil {
		return nil, err
	}

	var impl common.Address
	switch {
	case params.Target == "":
		if impl, err = r.pick(sys.Core.Implementations(), params.Module, prev); err != nil {
			return nil, err
		}
	case common.IsHexAddress(params.Target):
		impl = common.HexToAddress(params.Target)
	default:
		impl = core.ImplementationAddress(params.Module, params.Target)
	}
	result := &RegisterModuleResult{Module: params.Module, Previous: prev, Current: impl}

	if !params.Yes {
		if r.cfg.NonInteractive {
			return nil, fmt.Errorf("%w: confirmation required, pass --yes in non-interactive mode", domain.ErrInvalidInput)
		}
		ok, err := r.confirmer.Confirm(fmt.Sprintf("Point %s at %s", params.Module, impl.Hex()))
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Skipped = true
			return result, nil
		}
	}

	if _, err := r.call.Execute(ctx, CallParams{
		From:   params.From,
		Module: models.ModuleCore,
		Method: "registerModule",
		Args:   []string{params.Module, impl.Hex()},
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *RegisterModule) pick(catalog []models.ModuleInfo, module string, current common.Address) (common.Address, error) {
	candidates := lo.Filter(catalog, func(m models.ModuleInfo, _ int) bool {
		return m.ID == module && m.Implementation != current
	})
	if len(candidates) == 0 {
		return common.Address{}, fmt.Errorf("%w: no other implementation of %s is installed", domain.ErrNotFound, module)
	}
	options := lo.Map(candidates, func(m models.ModuleInfo, _ int) string {
		return fmt.Sprintf("%s v%s (%s)", m.ID, m.Version, m.Implementation.Hex())
	})
	idx, err := r.selector.Select(fmt.Sprintf("Implementation for %s", module), options)
	if err != nil {
		return common.Address{}, err
	}
	return candidates[idx].Implementation, nil
}
