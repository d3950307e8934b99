// Package urban assembles the module set into one running system and owns
// the layout of its persisted state.
package urban

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/forwarder"
	"github.com/urbandao/urbandao/internal/modules/access"
	"github.com/urbandao/urbandao/internal/modules/governor"
	"github.com/urbandao/urbandao/internal/modules/grievance"
	"github.com/urbandao/urbandao/internal/modules/project"
	"github.com/urbandao/urbandao/internal/modules/receipt"
	"github.com/urbandao/urbandao/internal/modules/tax"
	"github.com/urbandao/urbandao/internal/modules/token"
)

// Deployment identifies one engine instance. It is fixed at genesis.
type Deployment struct {
	ChainID  uint64           `json:"chainId"`
	Admin    common.Address   `json:"admin"`
	Treasury common.Address   `json:"treasury"`
	Relayers []common.Address `json:"relayers,omitempty"`
}

// Validate checks identities only; amounts and parameters are checked by the
// modules that own them.
func (d Deployment) Validate() error {
	if d.ChainID == 0 {
		return fmt.Errorf("%w: chain id must be set", domain.ErrInvalidInput)
	}
	if d.Admin == (common.Address{}) {
		return fmt.Errorf("%w: zero admin", domain.ErrInvalidIdentity)
	}
	if d.Treasury == (common.Address{}) {
		return fmt.Errorf("%w: zero treasury", domain.ErrInvalidIdentity)
	}
	for _, r := range d.Relayers {
		if r == (common.Address{}) {
			return fmt.Errorf("%w: zero relayer", domain.ErrInvalidIdentity)
		}
	}
	return nil
}

// ForwarderDomain is the EIP-712 domain relayed requests are signed under.
func (d Deployment) ForwarderDomain() forwarder.Domain {
	return forwarder.Domain{
		ChainID:           new(big.Int).SetUint64(d.ChainID),
		VerifyingContract: core.ModuleAddress(models.ModuleForwarder),
	}
}

// Params are the settings a fresh system starts from.
type Params struct {
	Deployment     Deployment
	Governance     governor.Params
	MonthlyLimit   uint64
	ReceiptBaseURI string
}

// States is every persisted state slot, keyed by module id so that
// implementations can change underneath it.
type States struct {
	Deployment Deployment                `json:"deployment"`
	Access     *access.State             `json:"access"`
	Token      *token.State              `json:"token"`
	Tax        *tax.State                `json:"tax"`
	Receipt    *receipt.State            `json:"receipt"`
	Grievance  *grievance.State          `json:"grievance"`
	Project    *project.State            `json:"project"`
	Governor   *governor.State           `json:"governor"`
	Forwarder  *forwarder.State          `json:"forwarder"`
	Registry   map[string]common.Address `json:"registry,omitempty"`
	Seq        uint64                    `json:"seq"`
}

// EmptyStates returns allocated slots to decode persisted state into.
func EmptyStates() *States {
	gov, _ := governor.NewState(governor.DefaultParams())
	return &States{
		Access:    access.NewState(),
		Token:     token.NewState(),
		Tax:       tax.NewState(),
		Receipt:   receipt.NewState(""),
		Grievance: grievance.NewState(0),
		Project:   project.NewState(),
		Governor:  gov,
		Forwarder: forwarder.NewState(),
	}
}

// NewStates creates genesis state with the admin bootstrapped at time at.
func NewStates(p Params, at time.Time) (*States, error) {
	if err := p.Deployment.Validate(); err != nil {
		return nil, err
	}
	gov, err := governor.NewState(p.Governance)
	if err != nil {
		return nil, fmt.Errorf("governance params: %w", err)
	}
	s := EmptyStates()
	s.Deployment = p.Deployment
	s.Governor = gov
	s.Grievance = grievance.NewState(p.MonthlyLimit)
	s.Receipt = receipt.NewState(p.ReceiptBaseURI)
	if err := s.Access.Bootstrap(p.Deployment.Admin, at); err != nil {
		return nil, err
	}
	return s, nil
}

// System is a wired engine over one set of states.
type System struct {
	Core      *core.Core
	Forwarder *forwarder.Forwarder
	States    *States
	Governor  *governor.Module
	Projects  *project.Module
}

// New installs every module over states and restores the persisted registry.
func New(states *States, clock domain.Clock, log *slog.Logger, metrics *core.Metrics) (*System, error) {
	d := states.Deployment
	if err := d.Validate(); err != nil {
		return nil, err
	}

	c := core.New(clock, states.Access, log, metrics)
	receipts := receipt.New(states.Receipt, core.ModuleAddress(models.ModuleTax))
	sys := &System{
		Core:     c,
		States:   states,
		Governor: governor.New(states.Governor, states.Token, c),
		Projects: project.New(states.Project, states.Token, d.Treasury, states.Access),
	}

	c.Install(access.New(states.Access))
	c.Install(token.New(states.Token))
	c.Install(tax.New(states.Tax, states.Token, d.Treasury))
	c.Install(receipts)
	c.Install(grievance.New(states.Grievance, states.Project, states.Access))
	c.Install(sys.Projects)
	c.Install(sys.Governor)
	c.Subscribe(receipts)

	if len(states.Registry) > 0 {
		if err := c.RestorePointers(states.Registry); err != nil {
			return nil, err
		}
	}
	c.SetSeq(states.Seq)

	sys.Forwarder = forwarder.New(c, states.Forwarder, d.ForwarderDomain(), d.Relayers, metrics, log)
	return sys, nil
}

// Snapshot folds the core's registry and event sequence into the states and
// returns them for persistence.
func (s *System) Snapshot() *States {
	s.States.Registry = s.Core.Pointers()
	s.States.Seq = s.Core.Seq()
	return s.States
}

// Treasury returns the treasury's token balance.
func (s *System) Treasury() *big.Int {
	return s.States.Token.BalanceOf(s.States.Deployment.Treasury)
}

// Call packs method with args and executes it as caller.
func (s *System) Call(ctx context.Context, caller common.Address, role domain.Role, module, method string, args ...interface{}) (*core.Outcome, error) {
	mod := s.Core.Module(module)
	if mod == nil {
		_, err := s.Core.GetModule(module)
		return nil, err
	}
	data, err := core.Pack(mod, method, args...)
	if err != nil {
		return nil, err
	}
	return s.Core.Execute(ctx, core.Call{Caller: caller, Role: role, Module: module, Data: data})
}

// Encode parses CLI-form arguments against the live ABI of module and packs
// the call.
func (s *System) Encode(module, method string, raw []string) ([]byte, error) {
	mod := s.Core.Module(module)
	if mod == nil {
		_, err := s.Core.GetModule(module)
		return nil, err
	}
	m, err := core.Lookup(mod, method)
	if err != nil {
		return nil, err
	}
	args, err := core.ParseArgs(m, raw)
	if err != nil {
		return nil, err
	}
	return core.Pack(mod, method, args...)
}
