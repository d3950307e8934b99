package governor

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// Params are the governance timing and threshold settings.
type Params struct {
	VotingDelay       time.Duration `json:"votingDelay"`
	VotingPeriod      time.Duration `json:"votingPeriod"`
	TimelockDelay     time.Duration `json:"timelockDelay"`
	QuorumBps         uint64        `json:"quorumBps"`
	ProposalThreshold *big.Int      `json:"proposalThreshold"`
}

// DefaultParams mirrors a one-day delay, one-week vote, one-day timelock
// and 4% quorum.
func DefaultParams() Params {
	return Params{
		VotingDelay:       24 * time.Hour,
		VotingPeriod:      7 * 24 * time.Hour,
		TimelockDelay:     24 * time.Hour,
		QuorumBps:         400,
		ProposalThreshold: new(big.Int),
	}
}

func (p Params) validate() error {
	if p.VotingPeriod <= 0 {
		return fmt.Errorf("%w: voting period must be positive", domain.ErrInvalidInput)
	}
	if p.TimelockDelay <= 0 {
		return fmt.Errorf("%w: timelock delay must be positive", domain.ErrInvalidInput)
	}
	if p.VotingDelay < 0 {
		return fmt.Errorf("%w: negative voting delay", domain.ErrInvalidInput)
	}
	if p.QuorumBps > 10_000 {
		return fmt.Errorf("%w: quorum above 100%%", domain.ErrInvalidInput)
	}
	if p.ProposalThreshold == nil || p.ProposalThreshold.Sign() < 0 {
		return fmt.Errorf("%w: proposal threshold", domain.ErrInvalidAmount)
	}
	return nil
}

type State struct {
	Proposals map[uint64]*models.Proposal `json:"proposals"`
	NextID    uint64                      `json:"nextId"`
	Params    Params                      `json:"params"`
}

func NewState(params Params) (*State, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &State{Proposals: make(map[uint64]*models.Proposal), Params: params}, nil
}

func (s *State) get(id uint64) (*models.Proposal, error) {
	p, ok := s.Proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: proposal %d", domain.ErrNotFound, id)
	}
	return p, nil
}

// Proposal returns a copy of a proposal.
func (s *State) Proposal(id uint64) (*models.Proposal, error) {
	p, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// StateOf derives a proposal's status at now.
func (s *State) StateOf(id uint64, now time.Time) (models.ProposalStatus, error) {
	p, err := s.get(id)
	if err != nil {
		return "", err
	}
	return p.StateAt(now), nil
}

// List returns every proposal ordered by id.
func (s *State) List() []*models.Proposal {
	out := make([]*models.Proposal, 0, len(s.Proposals))
	for _, p := range s.Proposals {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
