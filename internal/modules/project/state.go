package project

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// State holds every project and the treasury amount reserved for them.
type State struct {
	Projects map[uint64]*models.Project `json:"projects"`
	NextID   uint64                     `json:"nextId"`
	// Reserved is the sum over projects of allocated minus disbursed.
	Reserved *big.Int `json:"reserved"`
}

func NewState() *State {
	return &State{
		Projects: make(map[uint64]*models.Project),
		Reserved: new(big.Int),
	}
}

func (s *State) get(id uint64) (*models.Project, error) {
	p, ok := s.Projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %d", domain.ErrNotFound, id)
	}
	return p, nil
}

// Project returns a copy of a project.
func (s *State) Project(id uint64) (*models.Project, error) {
	p, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (s *State) Exists(id uint64) bool {
	_, ok := s.Projects[id]
	return ok
}

// TotalReserved returns a copy of the outstanding treasury reservation.
func (s *State) TotalReserved() *big.Int {
	return new(big.Int).Set(s.Reserved)
}

// Filter selects projects; zero fields match everything.
type Filter struct {
	Manager common.Address
	Status  models.ProjectStatus
	AreaID  uint64
}

// List returns matching projects ordered by id.
func (s *State) List(f Filter) []*models.Project {
	var out []*models.Project
	for _, p := range s.Projects {
		if f.Manager != (common.Address{}) && p.Manager != f.Manager {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.AreaID != 0 && p.AreaID != f.AreaID {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
