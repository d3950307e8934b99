package grievance

import (
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// DefaultMonthlyLimit caps grievances per citizen per calendar month.
const DefaultMonthlyLimit = 5

type State struct {
	Grievances   map[uint64]*models.Grievance `json:"grievances"`
	NextID       uint64                       `json:"nextId"`
	Filings      map[string]uint64            `json:"filings"`
	MonthlyLimit uint64                       `json:"monthlyLimit"`
}

func NewState(monthlyLimit uint64) *State {
	if monthlyLimit == 0 {
		monthlyLimit = DefaultMonthlyLimit
	}
	return &State{
		Grievances:   make(map[uint64]*models.Grievance),
		Filings:      make(map[string]uint64),
		MonthlyLimit: monthlyLimit,
	}
}

func filingKey(filer common.Address, at time.Time) string {
	return fmt.Sprintf("%s/%s", filer.Hex(), at.UTC().Format("2006-01"))
}

func (s *State) get(id uint64) (*models.Grievance, error) {
	g, ok := s.Grievances[id]
	if !ok {
		return nil, fmt.Errorf("%w: grievance %d", domain.ErrNotFound, id)
	}
	return g, nil
}

// Grievance returns a copy of a grievance.
func (s *State) Grievance(id uint64) (*models.Grievance, error) {
	g, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// FilingsInMonth counts what filer has filed in the calendar month of at.
func (s *State) FilingsInMonth(filer common.Address, at time.Time) uint64 {
	return s.Filings[filingKey(filer, at)]
}

// Filter selects grievances; zero fields match everything.
type Filter struct {
	Filer     common.Address
	Validator common.Address
	Status    models.GrievanceStatus
	AreaID    uint64
}

func (f Filter) matches(g *models.Grievance) bool {
	if f.Filer != (common.Address{}) && g.Filer != f.Filer {
		return false
	}
	if f.Validator != (common.Address{}) && g.Validator != f.Validator {
		return false
	}
	if f.Status != "" && g.Status != f.Status {
		return false
	}
	if f.AreaID != 0 && g.AreaID != f.AreaID {
		return false
	}
	return true
}

// List returns matching grievances ordered by id.
func (s *State) List(f Filter) []*models.Grievance {
	var out []*models.Grievance
	for _, g := range s.Grievances {
		if f.matches(g) {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidatorStats counts a validator's decisions.
type ValidatorStats struct {
	Assigned  int
	Validated int
	Rejected  int
}

func (s *State) ValidatorStats(validator common.Address) ValidatorStats {
	var st ValidatorStats
	for _, g := range s.Grievances {
		if g.Validator != validator {
			continue
		}
		st.Assigned++
		switch g.Status {
		case models.GrievanceValidated, models.GrievanceResolved:
			st.Validated++
		case models.GrievanceRejected:
			st.Rejected++
		}
	}
	return st
}
