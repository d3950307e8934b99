package tax

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

type State struct {
	Assessments map[uint64]*models.TaxAssessment `json:"assessments"`
	ByPayerYear map[string]uint64                `json:"byPayerYear"`
	NextID      uint64                           `json:"nextId"`
	Collected   *big.Int                         `json:"collected"`
}

func NewState() *State {
	return &State{
		Assessments: make(map[uint64]*models.TaxAssessment),
		ByPayerYear: make(map[string]uint64),
		Collected:   new(big.Int),
	}
}

func payerYearKey(payer common.Address, year uint16) string {
	return fmt.Sprintf("%s/%d", payer.Hex(), year)
}

func (s *State) get(id uint64) (*models.TaxAssessment, error) {
	a, ok := s.Assessments[id]
	if !ok {
		return nil, fmt.Errorf("%w: assessment %d", domain.ErrNotFound, id)
	}
	return a, nil
}

// Assessment returns a copy of an assessment.
func (s *State) Assessment(id uint64) (*models.TaxAssessment, error) {
	a, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// Lookup finds the assessment of payer for year.
func (s *State) Lookup(payer common.Address, year uint16) (*models.TaxAssessment, error) {
	id, ok := s.ByPayerYear[payerYearKey(payer, year)]
	if !ok {
		return nil, fmt.Errorf("%w: no assessment for %s in %d", domain.ErrNotFound, payer.Hex(), year)
	}
	return s.Assessment(id)
}

// AssessmentsOf lists a payer's assessments by year.
func (s *State) AssessmentsOf(payer common.Address) []*models.TaxAssessment {
	out := lo.FilterMap(lo.Values(s.Assessments), func(a *models.TaxAssessment, _ int) (*models.TaxAssessment, bool) {
		return a.Clone(), a.Payer == payer
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// CountByStatus tallies assessments by their status as seen at now.
func (s *State) CountByStatus(now time.Time) map[models.AssessmentStatus]int {
	counts := make(map[models.AssessmentStatus]int)
	for _, a := range s.Assessments {
		counts[a.StatusAt(now)]++
	}
	return counts
}

// TotalCollected is the sum of all settled payments.
func (s *State) TotalCollected() *big.Int {
	return new(big.Int).Set(s.Collected)
}
