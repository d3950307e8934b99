package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AssessmentStatus represents the lifecycle status of a tax assessment
type AssessmentStatus string

const (
	AssessmentPending AssessmentStatus = "pending"
	AssessmentPaid    AssessmentStatus = "paid"
	AssessmentOverdue AssessmentStatus = "overdue" // derived, never stored
	AssessmentWaived  AssessmentStatus = "waived"
)

// TaxAssessment is a tax due from one payer for one year. Assessments are
// never deleted; Paid and Waived are terminal.
type TaxAssessment struct {
	ID         uint64           `json:"id"`
	Payer      common.Address   `json:"payer"`
	Year       uint16           `json:"year"`
	AmountDue  *big.Int         `json:"amountDue"`
	DueDate    time.Time        `json:"dueDate"`
	DocRef     string           `json:"docRef"`
	Status     AssessmentStatus `json:"status"`
	AssessedBy common.Address   `json:"assessedBy"`
	AssessedAt time.Time        `json:"assessedAt"`
	SettledAt  *time.Time       `json:"settledAt,omitempty"`
}

// StatusAt derives the visible status at now: a pending assessment past its
// due date reads as overdue.
func (a *TaxAssessment) StatusAt(now time.Time) AssessmentStatus {
	if a.Status == AssessmentPending && !a.DueDate.IsZero() && now.After(a.DueDate) {
		return AssessmentOverdue
	}
	return a.Status
}

// Terminal reports whether no further transition is possible.
func (a *TaxAssessment) Terminal() bool {
	return a.Status == AssessmentPaid || a.Status == AssessmentWaived
}

func (a *TaxAssessment) Clone() *TaxAssessment {
	c := *a
	return &c
}
