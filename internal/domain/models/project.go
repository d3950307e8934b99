package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProjectStatus represents the lifecycle status of a public project
type ProjectStatus string

const (
	ProjectProposed   ProjectStatus = "proposed"
	ProjectApproved   ProjectStatus = "approved"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

// Project is a treasury-funded public works project. Amounts are never
// mutated in place; every change assigns a fresh *big.Int.
type Project struct {
	ID          uint64         `json:"id"`
	Manager     common.Address `json:"manager"`
	AreaID      uint64         `json:"areaId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	MetadataCID string         `json:"metadataCid"`
	Status      ProjectStatus  `json:"status"`

	Budget    *big.Int `json:"budget"`
	Allocated *big.Int `json:"allocated"`
	Disbursed *big.Int `json:"disbursed"`

	Milestones []Milestone                 `json:"milestones"`
	Upvoters   []common.Address            `json:"upvoters,omitempty"`
	Feedback   []ProjectFeedback           `json:"feedback,omitempty"`
	History    map[ProjectStatus]time.Time `json:"history"`
}

// Milestone is one ordered phase of a project with its disbursement.
type Milestone struct {
	Description string     `json:"description"`
	Amount      *big.Int   `json:"amount"`
	Deadline    time.Time  `json:"deadline"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ProjectFeedback is a citizen's verdict on a completed project.
type ProjectFeedback struct {
	Citizen   common.Address `json:"citizen"`
	Satisfied bool           `json:"satisfied"`
	Ref       string         `json:"ref"`
	At        time.Time      `json:"at"`
}

// MilestoneTotal sums the declared milestone amounts.
func (p *Project) MilestoneTotal() *big.Int {
	total := new(big.Int)
	for _, m := range p.Milestones {
		total.Add(total, m.Amount)
	}
	return total
}

// Reserved is the allocated amount not yet disbursed.
func (p *Project) Reserved() *big.Int {
	return new(big.Int).Sub(p.Allocated, p.Disbursed)
}

// NextMilestone returns the index of the first incomplete milestone, or -1.
func (p *Project) NextMilestone() int {
	for i, m := range p.Milestones {
		if !m.Completed {
			return i
		}
	}
	return -1
}

func (p *Project) Clone() *Project {
	c := *p
	c.Milestones = append([]Milestone(nil), p.Milestones...)
	c.Upvoters = append([]common.Address(nil), p.Upvoters...)
	c.Feedback = append([]ProjectFeedback(nil), p.Feedback...)
	c.History = make(map[ProjectStatus]time.Time, len(p.History))
	for k, v := range p.History {
		c.History[k] = v
	}
	return &c
}
