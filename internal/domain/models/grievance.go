package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GrievanceStatus represents the review status of a grievance
type GrievanceStatus string

const (
	GrievanceFiled       GrievanceStatus = "filed"
	GrievanceUnderReview GrievanceStatus = "under_review"
	GrievanceValidated   GrievanceStatus = "validated"
	GrievanceRejected    GrievanceStatus = "rejected"
	GrievanceResolved    GrievanceStatus = "resolved"
)

// Terminal reports whether the status admits no further transitions.
func (s GrievanceStatus) Terminal() bool {
	return s == GrievanceRejected || s == GrievanceResolved
}

// Grievance is a citizen complaint moving through validator review.
type Grievance struct {
	ID             uint64          `json:"id"`
	Filer          common.Address  `json:"filer"`
	AreaID         uint64          `json:"areaId"`
	Title          string          `json:"title"`
	DescriptionRef string          `json:"descriptionRef"`
	Status         GrievanceStatus `json:"status"`
	Validator      common.Address  `json:"validator"`
	Feedback       string          `json:"feedback,omitempty"`
	ProjectID      uint64          `json:"projectId,omitempty"`
	Comments       []Comment       `json:"comments,omitempty"`

	FiledAt    time.Time  `json:"filedAt"`
	ReviewAt   *time.Time `json:"reviewAt,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Comment is an append-only note on a grievance.
type Comment struct {
	Author common.Address `json:"author"`
	Ref    string         `json:"ref"`
	At     time.Time      `json:"at"`
}

// Assigned reports whether a validator has been assigned.
func (g *Grievance) Assigned() bool {
	return g.Validator != (common.Address{})
}

func (g *Grievance) Clone() *Grievance {
	c := *g
	c.Comments = append([]Comment(nil), g.Comments...)
	return &c
}
