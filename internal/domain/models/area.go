package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Area is an administrative ward. Grievances and projects are filed against
// one, and its admin head reviews role requests made in it.
type Area struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	MetadataURI string         `json:"metadataUri,omitempty"`
	AdminHead   common.Address `json:"adminHead"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// HasHead reports whether an admin head has been assigned.
func (a *Area) HasHead() bool {
	return a.AdminHead != (common.Address{})
}

// RequestStatus represents the review status of a role request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RoleRequest is an account asking to be granted a role in an area.
type RoleRequest struct {
	ID          uint64         `json:"id"`
	Requester   common.Address `json:"requester"`
	Role        uint8          `json:"role"`
	AreaID      uint64         `json:"areaId"`
	MetadataURI string         `json:"metadataUri,omitempty"`
	Status      RequestStatus  `json:"status"`
	Reviewer    common.Address `json:"reviewer,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	RequestedAt time.Time      `json:"requestedAt"`
	DecidedAt   *time.Time     `json:"decidedAt,omitempty"`
}

func (r *RoleRequest) Clone() *RoleRequest {
	c := *r
	return &c
}
