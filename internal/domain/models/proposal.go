package models

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ProposalStatus represents the status of a governance proposal
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusActive    ProposalStatus = "active"
	ProposalStatusSucceeded ProposalStatus = "succeeded"
	ProposalStatusDefeated  ProposalStatus = "defeated"
	ProposalStatusQueued    ProposalStatus = "queued"
	ProposalStatusExecuted  ProposalStatus = "executed"
	ProposalStatusCanceled  ProposalStatus = "canceled"
)

// VoteSupport is the direction of a cast vote
type VoteSupport uint8

const (
	VoteAgainst VoteSupport = iota
	VoteFor
	VoteAbstain
)

func (s VoteSupport) String() string {
	switch s {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// ParseVoteSupport accepts "for", "against", "abstain" or their numeric
// values.
func ParseVoteSupport(s string) (VoteSupport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "against", "no":
		return VoteAgainst, nil
	case "1", "for", "yes":
		return VoteFor, nil
	case "2", "abstain":
		return VoteAbstain, nil
	}
	return 0, fmt.Errorf("unknown vote %q (for, against or abstain)", s)
}

// ProposalAction is one call a proposal dispatches through the core when
// executed.
type ProposalAction struct {
	Module string        `json:"module"`
	Data   hexutil.Bytes `json:"data"`
}

// Vote records one account's ballot.
type Vote struct {
	Support VoteSupport `json:"support"`
	Weight  *big.Int    `json:"weight"`
}

// Proposal is a governance proposal. Only Queued, Executed and Canceled are
// stored in Status; the earlier phases are derived from the clock and the
// tally.
type Proposal struct {
	ID          uint64           `json:"id"`
	Proposer    common.Address   `json:"proposer"`
	Description string           `json:"description"`
	Actions     []ProposalAction `json:"actions"`
	Status      ProposalStatus   `json:"status"`

	Snapshot  time.Time `json:"snapshot"`
	VoteStart time.Time `json:"voteStart"`
	VoteEnd   time.Time `json:"voteEnd"`
	ETA       time.Time `json:"eta,omitempty"`

	ForVotes     *big.Int                `json:"forVotes"`
	AgainstVotes *big.Int                `json:"againstVotes"`
	AbstainVotes *big.Int                `json:"abstainVotes"`
	Votes        map[common.Address]Vote `json:"votes"`
	Quorum       *big.Int                `json:"quorum"`
}

// StateAt derives the proposal status at now.
func (p *Proposal) StateAt(now time.Time) ProposalStatus {
	switch p.Status {
	case ProposalStatusQueued, ProposalStatusExecuted, ProposalStatusCanceled:
		return p.Status
	}
	if now.Before(p.VoteStart) {
		return ProposalStatusPending
	}
	if !now.After(p.VoteEnd) {
		return ProposalStatusActive
	}
	if p.QuorumReached() && p.ForVotes.Cmp(p.AgainstVotes) > 0 {
		return ProposalStatusSucceeded
	}
	return ProposalStatusDefeated
}

// QuorumReached counts for and abstain weight against the quorum.
func (p *Proposal) QuorumReached() bool {
	counted := new(big.Int).Add(p.ForVotes, p.AbstainVotes)
	return counted.Cmp(p.Quorum) >= 0
}

func (p *Proposal) Clone() *Proposal {
	c := *p
	c.Actions = append([]ProposalAction(nil), p.Actions...)
	c.Votes = make(map[common.Address]Vote, len(p.Votes))
	for k, v := range p.Votes {
		c.Votes[k] = v
	}
	return &c
}
