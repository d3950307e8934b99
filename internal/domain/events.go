package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventRoleGranted      EventType = "RoleGranted"
	EventRoleRevoked      EventType = "RoleRevoked"
	EventRoleRequested    EventType = "RoleRequested"
	EventRoleRequestDone  EventType = "RoleRequestDecided"
	EventAreaCreated      EventType = "AreaCreated"
	EventAreaHeadAssigned EventType = "AreaAdminHeadAssigned"
	EventTransfer         EventType = "Transfer"
	EventMint             EventType = "Mint"
	EventTaxAssessed      EventType = "TaxAssessed"
	EventTaxPaid          EventType = "TaxPaid"
	EventTaxWaived        EventType = "TaxWaived"
	EventReceiptMinted    EventType = "ReceiptMinted"
	EventGrievanceFiled   EventType = "GrievanceFiled"
	EventGrievanceStatus  EventType = "GrievanceStatusChanged"
	EventGrievanceComment EventType = "GrievanceComment"
	EventGrievanceLinked  EventType = "GrievanceLinked"
	EventProjectCreated   EventType = "ProjectCreated"
	EventProjectStatus    EventType = "ProjectStatusChanged"
	EventMilestoneAdded   EventType = "MilestoneAdded"
	EventMilestoneDone    EventType = "MilestoneCompleted"
	EventBudgetAllocated  EventType = "BudgetAllocated"
	EventProjectUpvoted   EventType = "ProjectUpvoted"
	EventProjectFeedback  EventType = "ProjectFeedback"
	EventProposalCreated  EventType = "ProposalCreated"
	EventVoteCast         EventType = "VoteCast"
	EventProposalStatus   EventType = "ProposalStatusChanged"
	EventModuleRegistered EventType = "ModuleRegistered"
	EventMetaTxExecuted   EventType = "MetaTransactionExecuted"
)

// Event is one entry of the engine's event stream. ID and Seq are assigned
// when the call that produced the event commits.
type Event struct {
	ID       string            `json:"id"`
	Seq      uint64            `json:"seq"`
	Type     EventType         `json:"type"`
	Module   string            `json:"module"`
	EntityID uint64            `json:"entityId"`
	From     string            `json:"from,omitempty"`
	To       string            `json:"to,omitempty"`
	Actor    common.Address    `json:"actor"`
	Data     map[string]string `json:"data,omitempty"`
	At       time.Time         `json:"at"`
}

// Transition reports whether the event records a status change.
func (e Event) Transition() bool {
	return e.From != "" || e.To != ""
}

func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s#%d", e.Type, e.Module, e.EntityID)
	if e.Transition() {
		fmt.Fprintf(&b, " %s->%s", orDash(e.From), orDash(e.To))
	}
	fmt.Fprintf(&b, " by %s", e.Actor.Hex()[:10]+"...")
	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, ", %s=%s", k, e.Data[k])
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// EventFilter selects events from an event store.
type EventFilter struct {
	Module   string
	Type     EventType
	EntityID uint64
	Actor    common.Address
	Limit    int
}
