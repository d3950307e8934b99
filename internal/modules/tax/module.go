// Package tax assesses and collects citizen taxes. Payments move tokens from
// the payer to the treasury and announce themselves with a TaxPaid event.
package tax

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const Version = "1.0.0"

const taxABI = `[
	{"type":"function","name":"assess","inputs":[
		{"name":"payer","type":"address"},
		{"name":"year","type":"uint16"},
		{"name":"amount","type":"uint256"},
		{"name":"dueDate","type":"uint64"},
		{"name":"docRef","type":"string"}],"outputs":[{"name":"id","type":"uint64"}]},
	{"type":"function","name":"payTax","inputs":[
		{"name":"assessmentId","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"waive","inputs":[
		{"name":"assessmentId","type":"uint64"}],"outputs":[]}
]`

var parsedABI = core.MustABI(taxABI)

// Ledger moves tokens inside an open call.
type Ledger interface {
	Transfer(ctx context.Context, j *journal.Journal, actor, from, to common.Address, amount *big.Int) error
}

type Module struct {
	state    *State
	ledger   Ledger
	treasury common.Address
}

var _ core.Module = (*Module)(nil)

func New(state *State, ledger Ledger, treasury common.Address) *Module {
	return &Module{state: state, ledger: ledger, treasury: treasury}
}

func (m *Module) ID() string      { return models.ModuleTax }
func (m *Module) Version() string { return Version }
func (m *Module) ABI() abi.ABI    { return parsedABI }
func (m *Module) State() *State   { return m.state }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"assess": {domain.RoleTaxCollector},
		"payTax": {},
		"waive":  {domain.RoleTaxCollector},
	}
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	switch inv.Method.Name {
	case "assess":
		return m.assess(ctx, inv)
	case "payTax":
		return inv.Args.Uint64(0), m.pay(ctx, inv, inv.Args.Uint64(0))
	case "waive":
		return inv.Args.Uint64(0), m.waive(ctx, inv, inv.Args.Uint64(0))
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}

func (m *Module) assess(ctx context.Context, inv *core.Invocation) (uint64, error) {
	payer := inv.Args.Address(0)
	year := inv.Args.Uint16(1)
	amount := inv.Args.Big(2)
	docRef := inv.Args.String(4)

	if payer == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero payer", domain.ErrInvalidIdentity)
	}
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: assessment of %s", domain.ErrInvalidAmount, amount)
	}
	if docRef == "" {
		return 0, fmt.Errorf("%w: empty document reference", domain.ErrInvalidInput)
	}
	key := payerYearKey(payer, year)
	if id, ok := m.state.ByPayerYear[key]; ok {
		return 0, fmt.Errorf("%w: %s already assessed for %d (assessment %d)", domain.ErrAlreadyExists, payer.Hex(), year, id)
	}

	var due time.Time
	if secs := inv.Args.Uint64(3); secs > 0 {
		due = time.Unix(int64(secs), 0).UTC()
	}

	id := m.state.NextID + 1
	journal.Assign(inv.Journal, &m.state.NextID, id)
	journal.Set(inv.Journal, m.state.Assessments, id, &models.TaxAssessment{
		ID:         id,
		Payer:      payer,
		Year:       year,
		AmountDue:  amount,
		DueDate:    due,
		DocRef:     docRef,
		Status:     models.AssessmentPending,
		AssessedBy: inv.Caller,
		AssessedAt: inv.Now(),
	})
	journal.Set(inv.Journal, m.state.ByPayerYear, key, id)

	return id, inv.Emit(ctx, domain.Event{
		Type:     domain.EventTaxAssessed,
		EntityID: id,
		To:       string(models.AssessmentPending),
		Data: map[string]string{
			"payer":  payer.Hex(),
			"year":   strconv.Itoa(int(year)),
			"amount": amount.String(),
		},
	})
}

// pay settles an assessment. The status is written before the transfer so a
// re-entrant payment sees it as paid.
func (m *Module) pay(ctx context.Context, inv *core.Invocation, id uint64) error {
	a, err := m.state.get(id)
	if err != nil {
		return err
	}
	if a.Payer != inv.Caller {
		return fmt.Errorf("%w: assessment %d is owed by %s", domain.ErrUnauthorized, id, a.Payer.Hex())
	}
	switch a.Status {
	case models.AssessmentPaid:
		return fmt.Errorf("%w: assessment %d", domain.ErrAlreadyPaid, id)
	case models.AssessmentWaived:
		return fmt.Errorf("%w: assessment %d was waived", domain.ErrInvalidState, id)
	}

	from := a.StatusAt(inv.Now())
	now := inv.Now()
	next := a.Clone()
	next.Status = models.AssessmentPaid
	next.SettledAt = &now
	journal.Set(inv.Journal, m.state.Assessments, id, next)

	if err := m.ledger.Transfer(ctx, inv.Journal, core.ModuleAddress(m.ID()), a.Payer, m.treasury, a.AmountDue); err != nil {
		return err
	}
	journal.Assign(inv.Journal, &m.state.Collected, new(big.Int).Add(m.state.Collected, a.AmountDue))

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventTaxPaid,
		EntityID: id,
		From:     string(from),
		To:       string(models.AssessmentPaid),
		Data: map[string]string{
			"payer":  a.Payer.Hex(),
			"year":   strconv.Itoa(int(a.Year)),
			"amount": a.AmountDue.String(),
			"docRef": a.DocRef,
		},
	})
}

func (m *Module) waive(ctx context.Context, inv *core.Invocation, id uint64) error {
	a, err := m.state.get(id)
	if err != nil {
		return err
	}
	if a.Terminal() {
		return fmt.Errorf("%w: assessment %d is %s", domain.ErrInvalidState, id, a.Status)
	}

	from := a.StatusAt(inv.Now())
	now := inv.Now()
	next := a.Clone()
	next.Status = models.AssessmentWaived
	next.SettledAt = &now
	journal.Set(inv.Journal, m.state.Assessments, id, next)

	return inv.Emit(ctx, domain.Event{
		Type:     domain.EventTaxWaived,
		EntityID: id,
		From:     string(from),
		To:       string(models.AssessmentWaived),
		Data:     map[string]string{"payer": a.Payer.Hex()},
	})
}
