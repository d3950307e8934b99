// Package receipt issues non-transferable tax receipts. Receipts are minted
// only in response to a committed tax payment; there is no way to change a
// receipt's owner.
package receipt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const Version = "1.0.0"

const receiptABI = `[
	{"type":"function","name":"transfer","inputs":[
		{"name":"to","type":"address"},
		{"name":"receiptId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"setBaseURI","inputs":[
		{"name":"baseUri","type":"string"}],"outputs":[]}
]`

var parsedABI = core.MustABI(receiptABI)

type State struct {
	Receipts     map[uint64]*models.TaxReceipt `json:"receipts"`
	ByAssessment map[uint64]uint64             `json:"byAssessment"`
	NextID       uint64                        `json:"nextId"`
	BaseURI      string                        `json:"baseUri"`
}

func NewState(baseURI string) *State {
	return &State{
		Receipts:     make(map[uint64]*models.TaxReceipt),
		ByAssessment: make(map[uint64]uint64),
		BaseURI:      baseURI,
	}
}

// Module serves receipts and mints them when it sees a TaxPaid event from
// the registered minter.
type Module struct {
	state  *State
	minter common.Address
}

var _ core.Module = (*Module)(nil)
var _ journal.Subscriber = (*Module)(nil)

func New(state *State, minter common.Address) *Module {
	return &Module{state: state, minter: minter}
}

func (m *Module) ID() string             { return models.ModuleReceipt }
func (m *Module) Version() string        { return Version }
func (m *Module) ABI() abi.ABI           { return parsedABI }
func (m *Module) State() *State          { return m.state }
func (m *Module) Minter() common.Address { return m.minter }

func (m *Module) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"transfer":   {},
		"setBaseURI": {domain.RoleAdminGovt},
	}
}

func (m *Module) Invoke(ctx context.Context, inv *core.Invocation) (uint64, error) {
	switch inv.Method.Name {
	case "transfer":
		return 0, fmt.Errorf("%w: receipt %s", domain.ErrNonTransferable, inv.Args.Big(1))
	case "setBaseURI":
		journal.Assign(inv.Journal, &m.state.BaseURI, inv.Args.String(0))
		return 0, nil
	}
	return 0, domain.UnknownMethodErr{Module: m.ID(), Method: inv.Method.Name}
}

func (m *Module) Accepts(ev domain.Event) bool {
	return ev.Type == domain.EventTaxPaid
}

// HandleEvent mints the receipt for a payment. The emitting module's
// identity is the caller of the mint.
func (m *Module) HandleEvent(ctx context.Context, j *journal.Journal, ev domain.Event) error {
	payer := ev.Data["payer"]
	if !common.IsHexAddress(payer) {
		return fmt.Errorf("%w: payment event without payer", domain.ErrInvalidInput)
	}
	_, err := m.MintOnPayment(ctx, j, core.ModuleAddress(ev.Module), ev.EntityID, common.HexToAddress(payer), ev.Data["docRef"])
	return err
}

// MintOnPayment issues the receipt for an assessment. Only the registered
// minter may call it, and only once per assessment.
func (m *Module) MintOnPayment(ctx context.Context, j *journal.Journal, caller common.Address, assessmentID uint64, payer common.Address, metadata string) (uint64, error) {
	if caller != m.minter {
		return 0, fmt.Errorf("%w: %s is not the receipt minter", domain.ErrUnauthorized, caller.Hex())
	}
	if payer == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero payer", domain.ErrInvalidIdentity)
	}
	if id, ok := m.state.ByAssessment[assessmentID]; ok {
		return 0, fmt.Errorf("%w: assessment %d already has receipt %d", domain.ErrDuplicateReceipt, assessmentID, id)
	}

	id := m.state.NextID + 1
	journal.Assign(j, &m.state.NextID, id)
	journal.Set(j, m.state.Receipts, id, &models.TaxReceipt{
		ID:           id,
		Owner:        payer,
		AssessmentID: assessmentID,
		MetadataURI:  metadata,
		MintedAt:     j.Now(),
	})
	journal.Set(j, m.state.ByAssessment, assessmentID, id)

	return id, j.Emit(ctx, domain.Event{
		Type:     domain.EventReceiptMinted,
		Module:   m.ID(),
		EntityID: id,
		Actor:    caller,
		Data: map[string]string{
			"owner":      payer.Hex(),
			"assessment": strconv.FormatUint(assessmentID, 10),
		},
	})
}

// Receipt returns a copy of a receipt.
func (s *State) Receipt(id uint64) (models.TaxReceipt, error) {
	r, ok := s.Receipts[id]
	if !ok {
		return models.TaxReceipt{}, fmt.Errorf("%w: receipt %d", domain.ErrNotFound, id)
	}
	return *r, nil
}

// ForAssessment returns the receipt minted for an assessment.
func (s *State) ForAssessment(assessmentID uint64) (models.TaxReceipt, error) {
	id, ok := s.ByAssessment[assessmentID]
	if !ok {
		return models.TaxReceipt{}, fmt.Errorf("%w: no receipt for assessment %d", domain.ErrNotFound, assessmentID)
	}
	return s.Receipt(id)
}

// ReceiptsOf lists an owner's receipts by id.
func (s *State) ReceiptsOf(owner common.Address) []models.TaxReceipt {
	var out []models.TaxReceipt
	for _, r := range s.Receipts {
		if r.Owner == owner {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TokenURI joins the base URI and the receipt's metadata reference.
func (s *State) TokenURI(id uint64) (string, error) {
	r, err := s.Receipt(id)
	if err != nil {
		return "", err
	}
	if s.BaseURI == "" {
		return r.MetadataURI, nil
	}
	return strings.TrimSuffix(s.BaseURI, "/") + "/" + strings.TrimPrefix(r.MetadataURI, "/"), nil
}

func (s *State) Count() int {
	return len(s.Receipts)
}
