package receipt

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/journal"
	"github.com/urbandao/urbandao/internal/modules/moduletest"
)

var (
	minter = core.ModuleAddress("tax")
	owner  = moduletest.Addr(0x0a)
)

func TestReceipt_MintOnlyByMinter(t *testing.T) {
	state := NewState("")
	m := New(state, minter)
	j := journal.New(moduletest.Genesis)

	_, err := m.MintOnPayment(context.Background(), j, owner, 1, owner, "cid")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, state.Count())

	id, err := m.MintOnPayment(context.Background(), j, minter, 1, owner, "cid")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	_, err = m.MintOnPayment(context.Background(), j, minter, 1, owner, "cid")
	assert.ErrorIs(t, err, domain.ErrDuplicateReceipt)

	r, err := state.Receipt(id)
	require.NoError(t, err)
	assert.Equal(t, owner, r.Owner)
	require.Len(t, j.Events(), 1)
	assert.Equal(t, domain.EventReceiptMinted, j.Events()[0].Type)

	j.Revert()
	assert.Zero(t, state.Count())
	assert.Zero(t, state.NextID)
}

func TestReceipt_PaymentEventFromOtherModuleRejected(t *testing.T) {
	m := New(NewState(""), minter)
	j := journal.New(moduletest.Genesis, m)

	err := j.Emit(context.Background(), domain.Event{
		Type:     domain.EventTaxPaid,
		Module:   "grievance",
		EntityID: 9,
		Data:     map[string]string{"payer": owner.Hex()},
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestReceipt_TransferAlwaysFails(t *testing.T) {
	h := moduletest.New(t)
	state := NewState("")
	m := New(state, minter)
	h.Core.Install(m)

	_, err := m.MintOnPayment(context.Background(), journal.New(moduletest.Genesis), minter, 4, owner, "cid")
	require.NoError(t, err)

	for _, caller := range []common.Address{owner, h.Admin} {
		_, err := h.Call(caller, "receipt", "transfer", moduletest.Addr(0x0b), big.NewInt(1))
		assert.ErrorIs(t, err, domain.ErrNonTransferable)
	}
	r, err := state.Receipt(1)
	require.NoError(t, err)
	assert.Equal(t, owner, r.Owner)
}

func TestReceipt_TokenURIAndBaseURI(t *testing.T) {
	h := moduletest.New(t)
	state := NewState("ipfs://base/")
	m := New(state, minter)
	h.Core.Install(m)

	_, err := m.MintOnPayment(context.Background(), journal.New(moduletest.Genesis), minter, 4, owner, "bafy1")
	require.NoError(t, err)

	uri, err := state.TokenURI(1)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://base/bafy1", uri)

	_, err = h.Call(owner, "receipt", "setBaseURI", "https://gw/")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	h.MustCall(h.Admin, "receipt", "setBaseURI", "https://gw")
	uri, err = state.TokenURI(1)
	require.NoError(t, err)
	assert.Equal(t, "https://gw/bafy1", uri)

	assert.Len(t, state.ReceiptsOf(owner), 1)
	_, err = state.TokenURI(2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
