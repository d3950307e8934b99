package forwarder

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/modules/moduletest"
	"github.com/urbandao/urbandao/internal/modules/token"
)

const (
	citizenKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	otherKeyHex   = "8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f"
)

var (
	relayer   = moduletest.Addr(0xee)
	recipient = moduletest.Addr(0x99)
	testDom   = Domain{ChainID: big.NewInt(31337), VerifyingContract: moduletest.Addr(0xf0)}
)

type fixture struct {
	*moduletest.Harness
	fwd     *Forwarder
	tokens  *token.State
	key     *ecdsa.PrivateKey
	citizen common.Address
	metrics *core.Metrics
}

func newFixture(t *testing.T, relayers ...common.Address) *fixture {
	t.Helper()
	h := moduletest.New(t)
	key, err := crypto.HexToECDSA(citizenKeyHex)
	require.NoError(t, err)

	f := &fixture{
		Harness: h,
		tokens:  token.NewState(),
		key:     key,
		citizen: crypto.PubkeyToAddress(key.PublicKey),
		metrics: core.NewMetrics(prometheus.NewRegistry()),
	}
	h.Core.Install(token.New(f.tokens))
	f.fwd = New(h.Core, NewState(), testDom, relayers, f.metrics, nil)
	h.MustCall(h.Admin, "token", "mint", f.citizen, big.NewInt(100))
	return f
}

func (f *fixture) request(t *testing.T, nonce uint64, amount int64) models.ForwardRequest {
	t.Helper()
	return models.ForwardRequest{
		From:     f.citizen,
		Module:   "token",
		Nonce:    nonce,
		Deadline: uint64(f.Clock.Now().Add(time.Hour).Unix()),
		Data:     core.MustPack(f.Core.Module("token"), "transfer", recipient, big.NewInt(amount)),
	}
}

func (f *fixture) sign(t *testing.T, key *ecdsa.PrivateKey, req models.ForwardRequest) models.SignedRequest {
	t.Helper()
	sig, err := testDom.Sign(key, req)
	require.NoError(t, err)
	return models.SignedRequest{Request: req, Signature: sig}
}

func TestForwarder_RelaysAsSigner(t *testing.T) {
	f := newFixture(t)
	signed := f.sign(t, f.key, f.request(t, 0, 40))

	require.NoError(t, f.fwd.Verify(signed.Request, signed.Signature))
	out, err := f.fwd.Execute(context.Background(), relayer, signed)
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{domain.EventTransfer, domain.EventMetaTxExecuted}, moduletest.Types(out))
	assert.Equal(t, f.citizen, out.Events[0].Actor, "the signer is the effective caller")
	assert.Equal(t, relayer, out.Events[1].Actor)
	assert.Equal(t, int64(40), f.tokens.BalanceOf(recipient).Int64())
	assert.Equal(t, uint64(1), f.fwd.NonceOf(f.citizen))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Relays().WithLabelValues("ok")))

	_, err = f.fwd.Execute(context.Background(), relayer, signed)
	assert.ErrorIs(t, err, domain.ErrNonceReused, "a committed request cannot be replayed")
	assert.Equal(t, int64(40), f.tokens.BalanceOf(recipient).Int64())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Relays().WithLabelValues("reverted")))
}

func TestForwarder_Rejections(t *testing.T) {
	f := newFixture(t)
	other, err := crypto.HexToECDSA(otherKeyHex)
	require.NoError(t, err)

	expired := f.request(t, 0, 1)
	expired.Deadline = uint64(f.Clock.Now().Add(-time.Second).Unix())

	tampered := f.sign(t, f.key, f.request(t, 0, 1))
	tampered.Request.Data = f.request(t, 0, 90).Data

	truncated := f.sign(t, f.key, f.request(t, 0, 1))
	truncated.Signature = truncated.Signature[:64]

	tests := []struct {
		name    string
		signed  models.SignedRequest
		wantErr error
	}{
		{name: "expired", signed: f.sign(t, f.key, expired), wantErr: domain.ErrExpired},
		{name: "wrong signer", signed: f.sign(t, other, f.request(t, 0, 1)), wantErr: domain.ErrInvalidSignature},
		{name: "tampered payload", signed: tampered, wantErr: domain.ErrInvalidSignature},
		{name: "short signature", signed: truncated, wantErr: domain.ErrInvalidSignature},
		{name: "future nonce", signed: f.sign(t, f.key, f.request(t, 3, 1)), wantErr: domain.ErrNonceReused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.fwd.Execute(context.Background(), relayer, tt.signed)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, f.fwd.NonceOf(f.citizen))
	assert.Equal(t, int64(100), f.tokens.BalanceOf(f.citizen).Int64())
}

func TestForwarder_FailedCallKeepsNonce(t *testing.T) {
	f := newFixture(t)
	signed := f.sign(t, f.key, f.request(t, 0, 150))

	_, err := f.fwd.Execute(context.Background(), relayer, signed)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Zero(t, f.fwd.NonceOf(f.citizen), "nonce increment reverts with the call")

	f.MustCall(f.Admin, "token", "mint", f.citizen, big.NewInt(50))
	_, err = f.fwd.Execute(context.Background(), relayer, signed)
	require.NoError(t, err, "the same request succeeds once funded")
	assert.Equal(t, uint64(1), f.fwd.NonceOf(f.citizen))
}

func TestForwarder_RelayerAllowList(t *testing.T) {
	f := newFixture(t, relayer)
	signed := f.sign(t, f.key, f.request(t, 0, 1))

	_, err := f.fwd.Execute(context.Background(), moduletest.Addr(0xef), signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.fwd.Execute(context.Background(), common.Address{}, signed)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	_, err = f.fwd.Execute(context.Background(), relayer, signed)
	assert.NoError(t, err)
	assert.Equal(t, []common.Address{relayer}, f.fwd.Relayers())
}

func TestForwarder_ExecuteBatch(t *testing.T) {
	f := newFixture(t)
	batch := []models.SignedRequest{
		f.sign(t, f.key, f.request(t, 0, 10)),
		f.sign(t, f.key, f.request(t, 1, 500)),
		f.sign(t, f.key, f.request(t, 1, 20)),
	}

	results := f.fwd.ExecuteBatch(context.Background(), relayer, batch)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrInsufficientBalance)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, int64(30), f.tokens.BalanceOf(recipient).Int64())
	assert.Equal(t, uint64(2), f.fwd.NonceOf(f.citizen))
}

func TestDomain_Separator(t *testing.T) {
	a, err := testDom.Separator()
	require.NoError(t, err)
	again, err := testDom.Separator()
	require.NoError(t, err)
	assert.Equal(t, a, again)

	b, err := Domain{ChainID: big.NewInt(1), VerifyingContract: testDom.VerifyingContract}.Separator()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	key, err := crypto.HexToECDSA(citizenKeyHex)
	require.NoError(t, err)
	req := models.ForwardRequest{From: crypto.PubkeyToAddress(key.PublicKey), Module: "token", Deadline: 1, Data: []byte{1, 2, 3, 4}}
	sig, err := testDom.Sign(key, req)
	require.NoError(t, err)

	other := Domain{ChainID: big.NewInt(1), VerifyingContract: testDom.VerifyingContract}
	signer, err := other.Recover(req, sig)
	require.NoError(t, err)
	assert.NotEqual(t, req.From, signer, "signatures do not carry across chains")
}
