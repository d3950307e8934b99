// Package forwarder relays citizen-signed requests into the core. The signer
// becomes the effective caller; the relayer only pays for transport.
package forwarder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

// Engine is the part of the core the forwarder drives.
type Engine interface {
	core.Dispatcher
	Atomically(ctx context.Context, fn func(ctx context.Context, j *journal.Journal) (uint64, error)) (*core.Outcome, error)
}

// State holds the next expected nonce per signer.
type State struct {
	Nonces map[common.Address]uint64 `json:"nonces"`
}

func NewState() *State {
	return &State{Nonces: make(map[common.Address]uint64)}
}

// Forwarder verifies and relays signed requests.
type Forwarder struct {
	engine   Engine
	state    *State
	domain   Domain
	relayers map[common.Address]bool
	metrics  *core.Metrics
	log      *slog.Logger
}

// New creates a forwarder. An empty relayers list lets any account relay.
func New(engine Engine, state *State, d Domain, relayers []common.Address, metrics *core.Metrics, log *slog.Logger) *Forwarder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Forwarder{
		engine:   engine,
		state:    state,
		domain:   d,
		relayers: lo.SliceToMap(relayers, func(a common.Address) (common.Address, bool) { return a, true }),
		metrics:  metrics,
		log:      log.With("component", "forwarder"),
	}
}

func (f *Forwarder) Domain() Domain { return f.domain }

// DomainSeparator is the EIP-712 separator requests are signed under.
func (f *Forwarder) DomainSeparator() (common.Hash, error) {
	return f.domain.Separator()
}

// NonceOf returns the nonce the next request from account must carry.
func (f *Forwarder) NonceOf(account common.Address) uint64 {
	return f.state.Nonces[account]
}

// Relayers lists the allow-listed relayers, sorted. Empty means open.
func (f *Forwarder) Relayers() []common.Address {
	out := lo.Keys(f.relayers)
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Verify checks a request's signature and nonce without executing it.
func (f *Forwarder) Verify(req models.ForwardRequest, signature []byte) error {
	return f.verify(req, signature)
}

func (f *Forwarder) verify(req models.ForwardRequest, signature []byte) error {
	if req.From == (common.Address{}) {
		return fmt.Errorf("%w: request has no signer", domain.ErrInvalidIdentity)
	}
	signer, err := f.domain.Recover(req, signature)
	if err != nil {
		return err
	}
	if signer != req.From {
		return fmt.Errorf("%w: signed by %s, not %s", domain.ErrInvalidSignature, signer.Hex(), req.From.Hex())
	}
	if want := f.state.Nonces[req.From]; req.Nonce != want {
		return fmt.Errorf("%w: nonce %d, expected %d", domain.ErrNonceReused, req.Nonce, want)
	}
	return nil
}

// Execute verifies a signed request and dispatches it with the signer as the
// effective caller. The nonce increment and the forwarded call commit or
// revert together, so a failed request can be resubmitted unchanged.
func (f *Forwarder) Execute(ctx context.Context, relayer common.Address, signed models.SignedRequest) (*core.Outcome, error) {
	out, err := f.execute(ctx, relayer, signed)
	f.metrics.ObserveRelay(err)
	if err != nil {
		f.log.Debug("relay rejected", "from", signed.Request.From.Hex(), "nonce", signed.Request.Nonce, "error", err)
		return nil, err
	}
	f.log.Debug("relay committed", "from", signed.Request.From.Hex(), "nonce", signed.Request.Nonce, "module", signed.Request.Module)
	return out, nil
}

func (f *Forwarder) execute(ctx context.Context, relayer common.Address, signed models.SignedRequest) (*core.Outcome, error) {
	if relayer == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero relayer", domain.ErrInvalidIdentity)
	}
	if len(f.relayers) > 0 && !f.relayers[relayer] {
		return nil, fmt.Errorf("%w: %s is not an allowed relayer", domain.ErrUnauthorized, relayer.Hex())
	}

	req := signed.Request
	out, err := f.engine.Atomically(ctx, func(ctx context.Context, j *journal.Journal) (uint64, error) {
		if err := f.verify(req, signed.Signature); err != nil {
			return 0, err
		}
		if j.Now().After(req.ExpiresAt()) {
			return 0, fmt.Errorf("%w: deadline %d passed", domain.ErrExpired, req.Deadline)
		}

		journal.Set(j, f.state.Nonces, req.From, req.Nonce+1)
		id, err := f.engine.Dispatch(ctx, j, core.Call{
			Caller:  req.From,
			Relayer: relayer,
			Module:  req.Module,
			Data:    req.Data,
		})
		if err != nil {
			return 0, err
		}

		return id, j.Emit(ctx, domain.Event{
			Type:     domain.EventMetaTxExecuted,
			Module:   models.ModuleForwarder,
			EntityID: req.Nonce,
			Actor:    relayer,
			Data: map[string]string{
				"from":   req.From.Hex(),
				"module": req.Module,
				"nonce":  strconv.FormatUint(req.Nonce, 10),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	out.Module = req.Module
	return out, nil
}

// ExecuteBatch relays each request on its own; one failure does not affect
// the others.
func (f *Forwarder) ExecuteBatch(ctx context.Context, relayer common.Address, batch []models.SignedRequest) []models.RelayResult {
	results := make([]models.RelayResult, len(batch))
	for i, signed := range batch {
		res := models.RelayResult{From: signed.Request.From, Nonce: signed.Request.Nonce}
		out, err := f.Execute(ctx, relayer, signed)
		if err != nil {
			res.Err = err
		} else {
			res.ResultID = out.ResultID
		}
		results[i] = res
	}
	return results
}
