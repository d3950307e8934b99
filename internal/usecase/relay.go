package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

// DefaultRelayTTL is how long a signed request stays valid when no TTL is given.
const DefaultRelayTTL = time.Hour

// SignRelay produces a signed forward request from a local key
type SignRelay struct {
	engine *Engine
	keys   KeyStore
	files  RequestFiles
}

// NewSignRelay creates a new relay signing use case
func NewSignRelay(engine *Engine, keys KeyStore, files RequestFiles) *SignRelay {
	return &SignRelay{engine: engine, keys: keys, files: files}
}

// SignRelayParams contains parameters for signing
type SignRelayParams struct {
	From   string
	Module string
	Method string
	Args   []string
	TTL    time.Duration
	// Nonce overrides the signer's next nonce when set
	Nonce *uint64
	// Out, when set, receives the signed request
	Out string
}

// Execute builds and signs the request. Nothing is executed and engine state
// is left untouched.
func (s *SignRelay) Execute(ctx context.Context, params SignRelayParams) (*models.SignedRequest, error) {
	if params.From == "" {
		return nil, fmt.Errorf("%w: no signer key given (use --from)", domain.ErrInvalidIdentity)
	}
	key, err := s.keys.Key(params.From)
	if err != nil {
		return nil, err
	}
	sys, err := s.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	data, err := sys.Encode(params.Module, params.Method, params.Args)
	if err != nil {
		return nil, err
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultRelayTTL
	}
	req := models.ForwardRequest{
		From:     from,
		Module:   params.Module,
		Nonce:    lo.FromPtrOr(params.Nonce, sys.Forwarder.NonceOf(from)),
		Deadline: uint64(s.engine.Now().Add(ttl).Unix()),
		Data:     data,
	}
	sig, err := sys.Forwarder.Domain().Sign(key, req)
	if err != nil {
		return nil, err
	}
	signed := &models.SignedRequest{Request: req, Signature: sig}
	if params.Out != "" {
		if err := s.files.Write(ctx, params.Out, signed); err != nil {
			return nil, err
		}
	}
	return signed, nil
}

// SubmitRelay executes signed requests as a relayer
type SubmitRelay struct {
	engine *Engine
	keys   KeyStore
	files  RequestFiles
}

// NewSubmitRelay creates a new relay submission use case
func NewSubmitRelay(engine *Engine, keys KeyStore, files RequestFiles) *SubmitRelay {
	return &SubmitRelay{engine: engine, keys: keys, files: files}
}

// SubmitRelayParams contains parameters for submission
type SubmitRelayParams struct {
	Relayer  string
	Requests []models.SignedRequest
	// Files are read in order and appended after Requests
	Files []string
}

// SubmitRelayResult reports each request's outcome
type SubmitRelayResult struct {
	Relayer common.Address
	Results []models.RelayResult
}

// Succeeded counts the committed requests.
func (r *SubmitRelayResult) Succeeded() int {
	return lo.CountBy(r.Results, func(res models.RelayResult) bool { return res.Err == nil })
}

// Execute relays every request on its own and persists whatever committed.
func (s *SubmitRelay) Execute(ctx context.Context, params SubmitRelayParams) (*SubmitRelayResult, error) {
	requests := append([]models.SignedRequest(nil), params.Requests...)
	for _, path := range params.Files {
		reqs, err := s.files.Read(ctx, path)
		if err != nil {
			return nil, err
		}
		requests = append(requests, reqs...)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: no requests to relay", domain.ErrInvalidInput)
	}
	if params.Relayer == "" {
		return nil, fmt.Errorf("%w: no relayer key given (use --relayer)", domain.ErrInvalidIdentity)
	}
	key, err := s.keys.Key(params.Relayer)
	if err != nil {
		return nil, err
	}
	relayer := crypto.PubkeyToAddress(key.PublicKey)

	sys, err := s.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	result := &SubmitRelayResult{
		Relayer: relayer,
		Results: sys.Forwarder.ExecuteBatch(ctx, relayer, requests),
	}
	if result.Succeeded() > 0 {
		if err := s.engine.Save(ctx, sys); err != nil {
			return nil, err
		}
	}
	return result, nil
}
