package usecase

import (
	"context"
	"crypto/ecdsa"

	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/urban"
)

// StateStore persists the engine's state slots between commands
type StateStore interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (*urban.States, error)
	Save(ctx context.Context, states *urban.States) error
}

// EventStore keeps the committed event stream
type EventStore interface {
	core.EventSink
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	Reset(ctx context.Context) error
}

// KeyStore resolves a key name to a signing key
type KeyStore interface {
	Key(name string) (*ecdsa.PrivateKey, error)
}

// RequestFiles stores signed forward requests for hand-off to a relayer
type RequestFiles interface {
	Write(ctx context.Context, path string, req *models.SignedRequest) error
	Read(ctx context.Context, path string) ([]models.SignedRequest, error)
}

// GenesisLoader produces the parameters and setup of a fresh system
type GenesisLoader interface {
	Load(ctx context.Context) (urban.Params, urban.Genesis, error)
}

// ProposalLoader reads a proposal file
type ProposalLoader interface {
	Load(path string) (*config.ProposalFile, error)
}

// Confirmer asks the operator before irreversible changes
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Selector lets the operator pick one of several options
type Selector interface {
	Select(prompt string, options []string) (int, error)
}

// Progress tracking interfaces

// ProgressSink receives progress messages. Stage marks the start of a step
// that lasts until the next Stage, Done, Info or Error.
type ProgressSink interface {
	Stage(message string)
	Done()
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) Stage(string) {}
func (NopProgress) Done()        {}
func (NopProgress) Info(string)  {}
func (NopProgress) Error(string) {}

// EventSinks receive committed events in addition to the event store
type EventSinks []core.EventSink
