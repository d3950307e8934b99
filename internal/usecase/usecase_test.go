package usecase_test

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/modules/governor"
	"github.com/urbandao/urbandao/internal/urban"
	"github.com/urbandao/urbandao/internal/usecase"
)

var (
	genesisAt = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	treasury  = common.HexToAddress("0x000000000000000000000000000000000000007e")
)

var testKeys = map[string]string{
	"admin":     "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"collector": "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"citizen":   "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	"relayer":   "8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f",
}

// memStateStore keeps the state as JSON, the same round trip the file store does
type memStateStore struct {
	raw []byte
}

func (m *memStateStore) Exists(context.Context) (bool, error) { return m.raw != nil, nil }

func (m *memStateStore) Load(context.Context) (*urban.States, error) {
	states := urban.EmptyStates()
	return states, json.Unmarshal(m.raw, states)
}

func (m *memStateStore) Save(_ context.Context, states *urban.States) error {
	raw, err := json.Marshal(states)
	m.raw = raw
	return err
}

type memEventStore struct {
	events []domain.Event
}

func (m *memEventStore) Publish(_ context.Context, events []domain.Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *memEventStore) List(_ context.Context, f domain.EventFilter) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range m.events {
		if f.Module != "" && ev.Module != f.Module {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memEventStore) Reset(context.Context) error {
	m.events = nil
	return nil
}

type keyMap map[string]*ecdsa.PrivateKey

func (k keyMap) Key(name string) (*ecdsa.PrivateKey, error) {
	key, ok := k[name]
	if !ok {
		return nil, fmt.Errorf("%w: key %q", domain.ErrNotFound, name)
	}
	return key, nil
}

type genesisFunc func() (urban.Params, urban.Genesis, error)

func (g genesisFunc) Load(context.Context) (urban.Params, urban.Genesis, error) { return g() }

type proposalMap map[string]*config.ProposalFile

func (p proposalMap) Load(path string) (*config.ProposalFile, error) {
	f, ok := p[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return f, nil
}

// MockPrompter is a mock implementation of Confirmer and Selector
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Confirm(prompt string) (bool, error) {
	args := m.Called(prompt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) Select(prompt string, options []string) (int, error) {
	args := m.Called(prompt, options)
	return args.Int(0), args.Error(1)
}

// requestFileMap keeps signed requests in memory by path
type requestFileMap map[string][]models.SignedRequest

func (m requestFileMap) Write(_ context.Context, path string, req *models.SignedRequest) error {
	m[path] = []models.SignedRequest{*req}
	return nil
}

func (m requestFileMap) Read(_ context.Context, path string) ([]models.SignedRequest, error) {
	reqs, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%w: request file %s", domain.ErrNotFound, path)
	}
	return reqs, nil
}

type fixture struct {
	cfg       *config.RuntimeConfig
	clock     *domain.ManualClock
	store     *memStateStore
	events    *memEventStore
	keys      keyMap
	addr      map[string]common.Address
	proposals proposalMap
	files     requestFileMap
	prompter  *MockPrompter
	engine    *usecase.Engine
	call      *usecase.CallModule
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cfg:       &config.RuntimeConfig{},
		clock:     domain.NewManualClock(genesisAt),
		store:     &memStateStore{},
		events:    &memEventStore{},
		keys:      keyMap{},
		addr:      map[string]common.Address{},
		proposals: proposalMap{},
		files:     requestFileMap{},
		prompter:  &MockPrompter{},
	}
	for name, hex := range testKeys {
		key, err := crypto.HexToECDSA(hex)
		require.NoError(t, err)
		f.keys[name] = key
		f.addr[name] = crypto.PubkeyToAddress(key.PublicKey)
	}
	f.engine = usecase.NewEngine(f.store, f.events, nil, f.clock, nil, nil)
	f.call = usecase.NewCallModule(f.engine, f.keys)
	return f
}

func (f *fixture) genesis() usecase.GenesisLoader {
	return genesisFunc(func() (urban.Params, urban.Genesis, error) {
		return urban.Params{
				Deployment: urban.Deployment{ChainID: 31337, Admin: f.addr["admin"], Treasury: treasury},
				Governance: governor.DefaultParams(),
			}, urban.Genesis{
				Grants: []urban.Grant{
					{Account: f.addr["admin"], Role: domain.RoleAdminHead},
					{Account: f.addr["collector"], Role: domain.RoleTaxCollector},
					{Account: f.addr["citizen"], Role: domain.RoleCitizen},
				},
				Areas: []urban.Area{{Name: "Old Town"}},
				Mints: []urban.Mint{{Account: f.addr["citizen"], Amount: big.NewInt(1000)}},
			}, nil
	})
}

func (f *fixture) initSystem(t *testing.T) *usecase.InitResult {
	t.Helper()
	res, err := usecase.NewInitSystem(f.engine, f.store, f.events, f.genesis(), usecase.NopProgress{}).
		Execute(context.Background(), usecase.InitParams{})
	require.NoError(t, err)
	return res
}

func (f *fixture) mustCall(t *testing.T, from, module, method string, args ...string) *usecase.CallResult {
	t.Helper()
	res, err := f.call.Execute(context.Background(), usecase.CallParams{From: from, Module: module, Method: method, Args: args})
	require.NoError(t, err, "%s.%s", module, method)
	return res
}
