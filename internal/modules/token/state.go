// Package token implements the governance token: balances with time-indexed
// checkpoints for snapshot voting.
package token

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

const (
	Name     = "UrbanDAO Token"
	Symbol   = "URBAN"
	Decimals = 18
)

// Checkpoint is a balance as of a point in time.
type Checkpoint struct {
	At      time.Time `json:"at"`
	Balance *big.Int  `json:"balance"`
}

// State holds balances and their history. Stored *big.Int values are never
// mutated in place; every write installs a fresh value.
type State struct {
	Balances      map[common.Address]*big.Int     `json:"balances"`
	History       map[common.Address][]Checkpoint `json:"history"`
	Supply        *big.Int                        `json:"supply"`
	SupplyHistory []Checkpoint                    `json:"supplyHistory"`
}

func NewState() *State {
	return &State{
		Balances: make(map[common.Address]*big.Int),
		History:  make(map[common.Address][]Checkpoint),
		Supply:   new(big.Int),
	}
}

// BalanceOf returns a copy of the current balance.
func (s *State) BalanceOf(account common.Address) *big.Int {
	if b, ok := s.Balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// TotalSupply returns a copy of the current supply.
func (s *State) TotalSupply() *big.Int {
	return new(big.Int).Set(s.Supply)
}

// BalanceAt returns the balance recorded by the last checkpoint at or before t.
func (s *State) BalanceAt(account common.Address, t time.Time) *big.Int {
	return valueAt(s.History[account], t)
}

// TotalSupplyAt returns the supply recorded by the last checkpoint at or before t.
func (s *State) TotalSupplyAt(t time.Time) *big.Int {
	return valueAt(s.SupplyHistory, t)
}

func valueAt(history []Checkpoint, t time.Time) *big.Int {
	// first checkpoint strictly after t
	i := sort.Search(len(history), func(i int) bool { return history[i].At.After(t) })
	if i == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(history[i-1].Balance)
}

// Holders lists accounts with a non-zero balance.
func (s *State) Holders() []common.Address {
	var out []common.Address
	for addr, b := range s.Balances {
		if b.Sign() > 0 {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

// Transfer moves amount from one account to another inside j and emits a
// Transfer event. Other modules use it to move funds they are entitled to
// move (tax payments, treasury disbursements).
func (s *State) Transfer(ctx context.Context, j *journal.Journal, actor, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: transfer of %v", domain.ErrInvalidAmount, amount)
	}
	if to == (common.Address{}) || from == (common.Address{}) {
		return fmt.Errorf("%w: zero account in transfer", domain.ErrInvalidAmount)
	}
	bal := s.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", domain.ErrInsufficientBalance, from.Hex(), bal, amount)
	}

	s.setBalance(j, from, new(big.Int).Sub(bal, amount))
	s.setBalance(j, to, new(big.Int).Add(s.BalanceOf(to), amount))

	return j.Emit(ctx, domain.Event{
		Type:   domain.EventTransfer,
		Module: models.ModuleToken,
		Actor:  actor,
		Data:   map[string]string{"from": from.Hex(), "to": to.Hex(), "amount": amount.String()},
	})
}

// Mint creates amount new tokens for to.
func (s *State) Mint(ctx context.Context, j *journal.Journal, actor, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint of %v", domain.ErrInvalidAmount, amount)
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: mint to zero account", domain.ErrInvalidIdentity)
	}

	s.setBalance(j, to, new(big.Int).Add(s.BalanceOf(to), amount))
	supply := new(big.Int).Add(s.Supply, amount)
	journal.Assign(j, &s.Supply, supply)
	journal.Assign(j, &s.SupplyHistory, checkpoint(s.SupplyHistory, j.Now(), supply))

	return j.Emit(ctx, domain.Event{
		Type:   domain.EventMint,
		Module: models.ModuleToken,
		Actor:  actor,
		Data:   map[string]string{"to": to.Hex(), "amount": amount.String()},
	})
}

func (s *State) setBalance(j *journal.Journal, account common.Address, bal *big.Int) {
	journal.Set(j, s.Balances, account, bal)
	journal.Set(j, s.History, account, checkpoint(s.History[account], j.Now(), bal))
}

// checkpoint returns history with bal recorded at t. A checkpoint at the
// same time point as the last one replaces it. The input slice is never
// written.
func checkpoint(history []Checkpoint, t time.Time, bal *big.Int) []Checkpoint {
	cp := Checkpoint{At: t, Balance: new(big.Int).Set(bal)}
	n := len(history)
	if n > 0 && history[n-1].At.Equal(t) {
		out := make([]Checkpoint, n)
		copy(out, history)
		out[n-1] = cp
		return out
	}
	out := make([]Checkpoint, n, n+1)
	copy(out, history)
	return append(out, cp)
}
