// Package core routes calls to the module implementation currently
// registered for a module id, enforcing per-method role tables and running
// each call atomically.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/journal"
)

// Version of the orchestrator logic.
const Version = "1.0.0"

// Outcome is the result of a committed call.
type Outcome struct {
	Module   string
	Method   string
	ResultID uint64
	Events   []domain.Event
}

// Core is the module registry and call router.
type Core struct {
	mu sync.Mutex

	clock   domain.Clock
	roles   RoleChecker
	log     *slog.Logger
	metrics *Metrics

	// catalog holds every installed implementation by address; pointers
	// selects the live one per module id.
	catalog  map[common.Address]Module
	pointers map[string]common.Address

	subscribers []journal.Subscriber
	sinks       []EventSink
	seq         uint64
}

var _ Dispatcher = (*Core)(nil)
var _ Module = (*Core)(nil)

// New creates a core with itself registered as module "core".
func New(clock domain.Clock, roles RoleChecker, log *slog.Logger, metrics *Metrics) *Core {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &Core{
		clock:    clock,
		roles:    roles,
		log:      log.With("component", "core"),
		metrics:  metrics,
		catalog:  make(map[common.Address]Module),
		pointers: make(map[string]common.Address),
	}
	c.Install(c)
	return c
}

// Install adds an implementation to the catalog and returns its address.
// The first implementation installed for an id becomes live; later ones
// wait for registerModule.
func (c *Core) Install(m Module) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	addr := ImplementationAddress(m.ID(), m.Version())
	c.catalog[addr] = m
	if _, ok := c.pointers[m.ID()]; !ok {
		c.pointers[m.ID()] = addr
	}
	return addr
}

// Subscribe attaches in-call event subscribers.
func (c *Core) Subscribe(subs ...journal.Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, subs...)
}

// AddSink attaches a receiver for committed events.
func (c *Core) AddSink(s EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Now reads the core's clock.
func (c *Core) Now() time.Time {
	return c.clock.Now()
}

// GetModule returns the implementation address a module id points at.
func (c *Core) GetModule(id string) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, ok := c.pointers[id]
	if !ok {
		return common.Address{}, c.unknownModule(id)
	}
	return addr, nil
}

// Module returns the live implementation for id, or nil.
func (c *Core) Module(id string) Module {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live(id)
}

func (c *Core) live(id string) Module {
	addr, ok := c.pointers[id]
	if !ok {
		return nil
	}
	return c.catalog[addr]
}

// Modules lists the registry, sorted by module id.
func (c *Core) Modules() []models.ModuleInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]models.ModuleInfo, 0, len(c.pointers))
	for id, addr := range c.pointers {
		infos = append(infos, models.ModuleInfo{
			ID:             id,
			Version:        c.catalog[addr].Version(),
			Implementation: addr,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Implementations lists every catalog entry, live or not.
func (c *Core) Implementations() []models.ModuleInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]models.ModuleInfo, 0, len(c.catalog))
	for addr, m := range c.catalog {
		infos = append(infos, models.ModuleInfo{ID: m.ID(), Version: m.Version(), Implementation: addr})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ID != infos[j].ID {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Version < infos[j].Version
	})
	return infos
}

// Pointers returns a copy of the registry for persistence.
func (c *Core) Pointers() map[string]common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Assign(c.pointers)
}

// RestorePointers reinstates a persisted registry. Every address must name an
// installed implementation of the same id.
func (c *Core) RestorePointers(pointers map[string]common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, addr := range pointers {
		m, ok := c.catalog[addr]
		if !ok || m.ID() != id {
			return fmt.Errorf("%w: no implementation %s for module %q", domain.ErrUnknownModule, addr.Hex(), id)
		}
	}
	for id, addr := range pointers {
		c.pointers[id] = addr
	}
	return nil
}

// Seq is the sequence number of the last committed event.
func (c *Core) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// SetSeq restores the event sequence after loading persisted state.
func (c *Core) SetSeq(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = seq
}

// Execute runs one call atomically: either every write it causes commits or
// none does.
func (c *Core) Execute(ctx context.Context, call Call) (*Outcome, error) {
	method := c.methodName(call)
	out, err := c.Atomically(ctx, func(ctx context.Context, j *journal.Journal) (uint64, error) {
		return c.Dispatch(ctx, j, call)
	})
	c.metrics.observeCall(call.Module, method, err)
	if err != nil {
		c.log.Debug("call reverted", "module", call.Module, "method", method, "caller", call.Caller.Hex(), "error", err)
		return nil, err
	}
	out.Module = call.Module
	out.Method = method
	c.log.Debug("call committed", "module", call.Module, "method", method, "caller", call.Caller.Hex(), "events", len(out.Events))
	return out, nil
}

// Atomically runs fn under the core lock with a fresh journal. A returned
// error reverts the journal; otherwise the events are sequenced and
// published to the sinks.
func (c *Core) Atomically(ctx context.Context, fn func(ctx context.Context, j *journal.Journal) (uint64, error)) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	j := journal.New(c.clock.Now(), c.subscribers...)
	id, err := fn(ctx, j)
	if err != nil {
		j.Revert()
		return nil, err
	}

	events := c.commit(j.Events())
	for _, s := range c.sinks {
		if err := s.Publish(ctx, events); err != nil {
			c.log.Warn("event sink failed", "error", err)
		}
	}
	return &Outcome{ResultID: id, Events: events}, nil
}

func (c *Core) commit(events []domain.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	for i, ev := range events {
		c.seq++
		ev.Seq = c.seq
		ev.ID = uuid.NewString()
		out[i] = ev
	}
	return out
}

// Dispatch decodes, authorizes and invokes a call inside an open journal.
// It takes no lock, so modules running under Execute can use it for nested
// calls.
func (c *Core) Dispatch(ctx context.Context, j *journal.Journal, call Call) (uint64, error) {
	if call.Caller == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero caller", domain.ErrInvalidIdentity)
	}
	mod := c.live(call.Module)
	if mod == nil {
		return 0, c.unknownModule(call.Module)
	}
	if len(call.Data) < 4 {
		return 0, fmt.Errorf("%w: calldata shorter than a selector", domain.ErrInvalidInput)
	}

	parsed := mod.ABI()
	method, err := parsed.MethodById(call.Data[:4])
	if err != nil {
		return 0, domain.UnknownMethodErr{Module: call.Module, Method: hexutil.Encode(call.Data[:4])}
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return 0, fmt.Errorf("%w: decode %s.%s: %v", domain.ErrInvalidInput, call.Module, method.Name, err)
	}

	role, err := c.authorize(mod, method.Name, call)
	if err != nil {
		return 0, err
	}

	return mod.Invoke(ctx, &Invocation{
		Call:    call,
		Method:  method,
		Args:    args,
		Role:    role,
		Journal: j,
		roles:   c.roles,
	})
}

// authorize resolves the role a call acts under from the method's role
// table. A pinned role must be both allowed and held; otherwise the first
// held allowed role is used.
func (c *Core) authorize(mod Module, method string, call Call) (domain.Role, error) {
	allowed, ok := mod.Permissions()[method]
	if !ok {
		return domain.RoleNone, fmt.Errorf("%w: %s.%s is not callable", domain.ErrUnauthorized, mod.ID(), method)
	}

	if call.Role != domain.RoleNone {
		if len(allowed) > 0 && !lo.Contains(allowed, call.Role) {
			return domain.RoleNone, fmt.Errorf("%w: %s.%s does not accept %s", domain.ErrUnauthorized, mod.ID(), method, call.Role)
		}
		if !c.roles.HasRole(call.Caller, call.Role) {
			return domain.RoleNone, fmt.Errorf("%w: %s lacks %s", domain.ErrUnauthorized, call.Caller.Hex(), call.Role)
		}
		return call.Role, nil
	}

	if len(allowed) == 0 {
		return domain.RoleNone, nil
	}
	for _, r := range allowed {
		if c.roles.HasRole(call.Caller, r) {
			return r, nil
		}
	}
	names := lo.Map(allowed, func(r domain.Role, _ int) string { return r.String() })
	return domain.RoleNone, fmt.Errorf("%w: %s.%s requires one of %s", domain.ErrUnauthorized, mod.ID(), method, strings.Join(names, ", "))
}

func (c *Core) methodName(call Call) string {
	mod := c.Module(call.Module)
	if mod == nil || len(call.Data) < 4 {
		return "unknown"
	}
	parsed := mod.ABI()
	m, err := parsed.MethodById(call.Data[:4])
	if err != nil {
		return "unknown"
	}
	return m.Name
}

func (c *Core) unknownModule(id string) error {
	ids := lo.Keys(c.pointers)
	sort.Strings(ids)
	matches := fuzzy.Find(id, ids)
	if len(matches) == 0 {
		return fmt.Errorf("%w: %q", domain.ErrUnknownModule, id)
	}
	return fmt.Errorf("%w: %q (did you mean %s?)", domain.ErrUnknownModule, id, matches[0].Str)
}
