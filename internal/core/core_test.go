package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/journal"
)

var (
	admin   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	citizen = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

type staticRoles map[common.Address][]domain.Role

func (s staticRoles) HasRole(account common.Address, role domain.Role) bool {
	for _, r := range s[account] {
		if r == role {
			return true
		}
	}
	return false
}

const counterABI = `[
	{"type":"function","name":"inc","inputs":[{"name":"by","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"set","inputs":[{"name":"value","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"incThenFail","inputs":[{"name":"by","type":"uint64"}],"outputs":[]},
	{"type":"function","name":"hidden","inputs":[],"outputs":[]}
]`

// counterState is shared by every counter implementation, the way module
// state slots outlive implementation swaps.
type counterState struct {
	value uint64
}

type counterModule struct {
	version string
	step    uint64
	state   *counterState
}

func (m *counterModule) ID() string      { return "counter" }
func (m *counterModule) Version() string { return m.version }
func (m *counterModule) ABI() abi.ABI    { return MustABI(counterABI) }

func (m *counterModule) Permissions() map[string][]domain.Role {
	return map[string][]domain.Role{
		"inc":         {},
		"incThenFail": {},
		"set":         {domain.RoleAdminGovt, domain.RoleAdminHead},
	}
}

func (m *counterModule) Invoke(ctx context.Context, inv *Invocation) (uint64, error) {
	switch inv.Method.Name {
	case "inc":
		journal.Assign(inv.Journal, &m.state.value, m.state.value+inv.Args.Uint64(0)*m.step)
		return m.state.value, inv.Emit(ctx, domain.Event{Type: domain.EventTransfer})
	case "set":
		journal.Assign(inv.Journal, &m.state.value, inv.Args.Uint64(0))
		return m.state.value, nil
	case "incThenFail":
		journal.Assign(inv.Journal, &m.state.value, m.state.value+inv.Args.Uint64(0))
		_ = inv.Emit(ctx, domain.Event{Type: domain.EventTransfer})
		return 0, domain.ErrInvalidState
	}
	return 0, errors.New("unreachable")
}

type memorySink struct {
	events []domain.Event
}

func (s *memorySink) Publish(ctx context.Context, events []domain.Event) error {
	s.events = append(s.events, events...)
	return nil
}

func newTestCore(t *testing.T) (*Core, *counterState, *Metrics) {
	t.Helper()
	roles := staticRoles{admin: {domain.RoleAdminGovt}, citizen: {domain.RoleCitizen}}
	metrics := NewMetrics(prometheus.NewRegistry())
	c := New(domain.NewManualClock(time.Unix(1_700_000_000, 0)), roles, nil, metrics)
	state := &counterState{}
	c.Install(&counterModule{version: "1", step: 1, state: state})
	return c, state, metrics
}

func counterCall(t *testing.T, c *Core, caller common.Address, method string, args ...interface{}) Call {
	t.Helper()
	data, err := Pack(c.Module("counter"), method, args...)
	require.NoError(t, err)
	return Call{Caller: caller, Module: "counter", Data: data}
}

func TestCore_ExecuteCommitsAndSequencesEvents(t *testing.T) {
	c, state, metrics := newTestCore(t)
	sink := &memorySink{}
	c.AddSink(sink)

	out, err := c.Execute(context.Background(), counterCall(t, c, citizen, "inc", uint64(3)))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), state.value)
	assert.Equal(t, uint64(3), out.ResultID)
	assert.Equal(t, "inc", out.Method)
	require.Len(t, out.Events, 1)
	assert.Equal(t, uint64(1), out.Events[0].Seq)
	assert.NotEmpty(t, out.Events[0].ID)
	assert.Equal(t, citizen, out.Events[0].Actor)
	assert.Equal(t, "counter", out.Events[0].Module)
	assert.Equal(t, out.Events, sink.events)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls().WithLabelValues("counter", "inc", "ok")))
}

func TestCore_ErrorRevertsEverything(t *testing.T) {
	c, state, metrics := newTestCore(t)
	sink := &memorySink{}
	c.AddSink(sink)

	_, err := c.Execute(context.Background(), counterCall(t, c, citizen, "incThenFail", uint64(5)))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Zero(t, state.value)
	assert.Empty(t, sink.events)
	assert.Zero(t, c.Seq())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls().WithLabelValues("counter", "incThenFail", "reverted")))
}

func TestCore_Authorization(t *testing.T) {
	tests := []struct {
		name    string
		caller  common.Address
		method  string
		role    domain.Role
		wantErr error
	}{
		{name: "admin allowed", caller: admin, method: "set"},
		{name: "citizen denied", caller: citizen, method: "set", wantErr: domain.ErrUnauthorized},
		{name: "pinned held role", caller: admin, method: "set", role: domain.RoleAdminGovt},
		{name: "pinned role outside table", caller: citizen, method: "set", role: domain.RoleCitizen, wantErr: domain.ErrUnauthorized},
		{name: "pinned role not held", caller: citizen, method: "set", role: domain.RoleAdminHead, wantErr: domain.ErrUnauthorized},
		{name: "pinned role on public method", caller: citizen, method: "inc", role: domain.RoleCitizen},
		{name: "pinned role not held on public method", caller: citizen, method: "inc", role: domain.RoleValidator, wantErr: domain.ErrUnauthorized},
		{name: "method missing from table", caller: admin, method: "hidden", wantErr: domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestCore(t)
			var call Call
			if tt.method == "hidden" {
				call = counterCall(t, c, tt.caller, tt.method)
			} else {
				call = counterCall(t, c, tt.caller, tt.method, uint64(1))
			}
			call.Role = tt.role

			_, err := c.Execute(context.Background(), call)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCore_RejectsMalformedCalls(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()

	_, err := c.Execute(ctx, Call{Caller: citizen, Module: "countr", Data: []byte{1, 2, 3, 4}})
	assert.ErrorIs(t, err, domain.ErrUnknownModule)
	assert.Contains(t, err.Error(), "counter")

	_, err = c.Execute(ctx, Call{Caller: citizen, Module: "counter", Data: []byte{1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.Execute(ctx, Call{Caller: citizen, Module: "counter", Data: []byte{0xde, 0xad, 0xbe, 0xef}})
	var unknown domain.UnknownMethodErr
	assert.ErrorAs(t, err, &unknown)

	_, err = c.Execute(ctx, counterCall(t, c, common.Address{}, "inc", uint64(1)))
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}

func TestCore_RegisterModuleKeepsState(t *testing.T) {
	c, state, _ := newTestCore(t)
	ctx := context.Background()

	_, err := c.Execute(ctx, counterCall(t, c, citizen, "inc", uint64(2)))
	require.NoError(t, err)

	v2 := c.Install(&counterModule{version: "2", step: 10, state: state})
	live, err := c.GetModule("counter")
	require.NoError(t, err)
	assert.NotEqual(t, v2, live, "installing does not switch the pointer")

	register := Call{Caller: citizen, Module: "core", Data: MustPack(c, "registerModule", "counter", v2)}
	_, err = c.Execute(ctx, register)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	register.Caller = admin
	out, err := c.Execute(ctx, register)
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.EventModuleRegistered, out.Events[0].Type)

	live, err = c.GetModule("counter")
	require.NoError(t, err)
	assert.Equal(t, v2, live)

	_, err = c.Execute(ctx, counterCall(t, c, citizen, "inc", uint64(1)))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), state.value)
}

func TestCore_RegisterModuleValidatesImplementation(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		impl    common.Address
		wantErr error
	}{
		{name: "zero implementation", id: "counter", impl: common.Address{}, wantErr: domain.ErrInvalidIdentity},
		{name: "not installed", id: "counter", impl: common.HexToAddress("0x1234"), wantErr: domain.ErrNotFound},
		{name: "wrong module id", id: "token", impl: ImplementationAddress("counter", "1"), wantErr: domain.ErrInvalidInput},
		{name: "registry itself", id: "core", impl: ImplementationAddress("core", Version), wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Execute(ctx, Call{Caller: admin, Module: "core", Data: MustPack(c, "registerModule", tt.id, tt.impl)})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCore_RestorePointers(t *testing.T) {
	c, state, _ := newTestCore(t)
	v2 := c.Install(&counterModule{version: "2", step: 1, state: state})

	require.NoError(t, c.RestorePointers(map[string]common.Address{"counter": v2}))
	assert.Equal(t, v2, c.Pointers()["counter"])

	err := c.RestorePointers(map[string]common.Address{"counter": common.HexToAddress("0x99")})
	assert.ErrorIs(t, err, domain.ErrUnknownModule)

	ids := make([]string, 0)
	for _, info := range c.Modules() {
		ids = append(ids, info.ID)
	}
	assert.Equal(t, []string{"core", "counter"}, ids)
	assert.Len(t, c.Implementations(), 3)
}

func TestPack_SuggestsMethods(t *testing.T) {
	c, _, _ := newTestCore(t)

	_, err := Pack(c.Module("counter"), "incc", uint64(1))
	var unknown domain.UnknownMethodErr
	require.ErrorAs(t, err, &unknown)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseArgs(t *testing.T) {
	parsed := MustABI(`[{"type":"function","name":"f","inputs":[
		{"name":"a","type":"address"},
		{"name":"n","type":"uint256"},
		{"name":"y","type":"uint16"},
		{"name":"s","type":"string"},
		{"name":"list","type":"string[]"},
		{"name":"b","type":"bytes"}],"outputs":[]}]`)
	method := parsed.Methods["f"]

	args, err := ParseArgs(&method, []string{
		"0x00000000000000000000000000000000000000c1", "1000", "2024", "hello", "token,tax", "0x0102",
	})
	require.NoError(t, err)
	assert.Equal(t, citizen, args[0])
	assert.Equal(t, "1000", args[1].(interface{ String() string }).String())
	assert.Equal(t, uint16(2024), args[2])
	assert.Equal(t, "hello", args[3])
	assert.Equal(t, []string{"token", "tax"}, args[4])
	assert.Equal(t, []byte{1, 2}, args[5])

	_, err = parsed.Pack("f", args...)
	assert.NoError(t, err)

	_, err = ParseArgs(&method, []string{"nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ParseArgs(&method, []string{"0xzz", "1", "1", "s", "", "0x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
