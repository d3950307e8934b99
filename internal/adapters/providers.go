package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urbandao/urbandao/internal/adapters/config"
	"github.com/urbandao/urbandao/internal/adapters/eventlog"
	"github.com/urbandao/urbandao/internal/adapters/fs"
	"github.com/urbandao/urbandao/internal/adapters/interactive"
	"github.com/urbandao/urbandao/internal/adapters/progress"
	"github.com/urbandao/urbandao/internal/adapters/senders"
	"github.com/urbandao/urbandao/internal/adapters/sqlite"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	domainconfig "github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/usecase"
)

// ProvideRegistry provides the registry the engine counters live on
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics registers the engine counters
func ProvideMetrics(reg *prometheus.Registry) *core.Metrics {
	return core.NewMetrics(reg)
}

// ProvideClock provides the wall clock
func ProvideClock() domain.Clock {
	return domain.SystemClock{}
}

// ProvideEventStore opens the sqlite event store lazily and closes it on cleanup
func ProvideEventStore(cfg *domainconfig.RuntimeConfig) (*sqlite.EventStoreAdapter, func()) {
	store := sqlite.NewEventStoreAdapter(cfg)
	return store, func() { _ = store.Close() }
}

// ProvideEventSinks lists the sinks besides the event store
func ProvideEventSinks(log *slog.Logger) usecase.EventSinks {
	return usecase.EventSinks{eventlog.NewSink(log)}
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewStateStoreAdapter,
	wire.Bind(new(usecase.StateStore), new(*fs.StateStoreAdapter)),
	fs.NewRequestFileAdapter,
	wire.Bind(new(usecase.RequestFiles), new(*fs.RequestFileAdapter)),
)

// EventSet provides the event store and sinks
var EventSet = wire.NewSet(
	ProvideEventStore,
	wire.Bind(new(usecase.EventStore), new(*sqlite.EventStoreAdapter)),
	ProvideEventSinks,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewPrompterAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.PrompterAdapter)),
	wire.Bind(new(usecase.Selector), new(*interactive.PrompterAdapter)),
	progress.NewProgressSink,
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.NewGenesisLoaderAdapter,
	wire.Bind(new(usecase.GenesisLoader), new(*config.GenesisLoaderAdapter)),
	config.NewProposalLoaderAdapter,
	wire.Bind(new(usecase.ProposalLoader), new(*config.ProposalLoaderAdapter)),
)

// KeySet provides signing keys
var KeySet = wire.NewSet(
	senders.NewKeyStore,
	wire.Bind(new(usecase.KeyStore), new(*senders.KeyStore)),
)

// EngineSet provides the engine's runtime dependencies
var EngineSet = wire.NewSet(
	ProvideRegistry,
	wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
	ProvideMetrics,
	ProvideClock,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	EventSet,
	InteractiveSet,
	ConfigSet,
	KeySet,
	EngineSet,
)
