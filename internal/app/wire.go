//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/urbandao/urbandao/internal/adapters"
	"github.com/urbandao/urbandao/internal/config"
	"github.com/urbandao/urbandao/internal/logging"
	"github.com/urbandao/urbandao/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewEngine,
		usecase.NewInitSystem,
		usecase.NewCallModule,
		usecase.NewSignRelay,
		usecase.NewSubmitRelay,
		usecase.NewProposeFromFile,
		usecase.NewListModules,
		usecase.NewRegisterModule,
		usecase.NewShowEntity,
		usecase.NewListEntities,
		usecase.NewShowAccount,
		usecase.NewListRoleHolders,
		usecase.NewShowStatus,
		usecase.NewListEvents,

		// App
		NewApp,
	)
	return nil, nil, nil
}
