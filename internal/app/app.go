package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Gatherer prometheus.Gatherer

	// Use cases
	InitSystem      *usecase.InitSystem
	CallModule      *usecase.CallModule
	SignRelay       *usecase.SignRelay
	SubmitRelay     *usecase.SubmitRelay
	ProposeFromFile *usecase.ProposeFromFile
	ListModules     *usecase.ListModules
	RegisterModule  *usecase.RegisterModule
	ShowEntity      *usecase.ShowEntity
	ListEntities    *usecase.ListEntities
	ShowAccount     *usecase.ShowAccount
	ListRoleHolders *usecase.ListRoleHolders
	ShowStatus      *usecase.ShowStatus
	ListEvents      *usecase.ListEvents
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	gatherer prometheus.Gatherer,
	initSystem *usecase.InitSystem,
	callModule *usecase.CallModule,
	signRelay *usecase.SignRelay,
	submitRelay *usecase.SubmitRelay,
	proposeFromFile *usecase.ProposeFromFile,
	listModules *usecase.ListModules,
	registerModule *usecase.RegisterModule,
	showEntity *usecase.ShowEntity,
	listEntities *usecase.ListEntities,
	showAccount *usecase.ShowAccount,
	listRoleHolders *usecase.ListRoleHolders,
	showStatus *usecase.ShowStatus,
	listEvents *usecase.ListEvents,
) *App {
	return &App{
		Config:          cfg,
		Log:             log,
		Gatherer:        gatherer,
		InitSystem:      initSystem,
		CallModule:      callModule,
		SignRelay:       signRelay,
		SubmitRelay:     submitRelay,
		ProposeFromFile: proposeFromFile,
		ListModules:     listModules,
		RegisterModule:  registerModule,
		ShowEntity:      showEntity,
		ListEntities:    listEntities,
		ShowAccount:     showAccount,
		ListRoleHolders: listRoleHolders,
		ShowStatus:      showStatus,
		ListEvents:      listEvents,
	}
}

// WriteMetrics dumps the command's counters when a metrics file is configured
func (a *App) WriteMetrics() error {
	if a.Config.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.Config.MetricsFile, a.Gatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
