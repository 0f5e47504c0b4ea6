//go:build wireinject
// +build wireinject

package di

import (
	"habridge/pkg/config"
	"habridge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Event fan-out
		ProvideHub,
		ProvideBroadcaster,

		// Stores
		ProvideSignalStore,
		ProvideTradeStore,
		ProvidePositionStore,

		// Use cases
		ProvideSignalPipeline,
		ProvideTradeQueue,
		ProvidePositionReconciler,

		// HTTP surface
		ProvideHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
