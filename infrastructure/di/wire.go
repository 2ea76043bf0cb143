//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"conceptmap/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideMetrics,
	ProvideTracer,
	ProvideMapRepository,
	ProvideRepositoryPort,
	ProvideEventPublisher,
	ProvideNotifier,
	ProvideEditorConfig,
	ProvideEditorService,
	ProvideJWTValidator,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
