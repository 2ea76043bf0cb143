package di

import (
	"go.uber.org/zap"

	"conceptmap/application/ports"
	"conceptmap/application/services"
	"conceptmap/infrastructure/config"
	"conceptmap/interfaces/http/rest"
	"conceptmap/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Collector
	Repository   ports.MapRepository
	Publisher    ports.EventPublisher
	Notifier     ports.SnapshotNotifier
	EditorConfig *config.EditorConfigLoader
	Editor       *services.EditorService
	Router       *rest.Router
}

// Shutdown flushes buffered log entries
func (c *Container) Shutdown() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
