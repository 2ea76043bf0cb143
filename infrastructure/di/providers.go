package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"conceptmap/application/ports"
	"conceptmap/application/services"
	"conceptmap/infrastructure/config"
	"conceptmap/infrastructure/messaging"
	"conceptmap/infrastructure/messaging/eventbridge"
	"conceptmap/infrastructure/notify"
	"conceptmap/infrastructure/persistence/dynamodb"
	"conceptmap/infrastructure/persistence/memory"
	"conceptmap/infrastructure/persistence/resilient"
	"conceptmap/interfaces/http/rest"
	"conceptmap/interfaces/http/rest/handlers"
	"conceptmap/interfaces/http/rest/middleware"
	"conceptmap/pkg/auth"
	pkgerrors "conceptmap/pkg/errors"
	"conceptmap/pkg/observability"
)

const serviceName = "conceptmap"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName), zap.String("environment", cfg.Environment)), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideMetrics returns nil when metrics are disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName+"-api", cfg.EnableTracing)
}

// ProvideMapRepository selects the storage backend and wraps it in a
// circuit breaker
func ProvideMapRepository(
	cfg *config.Config,
	awsCfg aws.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *resilient.MapRepository {
	var store ports.MapRepository
	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("Using in-memory storage; maps are lost on restart")
		store = memory.NewMapRepository()
	default:
		store = dynamodb.NewMapRepository(
			awsdynamodb.NewFromConfig(awsCfg),
			cfg.DynamoDBTable,
			cfg.IndexName,
			metrics,
			logger,
		)
	}

	breaker := resilient.DefaultBreakerConfig("map-repository")
	breaker.MaxFailures = cfg.BreakerMaxFailures
	breaker.Timeout = cfg.BreakerOpenTimeout
	return resilient.NewMapRepository(store, breaker, logger)
}

// ProvideRepositoryPort exposes the decorated repository through its port
func ProvideRepositoryPort(repo *resilient.MapRepository) ports.MapRepository {
	return repo
}

// ProvideEventPublisher sends events to EventBridge, or to the log when
// events are disabled
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(
		awseventbridge.NewFromConfig(awsCfg),
		cfg.EventBusName,
		cfg.EventSource,
		logger,
	)
}

// ProvideNotifier pushes snapshots over API Gateway websockets when an
// endpoint is configured
func ProvideNotifier(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.SnapshotNotifier {
	if cfg.WebSocketEndpoint == "" {
		return notify.NoopNotifier{}
	}
	return notify.NewWebSocketNotifier(notify.NewClient(awsCfg, cfg.WebSocketEndpoint), logger)
}

// ProvideEditorConfig loads the editor rules file
func ProvideEditorConfig(cfg *config.Config, logger *zap.Logger) (*config.EditorConfigLoader, error) {
	return config.NewEditorConfigLoader(cfg.EditorConfigFile, cfg.Environment, logger)
}

// ProvideEditorService creates the editor service and keeps it in step
// with the rules file
func ProvideEditorService(
	repo ports.MapRepository,
	publisher ports.EventPublisher,
	notifier ports.SnapshotNotifier,
	editorCfg *config.EditorConfigLoader,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.EditorService {
	service := services.NewEditorService(repo, publisher, notifier, editorCfg.Config(), metrics, tracer, logger)
	editorCfg.OnChange(service.UpdateConfig)
	return service
}

// ProvideJWTValidator returns nil when tokens are not checked in-process
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.AuthDisabled || cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	service *services.EditorService,
	repo *resilient.MapRepository,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	authCfg := middleware.DefaultAuthConfig()
	authCfg.Disabled = cfg.AuthDisabled
	authCfg.DevUserID = cfg.DevUserID
	authCfg.TrustGatewayHeaders = cfg.IsLambda

	opts := rest.Options{
		Auth:           authCfg,
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.AllowedOrigins,
		Checks: map[string]handlers.ReadinessCheck{
			"repository": func(context.Context) error {
				if repo.State() == gobreaker.StateOpen {
					return errors.New("circuit breaker open")
				}
				return nil
			},
		},
	}

	return rest.NewRouter(service, validator, metrics, tracer, errs, opts, logger)
}
