package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - maps by owner
	EventBusName  string
	EventSource   string

	// Storage backend: "dynamodb" or "memory"
	StorageBackend string

	// Circuit breaker around the repository
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// WebSocket configuration
	WebSocketEndpoint string

	// Editor rules file, hot reloaded when set
	EditorConfigFile string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret    string
	JWTIssuer    string
	AuthDisabled bool
	DevUserID    string

	// CORS
	AllowedOrigins []string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	EnableEvents  bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "concept-maps")),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "concept-map-events"),
		EventSource:   getEnv("EVENT_SOURCE", "conceptmap.editor"),

		StorageBackend: getEnv("STORAGE_BACKEND", "dynamodb"),

		BreakerMaxFailures: uint32(getEnvInt("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),

		EditorConfigFile: getEnv("EDITOR_CONFIG_FILE", ""),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "conceptmap"),
		AuthDisabled: getEnvBool("AUTH_DISABLED", false),
		DevUserID:    getEnv("DEV_USER_ID", "local-user"),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", true),
	}

	// Lambda runtime always sets the function name
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "dynamodb":
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be dynamodb or memory, got %q", c.StorageBackend)
	}

	// Behind API Gateway the JWT authorizer validates tokens
	if !c.AuthDisabled && !c.IsLambda && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required unless AUTH_DISABLED is set")
	}

	if c.Environment == "production" {
		if c.AuthDisabled {
			return fmt.Errorf("AUTH_DISABLED is not allowed in production")
		}
		if c.StorageBackend == "memory" {
			return fmt.Errorf("memory storage is not allowed in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses values like "30s" or "2m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
