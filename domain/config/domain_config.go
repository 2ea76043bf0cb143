package config

import (
	"fmt"
	"math"
)

// DefaultLinkThreshold is the distance below which a dragged node is
// proposed for auto-linking with its nearest neighbour.
const DefaultLinkThreshold = 150.0

// DomainConfig holds all configurable editor rules and constraints
type DomainConfig struct {
	// Linking
	LinkThreshold float64 `yaml:"link_threshold"`

	// Map constraints
	MaxNodesPerMap int `yaml:"max_nodes_per_map"`
	MaxEdgesPerMap int `yaml:"max_edges_per_map"`

	// Validation settings
	AllowSelfConnections bool `yaml:"allow_self_connections"`
	AllowDuplicateEdges  bool `yaml:"allow_duplicate_edges"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		LinkThreshold: DefaultLinkThreshold,

		MaxNodesPerMap: 2000,
		MaxEdgesPerMap: 10000,

		AllowSelfConnections: false,
		AllowDuplicateEdges:  false,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// The link scan is linear in the node count and runs on every pointer move
	config.MaxNodesPerMap = 1000
	config.MaxEdgesPerMap = 5000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerMap = 100000
	config.MaxEdgesPerMap = 500000
	config.AllowDuplicateEdges = true

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if math.IsNaN(c.LinkThreshold) || math.IsInf(c.LinkThreshold, 0) || c.LinkThreshold <= 0 {
		return fmt.Errorf("link_threshold must be a positive finite number, got %v", c.LinkThreshold)
	}
	if c.MaxNodesPerMap <= 0 {
		return fmt.Errorf("max_nodes_per_map must be positive, got %d", c.MaxNodesPerMap)
	}
	if c.MaxEdgesPerMap <= 0 {
		return fmt.Errorf("max_edges_per_map must be positive, got %d", c.MaxEdgesPerMap)
	}
	return nil
}
