// Package config provides the configuration structure for the
// syllable-stats-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                      string `toml:"url"`
	BatchBoundariesSubject   string `toml:"batch_boundaries_subject"`
	DatasetCreatedSubject    string `toml:"dataset_created_subject"`
	DatasetObjectStoreBucket string `toml:"dataset_object_store_bucket"`
}

// SegmentationConfig holds the configuration for the external boundary
// detector.
type SegmentationConfig struct {
	BinaryPath     string  `toml:"binary_path"`
	Threshold      float64 `toml:"threshold"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// AggregatorConfig holds the batch-aggregation settings.
type AggregatorConfig struct {
	// ErrorOnCollision aborts a batch when two identifiers sanitize to the
	// same dataset key; the default keeps the reference overwrite behavior.
	ErrorOnCollision bool `toml:"error_on_collision"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS         NATSConfig         `toml:"nats"`
	Segmentation SegmentationConfig `toml:"segmentation"`
	Aggregator   AggregatorConfig   `toml:"aggregator"`
	Paths        PathsConfig        `toml:"paths"`
}

// Load loads the configuration for the syllable-stats-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
