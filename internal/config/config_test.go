// Package config_test tests the configuration loading for the
// syllable-stats-service.
package config_test

import (
	"testing"

	"github.com/book-expert/syllable-stats-service/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
batch_boundaries_subject = "segmentation.batch.boundaries"
dataset_created_subject = "stats.dataset.created"
dataset_object_store_bucket = "SYLLABLE_DATASETS"

[segmentation]
binary_path = "/opt/thetaseg/detector"
threshold = 0.05
timeout_seconds = 600

[aggregator]
error_on_collision = true

[paths]
base_logs_dir = "/var/log/syllable-stats"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "segmentation.batch.boundaries", cfg.NATS.BatchBoundariesSubject)
	assert.Equal(t, "stats.dataset.created", cfg.NATS.DatasetCreatedSubject)
	assert.Equal(t, "SYLLABLE_DATASETS", cfg.NATS.DatasetObjectStoreBucket)
	assert.Equal(t, "/opt/thetaseg/detector", cfg.Segmentation.BinaryPath)
	assert.InEpsilon(t, 0.05, cfg.Segmentation.Threshold, 0.001)
	assert.Equal(t, 600, cfg.Segmentation.TimeoutSeconds)
	assert.True(t, cfg.Aggregator.ErrorOnCollision)
	assert.Equal(t, "/var/log/syllable-stats", cfg.Paths.BaseLogsDir)
}

func TestLoadConfig_CollisionDefaultsToOverwrite(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.False(t, cfg.Aggregator.ErrorOnCollision)
}
