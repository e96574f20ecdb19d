package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
server:
  gate_port: 18080
  admin_port: 18081
  metrics_port: 19090
ensemble:
  majority_threshold: %d
  vote_timeout: 750ms
  detectors:
    - name: gaussian
      type: zscore
      settings:
        means: [12, 300, 0.5, 0.04, 0.04]
        stddevs: [3, 50, 0.5, 0.05, 0.015]
    - name: envelope
      type: bounds
      settings:
        lower: [0, 100, 0, 0, 0]
        upper: [30, 600, 2, 0.5, 0.2]
    - name: iforest
      type: remote
      settings:
        url: http://models:8000/iforest
registry:
  block_threshold: 3
  attack_window: 10m
decisions:
  store: csv
  csv_path: /tmp/anomaly_log.csv
`

func writeConfig(t *testing.T, dir string, threshold int) {
	t.Helper()
	content := []byte(fmt.Sprintf(baseConfig, threshold))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 2)

	require.NoError(t, Load(dir))
	cfg := GetConfig()

	assert.Equal(t, 18080, cfg.Server.GatePort)
	assert.Equal(t, 18081, cfg.Server.AdminPort)
	assert.Equal(t, 2, cfg.Ensemble.MajorityThreshold)
	assert.Equal(t, 750*time.Millisecond, cfg.Ensemble.VoteTimeout)
	require.Len(t, cfg.Ensemble.Detectors, 3)
	assert.Equal(t, "gaussian", cfg.Ensemble.Detectors[0].Name)
	assert.Equal(t, "remote", cfg.Ensemble.Detectors[2].Type)
	assert.Equal(t, "http://models:8000/iforest", cfg.Ensemble.Detectors[2].Settings["url"])
	assert.Equal(t, 10*time.Minute, cfg.Registry.AttackWindow)

	// defaults
	assert.Equal(t, 100_000, cfg.Registry.MaxOrigins)
	assert.Equal(t, 64, cfg.Registry.Shards)
	assert.Zero(t, cfg.Registry.IdleTTL)
	assert.Equal(t, 5*time.Second, cfg.Decisions.WriteTimeout)
	assert.Equal(t, int64(1000), cfg.Decisions.RecentCapacity)
	assert.False(t, cfg.Decisions.Mirror.Kafka.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 2)
	t.Setenv("REGISTRY_BLOCK_THRESHOLD", "5")

	require.NoError(t, Load(dir))
	assert.Equal(t, 5, GetConfig().Registry.BlockThreshold)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 4)

	err := Load(dir)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func validConfig() Config {
	return Config{
		Server:  ServerConfig{GatePort: 8080, AdminPort: 8081, MetricsPort: 9090},
		Metrics: MetricsConfig{Enabled: true},
		Ensemble: EnsembleConfig{
			MajorityThreshold: 1,
			Detectors:         []DetectorConfig{{Name: "gaussian", Type: "zscore"}},
		},
		Registry:  RegistryConfig{BlockThreshold: 3, MaxOrigins: 10, Shards: 2},
		Decisions: DecisionsConfig{Store: StoreCSV, CSVPath: "anomaly_log.csv"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "shared ports", mutate: func(c *Config) { c.Server.AdminPort = c.Server.GatePort }},
		{name: "metrics port clash", mutate: func(c *Config) { c.Server.MetricsPort = c.Server.AdminPort }},
		{name: "no detectors", mutate: func(c *Config) { c.Ensemble.Detectors = nil }},
		{name: "unnamed detector", mutate: func(c *Config) { c.Ensemble.Detectors[0].Name = "" }},
		{name: "duplicated detector", mutate: func(c *Config) {
			c.Ensemble.Detectors = append(c.Ensemble.Detectors, c.Ensemble.Detectors[0])
		}},
		{name: "zero threshold", mutate: func(c *Config) { c.Ensemble.MajorityThreshold = 0 }},
		{name: "zero block threshold", mutate: func(c *Config) { c.Registry.BlockThreshold = 0 }},
		{name: "zero shards", mutate: func(c *Config) { c.Registry.Shards = 0 }},
		{name: "negative window", mutate: func(c *Config) { c.Registry.AttackWindow = -time.Second }},
		{name: "unknown store", mutate: func(c *Config) { c.Decisions.Store = "sqlite" }},
		{name: "postgres without host", mutate: func(c *Config) { c.Decisions.Store = StorePostgres }},
		{name: "redis without host", mutate: func(c *Config) { c.Decisions.Store = StoreRedis }},
		{name: "kafka without topic", mutate: func(c *Config) {
			c.Decisions.Mirror.Kafka = KafkaConfig{Enabled: true, Host: "kafka", Port: "9092"}
		}},
	}

	base := validConfig()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrConfiguration)
		})
	}
}

func TestWatchThreshold(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 2)
	require.NoError(t, Load(dir))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	var applied atomic.Int64
	WatchThreshold(logger, func(threshold int) error {
		applied.Store(int64(threshold))
		return nil
	})

	writeConfig(t, dir, 3)

	assert.Eventually(t, func() bool {
		return applied.Load() == 3
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return GetConfig().Ensemble.MajorityThreshold == 3
	}, time.Second, 10*time.Millisecond)
}
