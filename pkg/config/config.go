package config

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StoreCSV      = "csv"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Ensemble  EnsembleConfig  `mapstructure:"ensemble"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Decisions DecisionsConfig `mapstructure:"decisions"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	GatePort    int    `mapstructure:"gate_port"`
	AdminPort   int    `mapstructure:"admin_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Host        string `mapstructure:"host"`
	// ProxyHeader names the header carrying the client address when the gate
	// runs behind a trusted load balancer, e.g. X-Forwarded-For.
	ProxyHeader string          `mapstructure:"proxy_header"`
	DocsURL     string          `mapstructure:"docs_url"`
	TLS         ServerTLSConfig `mapstructure:"tls"`
}

type MetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	EnableLatency bool `mapstructure:"enable_latency"`
	Workers       int  `mapstructure:"workers"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

type EnsembleConfig struct {
	MajorityThreshold int              `mapstructure:"majority_threshold"`
	VoteTimeout       time.Duration    `mapstructure:"vote_timeout"`
	RemoteTLS         ClientTLSConfig  `mapstructure:"remote_tls"`
	Detectors         []DetectorConfig `mapstructure:"detectors"`
}

type DetectorConfig struct {
	Name     string                 `mapstructure:"name"`
	Type     string                 `mapstructure:"type"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type RegistryConfig struct {
	BlockThreshold int           `mapstructure:"block_threshold"`
	MaxOrigins     int           `mapstructure:"max_origins"`
	Shards         int           `mapstructure:"shards"`
	AttackWindow   time.Duration `mapstructure:"attack_window"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

type DecisionsConfig struct {
	Store          string        `mapstructure:"store"`
	CSVPath        string        `mapstructure:"csv_path"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RecentCapacity int64         `mapstructure:"recent_capacity"`
	Mirror         MirrorConfig  `mapstructure:"mirror"`
}

type MirrorConfig struct {
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Kafka     KafkaConfig   `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	Topic   string `mapstructure:"topic"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

var (
	mu           sync.RWMutex
	globalConfig = &Config{}
	loaded       *viper.Viper
)

// Load reads <configPath>/config.yaml, applies defaults and environment
// overrides (ENSEMBLE_MAJORITY_THRESHOLD overrides ensemble.majority_threshold)
// and validates the result. A missing file is not an error.
func Load(configPath string) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaultValues(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return domain.NewConfigurationError("error reading config file: %v", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return domain.NewConfigurationError("failed to unmarshal config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	mu.Lock()
	globalConfig = cfg
	loaded = v
	mu.Unlock()
	return nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.gate_port", 8080)
	v.SetDefault("server.admin_port", 8081)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.proxy_header", "")
	v.SetDefault("server.docs_url", "/swagger.json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_latency", true)
	v.SetDefault("metrics.workers", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("logging.console", true)

	v.SetDefault("ensemble.majority_threshold", 2)
	v.SetDefault("ensemble.vote_timeout", 2*time.Second)

	v.SetDefault("registry.block_threshold", 3)
	v.SetDefault("registry.max_origins", 100_000)
	v.SetDefault("registry.shards", 64)
	v.SetDefault("registry.attack_window", time.Duration(0))
	v.SetDefault("registry.idle_ttl", time.Duration(0))
	v.SetDefault("registry.sweep_interval", time.Minute)

	v.SetDefault("decisions.store", StoreCSV)
	v.SetDefault("decisions.csv_path", "anomaly_log.csv")
	v.SetDefault("decisions.write_timeout", 5*time.Second)
	v.SetDefault("decisions.recent_capacity", 1000)
	v.SetDefault("decisions.mirror.workers", 2)
	v.SetDefault("decisions.mirror.queue_size", 1000)
	v.SetDefault("decisions.mirror.timeout", 5*time.Second)
	v.SetDefault("decisions.mirror.kafka.enabled", false)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.port", 6379)
}

func (c *Config) Validate() error {
	if c.Server.GatePort <= 0 || c.Server.AdminPort <= 0 {
		return domain.NewConfigurationError("server ports must be positive")
	}
	if c.Server.GatePort == c.Server.AdminPort {
		return domain.NewConfigurationError("gate and admin servers cannot share port %d", c.Server.GatePort)
	}
	if c.Metrics.Enabled && (c.Server.MetricsPort <= 0 ||
		c.Server.MetricsPort == c.Server.GatePort || c.Server.MetricsPort == c.Server.AdminPort) {
		return domain.NewConfigurationError("metrics port must be positive and distinct from the server ports")
	}

	if len(c.Ensemble.Detectors) == 0 {
		return domain.NewConfigurationError("ensemble requires at least one detector")
	}
	names := make(map[string]struct{}, len(c.Ensemble.Detectors))
	for i, d := range c.Ensemble.Detectors {
		if d.Name == "" || d.Type == "" {
			return domain.NewConfigurationError("detector %d requires a name and a type", i)
		}
		if _, ok := names[d.Name]; ok {
			return domain.NewConfigurationError("duplicated detector name '%s'", d.Name)
		}
		names[d.Name] = struct{}{}
	}
	if err := ValidateThreshold(c.Ensemble.MajorityThreshold, len(c.Ensemble.Detectors)); err != nil {
		return err
	}
	if c.Ensemble.VoteTimeout < 0 {
		return domain.NewConfigurationError("ensemble vote_timeout cannot be negative")
	}

	if c.Registry.BlockThreshold < 1 {
		return domain.NewConfigurationError("registry block_threshold must be at least 1")
	}
	if c.Registry.MaxOrigins < 1 || c.Registry.Shards < 1 {
		return domain.NewConfigurationError("registry max_origins and shards must be at least 1")
	}
	if c.Registry.AttackWindow < 0 || c.Registry.IdleTTL < 0 {
		return domain.NewConfigurationError("registry attack_window and idle_ttl cannot be negative")
	}

	switch c.Decisions.Store {
	case StoreCSV:
		if c.Decisions.CSVPath == "" {
			return domain.NewConfigurationError("decisions csv_path is required for the csv store")
		}
	case StorePostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return domain.NewConfigurationError("database host and name are required for the postgres store")
		}
	case StoreRedis:
		if c.Redis.Host == "" {
			return domain.NewConfigurationError("redis host is required for the redis store")
		}
	default:
		return domain.NewConfigurationError("unknown decisions store '%s'", c.Decisions.Store)
	}
	if k := c.Decisions.Mirror.Kafka; k.Enabled && (k.Host == "" || k.Port == "" || k.Topic == "") {
		return domain.NewConfigurationError("kafka mirror requires host, port and topic")
	}
	return nil
}

func ValidateThreshold(threshold, detectors int) error {
	if threshold < 1 || threshold > detectors {
		return domain.NewConfigurationError(
			"majority_threshold %d must be between 1 and the number of detectors (%d)", threshold, detectors)
	}
	return nil
}

func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// WatchThreshold reloads the config file on change and hands a changed
// ensemble.majority_threshold to apply. Every other key needs a restart.
func WatchThreshold(logger *logrus.Logger, apply func(threshold int) error) {
	mu.RLock()
	v := loaded
	mu.RUnlock()
	if v == nil || v.ConfigFileUsed() == "" {
		logger.Info("no config file loaded, threshold hot reload disabled")
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := v.Unmarshal(next); err != nil {
			logger.WithError(err).Warn("ignoring unreadable config change")
			return
		}
		current := GetConfig()
		threshold := next.Ensemble.MajorityThreshold
		if threshold == current.Ensemble.MajorityThreshold {
			return
		}
		if err := ValidateThreshold(threshold, len(current.Ensemble.Detectors)); err != nil {
			logger.WithError(err).Warn("ignoring invalid majority threshold")
			return
		}
		if err := apply(threshold); err != nil {
			logger.WithError(err).Warn("failed to apply majority threshold")
			return
		}

		updated := *current
		updated.Ensemble.MajorityThreshold = threshold
		mu.Lock()
		globalConfig = &updated
		mu.Unlock()
		logger.WithFields(logrus.Fields{
			"file":      e.Name,
			"threshold": threshold,
		}).Info("majority threshold reloaded")
	})
	v.WatchConfig()
}
