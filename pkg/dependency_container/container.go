package dependency_container

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/app/ensemble"
	"github.com/NeuralTrust/TrustShield/pkg/app/features"
	"github.com/NeuralTrust/TrustShield/pkg/app/gate"
	appOffender "github.com/NeuralTrust/TrustShield/pkg/app/offender"
	"github.com/NeuralTrust/TrustShield/pkg/app/scoring"
	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	handlers "github.com/NeuralTrust/TrustShield/pkg/handlers/http"
	"github.com/NeuralTrust/TrustShield/pkg/infra/cache"
	"github.com/NeuralTrust/TrustShield/pkg/infra/database"
	"github.com/NeuralTrust/TrustShield/pkg/infra/decisions"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors/bounds"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors/remote"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors/zscore"
	"github.com/NeuralTrust/TrustShield/pkg/infra/httpx"
	"github.com/NeuralTrust/TrustShield/pkg/infra/metrics"
	_ "github.com/NeuralTrust/TrustShield/pkg/infra/migrations"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustShield/pkg/server/middleware"
	"github.com/sirupsen/logrus"
)

type Container struct {
	Config                   *config.Config
	Logger                   *logrus.Logger
	MetricsWorker            metrics.Worker
	Ensemble                 ensemble.Ensemble
	Policy                   scoring.Policy
	Registry                 offender.Registry
	Sweeper                  *appOffender.Sweeper
	DecisionStore            decision.Store
	Gate                     gate.Gate
	HandlerTransport         *handlers.HandlerTransport
	GateMiddlewareTransport  *middleware.Transport
	AdminMiddlewareTransport *middleware.Transport

	closers []func() error
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// DecisionStore replaces the store selected by decisions.store when set.
	DecisionStore decision.Store
	// ExtraFactories registers detector types beyond the built-in ones.
	ExtraFactories []detectors.Factory
}

func NewContainer(di ContainerDI) (*Container, error) {
	if di.Cfg == nil || di.Logger == nil {
		return nil, domain.NewConfigurationError("container requires a config and a logger")
	}
	cfg := di.Cfg
	c := &Container{
		Config: cfg,
		Logger: di.Logger,
	}

	prometheus.Initialize(prometheus.MetricsConfig{
		EnableLatency: cfg.Metrics.EnableLatency,
	})
	c.MetricsWorker = metrics.NewWorker(di.Logger)
	c.MetricsWorker.StartWorkers(cfg.Metrics.Workers)
	c.closers = append(c.closers, func() error {
		c.MetricsWorker.Shutdown()
		return nil
	})

	locator, err := newDetectorLocator(cfg, di.ExtraFactories)
	if err != nil {
		return nil, c.abort(err)
	}
	members, err := locator.BuildAll(detectorSpecs(cfg.Ensemble.Detectors))
	if err != nil {
		return nil, c.abort(err)
	}
	c.Ensemble, err = ensemble.NewEnsemble(di.Logger, cfg.Ensemble.VoteTimeout, members...)
	if err != nil {
		return nil, c.abort(err)
	}
	c.Policy, err = scoring.NewPolicy(cfg.Ensemble.MajorityThreshold, c.Ensemble.Size())
	if err != nil {
		return nil, c.abort(err)
	}

	c.Registry, err = appOffender.NewRegistry(appOffender.Config{
		BlockThreshold: cfg.Registry.BlockThreshold,
		MaxOrigins:     cfg.Registry.MaxOrigins,
		Shards:         cfg.Registry.Shards,
		AttackWindow:   cfg.Registry.AttackWindow,
		IdleTTL:        cfg.Registry.IdleTTL,
	}, appOffender.WithEvictionHook(func(string) {
		prometheus.EvictionsTotal.Inc()
	}))
	if err != nil {
		return nil, c.abort(err)
	}
	c.Sweeper = appOffender.NewSweeper(di.Logger, c.Registry, cfg.Registry.SweepInterval)
	c.Sweeper.Start()
	c.closers = append(c.closers, func() error {
		c.Sweeper.Stop()
		return nil
	})

	store := di.DecisionStore
	if store == nil {
		store, err = c.newDecisionStore()
		if err != nil {
			return nil, c.abort(err)
		}
	}
	store, err = c.withMirrors(store)
	if err != nil {
		return nil, c.abort(err)
	}
	c.DecisionStore = store
	c.closers = append(c.closers, store.Close)

	c.Gate, err = gate.NewGate(gate.Deps{
		Logger:      di.Logger,
		Deriver:     features.NewDeriver(),
		Ensemble:    c.Ensemble,
		Policy:      c.Policy,
		Registry:    c.Registry,
		Sink:        store,
		SinkTimeout: cfg.Decisions.WriteTimeout,
	})
	if err != nil {
		return nil, c.abort(err)
	}

	c.HandlerTransport = &handlers.HandlerTransport{
		StatusHandler:      handlers.NewStatusHandler(),
		PredictHandler:     handlers.NewPredictHandler(di.Logger, c.Gate),
		ListBlockedHandler: handlers.NewListBlockedHandler(c.Registry),
		ListLogsHandler:    handlers.NewListLogsHandler(di.Logger, store),
		UnblockAllHandler:  handlers.NewUnblockAllHandler(di.Logger, c.Registry),
		StatsHandler:       handlers.NewStatsHandler(di.Logger, c.Registry, store),
		GetVersionHandler:  handlers.NewGetVersionHandler(),
	}

	c.GateMiddlewareTransport = c.newMiddlewareTransport("gate")
	c.AdminMiddlewareTransport = c.newMiddlewareTransport("admin")

	config.WatchThreshold(di.Logger, func(threshold int) error {
		if err := c.Policy.SetThreshold(threshold); err != nil {
			return err
		}
		di.Logger.WithField("majority_threshold", threshold).Info("majority threshold updated")
		return nil
	})

	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) abort(err error) error {
	if closeErr := c.Close(); closeErr != nil {
		c.Logger.WithError(closeErr).Warn("failed to release partially built container")
	}
	return err
}

func (c *Container) newMiddlewareTransport(server string) *middleware.Transport {
	chain := []middleware.Middleware{middleware.NewPanicRecoverMiddleware(c.Logger)}
	if c.Config.Metrics.Enabled {
		chain = append(chain, middleware.NewMetricsMiddleware(server, c.MetricsWorker))
	}
	return middleware.NewTransport(chain...)
}

func newDetectorLocator(cfg *config.Config, extra []detectors.Factory) (*detectors.Locator, error) {
	var clientOpts []httpx.FastHTTPClientOption
	if cfg.Ensemble.RemoteTLS.Configured() {
		tlsConf, err := config.BuildClientTLSConfig(cfg.Ensemble.RemoteTLS)
		if err != nil {
			return nil, fmt.Errorf("%w: remote detector TLS: %w", domain.ErrConfiguration, err)
		}
		clientOpts = append(clientOpts, httpx.WithTLSConfig(tlsConf))
	}

	opts := []detectors.LocatorOption{
		detectors.WithFactory(zscore.NewFactory()),
		detectors.WithFactory(bounds.NewFactory()),
		detectors.WithFactory(remote.NewFactory(remote.WithClient(httpx.NewFastHTTPClient(clientOpts...)))),
	}
	for _, f := range extra {
		opts = append(opts, detectors.WithFactory(f))
	}
	return detectors.NewLocator(opts...), nil
}

func detectorSpecs(configs []config.DetectorConfig) []detectors.Spec {
	specs := make([]detectors.Spec, 0, len(configs))
	for _, d := range configs {
		specs = append(specs, detectors.Spec{
			Name:     d.Name,
			Type:     d.Type,
			Settings: d.Settings,
		})
	}
	return specs
}

func (c *Container) newDecisionStore() (decision.Store, error) {
	cfg := c.Config
	switch cfg.Decisions.Store {
	case config.StoreCSV, "":
		return decisions.NewCSVStore(cfg.Decisions.CSVPath)

	case config.StorePostgres:
		db, err := database.NewDB(c.Logger, &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		return decisions.NewPostgresStore(db.DB)

	case config.StoreRedis:
		client, err := cache.NewClient(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		return decisions.NewRedisStore(client, decisions.RedisConfig{
			Capacity: cfg.Decisions.RecentCapacity,
		})

	default:
		return nil, domain.NewConfigurationError("unknown decision store '%s'", cfg.Decisions.Store)
	}
}

func (c *Container) withMirrors(store decision.Store) (decision.Store, error) {
	mirrorCfg := c.Config.Decisions.Mirror
	if !mirrorCfg.Kafka.Enabled {
		return store, nil
	}
	kafkaMirror, err := decisions.NewKafkaMirror(decisions.KafkaConfig{
		Host:  mirrorCfg.Kafka.Host,
		Port:  mirrorCfg.Kafka.Port,
		Topic: mirrorCfg.Kafka.Topic,
	})
	if err != nil {
		return nil, err
	}
	worker := decisions.NewMirrorWorker(c.Logger, mirrorCfg.QueueSize, mirrorCfg.Timeout, kafkaMirror)
	worker.StartWorkers(mirrorCfg.Workers)
	c.Logger.WithField("topic", mirrorCfg.Kafka.Topic).Info("mirroring decisions to kafka")
	return decisions.NewMirroredStore(store, worker), nil
}
