package offender

import (
	"context"
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

// Sweeper periodically prunes idle origins and publishes registry gauges.
type Sweeper struct {
	logger   *logrus.Logger
	registry offender.Registry
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewSweeper(logger *logrus.Logger, registry offender.Registry, interval time.Duration) *Sweeper {
	return &Sweeper{
		logger:   logger,
		registry: registry,
		interval: interval,
	}
}

func (s *Sweeper) Start() {
	if s.interval <= 0 {
		s.logger.Info("offender sweeper disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				s.sweep(now)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Sweeper) sweep(now time.Time) {
	if removed := s.registry.Prune(now); removed > 0 {
		s.logger.WithField("removed", removed).Debug("pruned idle origins")
	}
	stats := s.registry.Stats()
	prometheus.TrackedOrigins.Set(float64(stats.Tracked))
	prometheus.BlockedOrigins.Set(float64(stats.Blocked))
}

func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}
