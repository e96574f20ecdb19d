package decisions

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	defaultMirrorQueue   = 1000
	defaultMirrorTimeout = 5 * time.Second
)

// Mirror is a write-only copy of the decision log.
type Mirror interface {
	Name() string
	Publish(ctx context.Context, record *decision.Record) error
	Close()
}

// MirrorWorker copies records to the mirrors off the request path. Tasks are
// dropped, not queued without bound, when the workers fall behind.
type MirrorWorker interface {
	StartWorkers(n int)
	Enqueue(record *decision.Record)
	Shutdown()
}

type mirrorWorker struct {
	logger   *logrus.Logger
	mirrors  []Mirror
	timeout  time.Duration
	taskChan chan *decision.Record
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   atomic.Bool
	mu       sync.RWMutex
}

func NewMirrorWorker(logger *logrus.Logger, queueSize int, timeout time.Duration, mirrors ...Mirror) MirrorWorker {
	if queueSize <= 0 {
		queueSize = defaultMirrorQueue
	}
	if timeout <= 0 {
		timeout = defaultMirrorTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &mirrorWorker{
		logger:   logger,
		mirrors:  mirrors,
		timeout:  timeout,
		taskChan: make(chan *decision.Record, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *mirrorWorker) StartWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	w.logger.WithField("workers", n).Info("starting decision mirror workers")
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case record, ok := <-w.taskChan:
					if !ok {
						return
					}
					w.publish(record)
				case <-w.ctx.Done():
					return
				}
			}
		}()
	}
}

func (w *mirrorWorker) Enqueue(record *decision.Record) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed.Load() {
		return
	}
	select {
	case w.taskChan <- record:
	default:
		prometheus.MirrorDroppedTotal.Inc()
		w.logger.WithField("origin", record.Origin).Warn("mirror queue is full, dropping decision record")
	}
}

// Shutdown stops accepting records, drains what is queued and closes the mirrors.
func (w *mirrorWorker) Shutdown() {
	w.mu.Lock()
	if w.closed.Swap(true) {
		w.mu.Unlock()
		return
	}
	close(w.taskChan)
	w.mu.Unlock()

	w.logger.Info("shutting down decision mirror workers")
	w.wg.Wait()
	w.cancel()
	for _, m := range w.mirrors {
		m.Close()
	}
	w.logger.Info("decision mirror workers stopped")
}

func (w *mirrorWorker) publish(record *decision.Record) {
	for _, m := range w.mirrors {
		ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
		err := m.Publish(ctx, record)
		cancel()
		if err != nil {
			w.logger.WithFields(logrus.Fields{
				"mirror": m.Name(),
				"origin": record.Origin,
			}).WithError(err).Error("failed to mirror decision record")
		}
	}
}
