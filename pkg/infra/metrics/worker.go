package metrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const taskQueueSize = 1000

// RequestSample is one served HTTP request.
type RequestSample struct {
	Server  string
	Method  string
	Route   string
	Status  int
	Latency time.Duration
}

//go:generate mockery --name=Worker --dir=. --output=./mocks --filename=worker_mock.go --case=underscore --with-expecter
type Worker interface {
	Shutdown()
	StartWorkers(n int)
	Process(sample RequestSample)
}

type worker struct {
	logger   *logrus.Logger
	taskChan chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool
	mu       sync.RWMutex
}

func NewWorker(logger *logrus.Logger) Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker{
		logger:   logger,
		taskChan: make(chan func(), taskQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (m *worker) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Swap(true) {
		return
	}
	m.logger.Info("shutting down metrics workers")
	m.cancel()
	close(m.taskChan)
	m.logger.Info("metrics workers stopped")
}

func (m *worker) Process(sample RequestSample) {
	m.enqueueTask(func() {
		m.recordToPrometheus(sample)
	}, sample.Server)
}

func (m *worker) recordToPrometheus(sample RequestSample) {
	prometheus.RequestsTotal.WithLabelValues(
		sample.Server,
		sample.Method,
		getStatusClass(strconv.Itoa(sample.Status)),
	).Inc()
	if prometheus.Config.EnableLatency {
		prometheus.RequestLatency.WithLabelValues(
			sample.Server,
			sample.Route,
		).Observe(float64(sample.Latency.Milliseconds()))
	}
}

func (m *worker) StartWorkers(n int) {
	m.logger.WithField("workers", n).Info("starting metrics workers")
	for i := 0; i < n; i++ {
		go func() {
			for {
				select {
				case task, ok := <-m.taskChan:
					if !ok {
						return
					}
					task()
				case <-m.ctx.Done():
					return
				}
			}
		}()
	}
}

func (m *worker) enqueueTask(task func(), server string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed.Load() {
		return
	}
	select {
	case m.taskChan <- task:
	default:
		m.logger.WithField("server", server).Warn("taskChan is full, dropping metrics task")
	}
}

func getStatusClass(status string) string {
	code, err := strconv.Atoi(status)
	if err != nil {
		return "5xx"
	}
	return fmt.Sprintf("%dxx", code/100)
}
