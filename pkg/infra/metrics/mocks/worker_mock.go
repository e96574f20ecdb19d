package mocks

import (
	"github.com/NeuralTrust/TrustShield/pkg/infra/metrics"
	"github.com/stretchr/testify/mock"
)

type Worker struct {
	mock.Mock
}

func (m *Worker) Shutdown() {
	m.Called()
}

func (m *Worker) StartWorkers(n int) {
	m.Called(n)
}

func (m *Worker) Process(sample metrics.RequestSample) {
	m.Called(sample)
}
