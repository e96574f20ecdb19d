package mocks

import (
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	"github.com/stretchr/testify/mock"
)

type Registry struct {
	mock.Mock
}

func (m *Registry) IsBlocked(origin string) bool {
	args := m.Called(origin)
	return args.Bool(0)
}

func (m *Registry) RecordAnomaly(origin string) (int, bool) {
	args := m.Called(origin)
	return args.Int(0), args.Bool(1)
}

func (m *Registry) AttackCount(origin string) int {
	args := m.Called(origin)
	return args.Int(0)
}

func (m *Registry) ResetAll() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Registry) SnapshotBlocked() []string {
	args := m.Called()
	blocked, _ := args.Get(0).([]string) //nolint:errcheck
	return blocked
}

func (m *Registry) Stats() offender.Stats {
	args := m.Called()
	stats, _ := args.Get(0).(offender.Stats) //nolint:errcheck
	return stats
}

func (m *Registry) Prune(now time.Time) int {
	args := m.Called(now)
	return args.Int(0)
}
