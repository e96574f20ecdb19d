package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/stretchr/testify/mock"
)

type Store struct {
	mock.Mock
}

func (m *Store) Append(ctx context.Context, record *decision.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *Store) Recent(ctx context.Context, limit int) ([]decision.Record, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]decision.Record) //nolint:errcheck
	return records, args.Error(1)
}

func (m *Store) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	count, _ := args.Get(0).(int64) //nolint:errcheck
	return count, args.Error(1)
}

func (m *Store) Close() error {
	args := m.Called()
	return args.Error(0)
}
