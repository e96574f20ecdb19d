package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/stretchr/testify/mock"
)

type Gate struct {
	mock.Mock
}

func (m *Gate) Evaluate(ctx context.Context, origin string, obs admission.Observation) (*admission.Decision, error) {
	args := m.Called(ctx, origin, obs)
	d, _ := args.Get(0).(*admission.Decision) //nolint:errcheck
	return d, args.Error(1)
}
