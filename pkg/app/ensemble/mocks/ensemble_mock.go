package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/stretchr/testify/mock"
)

type Ensemble struct {
	mock.Mock
}

func (m *Ensemble) Vote(ctx context.Context, features admission.FeatureVector) ([]admission.Vote, error) {
	args := m.Called(ctx, features)
	votes, _ := args.Get(0).([]admission.Vote) //nolint:errcheck
	return votes, args.Error(1)
}

func (m *Ensemble) Size() int {
	args := m.Called()
	return args.Int(0)
}

func (m *Ensemble) Names() []string {
	args := m.Called()
	names, _ := args.Get(0).([]string) //nolint:errcheck
	return names
}
