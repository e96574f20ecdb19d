package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/stretchr/testify/mock"
)

type Detector struct {
	mock.Mock
}

func NewDetector(name string) *Detector {
	d := &Detector{}
	d.On("Name").Return(name).Maybe()
	return d
}

func (m *Detector) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Detector) Predict(ctx context.Context, features admission.FeatureVector) (bool, error) {
	args := m.Called(ctx, features)
	return args.Bool(0), args.Error(1)
}
