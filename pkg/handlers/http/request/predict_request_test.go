package request

import (
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPredictRequest_Observation(t *testing.T) {
	req := PredictRequest{
		RequestsPerMin:  ptr(80.0),
		SessionDuration: ptr(20.0),
		FailedLogin:     ptr(5),
	}
	obs, err := req.Observation()
	require.NoError(t, err)
	assert.Equal(t, 80.0, obs.RequestsPerMin)
	assert.Equal(t, 20.0, obs.SessionDuration)
	assert.Equal(t, 5, obs.FailedLogin)
}

func TestPredictRequest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  PredictRequest
	}{
		{"missing requests", PredictRequest{SessionDuration: ptr(1.0), FailedLogin: ptr(0)}},
		{"missing session", PredictRequest{RequestsPerMin: ptr(1.0), FailedLogin: ptr(0)}},
		{"missing failed login", PredictRequest{RequestsPerMin: ptr(1.0), SessionDuration: ptr(1.0)}},
		{"negative rate", PredictRequest{RequestsPerMin: ptr(-1.0), SessionDuration: ptr(1.0), FailedLogin: ptr(0)}},
		{"negative failures", PredictRequest{RequestsPerMin: ptr(1.0), SessionDuration: ptr(1.0), FailedLogin: ptr(-2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Observation()
			assert.ErrorIs(t, err, domain.ErrInvalidObservation)
		})
	}
}
