package admission

import (
	"math"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestObservation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		obs     Observation
		wantErr bool
	}{
		{name: "normal profile", obs: Observation{RequestsPerMin: 12, SessionDuration: 300, FailedLogin: 0}},
		{name: "zero values", obs: Observation{}},
		{name: "negative rate", obs: Observation{RequestsPerMin: -1, SessionDuration: 10}, wantErr: true},
		{name: "negative session", obs: Observation{RequestsPerMin: 1, SessionDuration: -10}, wantErr: true},
		{name: "negative failed logins", obs: Observation{FailedLogin: -2}, wantErr: true},
		{name: "nan rate", obs: Observation{RequestsPerMin: math.NaN()}, wantErr: true},
		{name: "infinite session", obs: Observation{SessionDuration: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidObservation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
