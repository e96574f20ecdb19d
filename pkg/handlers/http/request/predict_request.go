package request

import (
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
)

type PredictRequest struct {
	RequestsPerMin  *float64 `json:"requests_per_min"`
	SessionDuration *float64 `json:"session_duration"`
	FailedLogin     *int     `json:"failed_login"`
}

// Observation checks that every field is present and returns the validated sample.
func (r *PredictRequest) Observation() (admission.Observation, error) {
	switch {
	case r.RequestsPerMin == nil:
		return admission.Observation{}, fmt.Errorf("%w: requests_per_min is required", domain.ErrInvalidObservation)
	case r.SessionDuration == nil:
		return admission.Observation{}, fmt.Errorf("%w: session_duration is required", domain.ErrInvalidObservation)
	case r.FailedLogin == nil:
		return admission.Observation{}, fmt.Errorf("%w: failed_login is required", domain.ErrInvalidObservation)
	}
	obs := admission.Observation{
		RequestsPerMin:  *r.RequestsPerMin,
		SessionDuration: *r.SessionDuration,
		FailedLogin:     *r.FailedLogin,
	}
	if err := obs.Validate(); err != nil {
		return admission.Observation{}, err
	}
	return obs, nil
}
