package admission

import (
	"fmt"
	"math"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
)

// Observation is the raw behavioural sample submitted for one request.
type Observation struct {
	RequestsPerMin  float64 `json:"requests_per_min"`
	SessionDuration float64 `json:"session_duration"`
	FailedLogin     int     `json:"failed_login"`
}

func (o Observation) Validate() error {
	if math.IsNaN(o.RequestsPerMin) || math.IsInf(o.RequestsPerMin, 0) || o.RequestsPerMin < 0 {
		return fmt.Errorf("%w: requests_per_min must be a non-negative number", domain.ErrInvalidObservation)
	}
	if math.IsNaN(o.SessionDuration) || math.IsInf(o.SessionDuration, 0) || o.SessionDuration < 0 {
		return fmt.Errorf("%w: session_duration must be a non-negative number", domain.ErrInvalidObservation)
	}
	if o.FailedLogin < 0 {
		return fmt.Errorf("%w: failed_login must be non-negative", domain.ErrInvalidObservation)
	}
	return nil
}
