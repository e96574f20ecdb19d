package features

import "github.com/NeuralTrust/TrustShield/pkg/domain/admission"

type Deriver interface {
	Derive(obs admission.Observation) admission.FeatureVector
}

type ratioDeriver struct{}

// NewDeriver returns the five-feature derivation the detectors were trained on:
// the three raw fields followed by fail_ratio and activity_score.
func NewDeriver() Deriver {
	return &ratioDeriver{}
}

func (d *ratioDeriver) Derive(obs admission.Observation) admission.FeatureVector {
	failed := float64(obs.FailedLogin)
	return admission.FeatureVector{
		admission.FeatureRequestsPerMin:  obs.RequestsPerMin,
		admission.FeatureSessionDuration: obs.SessionDuration,
		admission.FeatureFailedLogin:     failed,
		admission.FeatureFailRatio:       failed / (obs.RequestsPerMin + 1),
		admission.FeatureActivityScore:   obs.RequestsPerMin / (obs.SessionDuration + 1),
	}
}
