package scoring

import (
	"sync/atomic"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
)

//go:generate mockery --name=Policy --dir=. --output=./mocks --filename=policy_mock.go --case=underscore --with-expecter
type Policy interface {
	Score(votes []admission.Vote) (int, error)
	Verdict(score int) admission.Verdict
	Threshold() int
	SetThreshold(threshold int) error
}

type majorityPolicy struct {
	ensembleSize int
	threshold    atomic.Int64
}

// NewPolicy builds a count-and-threshold policy: the score is the number of
// outlier votes and the verdict is ANOMALY once the score reaches threshold.
func NewPolicy(threshold, ensembleSize int) (Policy, error) {
	if ensembleSize <= 0 {
		return nil, domain.NewConfigurationError("scoring requires a non-empty ensemble")
	}
	p := &majorityPolicy{ensembleSize: ensembleSize}
	if err := p.SetThreshold(threshold); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *majorityPolicy) Score(votes []admission.Vote) (int, error) {
	if len(votes) == 0 {
		return 0, domain.NewConfigurationError("cannot score an empty vote set")
	}
	if len(votes) != p.ensembleSize {
		return 0, domain.NewConfigurationError("got %d votes for an ensemble of %d", len(votes), p.ensembleSize)
	}
	score := 0
	for _, v := range votes {
		if v.Outlier {
			score++
		}
	}
	return score, nil
}

func (p *majorityPolicy) Verdict(score int) admission.Verdict {
	if score >= int(p.threshold.Load()) {
		return admission.VerdictAnomaly
	}
	return admission.VerdictNormal
}

func (p *majorityPolicy) Threshold() int {
	return int(p.threshold.Load())
}

func (p *majorityPolicy) SetThreshold(threshold int) error {
	if threshold < 1 || threshold > p.ensembleSize {
		return domain.NewConfigurationError(
			"majority threshold %d must be between 1 and the ensemble size %d", threshold, p.ensembleSize,
		)
	}
	p.threshold.Store(int64(threshold))
	return nil
}
