package ensemble

import (
	"context"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

//go:generate mockery --name=Ensemble --dir=. --output=./mocks --filename=ensemble_mock.go --case=underscore --with-expecter
type Ensemble interface {
	// Vote asks every detector for a verdict on features. Votes are returned in
	// registration order. A failure of any single detector fails the whole call.
	Vote(ctx context.Context, features admission.FeatureVector) ([]admission.Vote, error)
	Size() int
	Names() []string
}

type ensemble struct {
	logger      *logrus.Logger
	detectors   []admission.Detector
	voteTimeout time.Duration
}

func NewEnsemble(
	logger *logrus.Logger,
	voteTimeout time.Duration,
	detectors ...admission.Detector,
) (Ensemble, error) {
	if len(detectors) == 0 {
		return nil, domain.NewConfigurationError("ensemble requires at least one detector")
	}
	seen := make(map[string]struct{}, len(detectors))
	for i, d := range detectors {
		if d == nil {
			return nil, domain.NewConfigurationError("detector at position %d is nil", i)
		}
		name := d.Name()
		if name == "" {
			return nil, domain.NewConfigurationError("detector at position %d has no name", i)
		}
		if _, ok := seen[name]; ok {
			return nil, domain.NewConfigurationError("duplicated detector name '%s'", name)
		}
		seen[name] = struct{}{}
	}
	return &ensemble{
		logger:      logger,
		detectors:   append([]admission.Detector(nil), detectors...),
		voteTimeout: voteTimeout,
	}, nil
}

func (e *ensemble) Vote(ctx context.Context, features admission.FeatureVector) ([]admission.Vote, error) {
	caller := ctx
	if e.voteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.voteTimeout)
		defer cancel()
	}

	start := time.Now()
	votes := make([]admission.Vote, len(e.detectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, detector := range e.detectors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return domain.NewModelUnavailableError(detector.Name(), err)
			}
			outlier, err := detector.Predict(gctx, features)
			if err != nil {
				return domain.NewModelUnavailableError(detector.Name(), err)
			}
			votes[i] = admission.Vote{Detector: detector.Name(), Outlier: outlier}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// A caller that went away is not a detector failure.
		if ctxErr := caller.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		name, _ := domain.FailedDetector(err)
		prometheus.ModelUnavailableTotal.WithLabelValues(name).Inc()
		e.logger.WithError(err).WithField("detector", name).Warn("ensemble vote failed")
		return nil, err
	}

	prometheus.VoteLatency.Observe(float64(time.Since(start).Milliseconds()))
	return votes, nil
}

func (e *ensemble) Size() int {
	return len(e.detectors)
}

func (e *ensemble) Names() []string {
	names := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		names[i] = d.Name()
	}
	return names
}
