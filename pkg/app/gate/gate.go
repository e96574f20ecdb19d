package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/app/ensemble"
	"github.com/NeuralTrust/TrustShield/pkg/app/features"
	"github.com/NeuralTrust/TrustShield/pkg/app/scoring"
	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const defaultSinkTimeout = 5 * time.Second

//go:generate mockery --name=Gate --dir=. --output=./mocks --filename=gate_mock.go --case=underscore --with-expecter
type Gate interface {
	// Evaluate runs one request through block check, scoring and escalation.
	// A blocked origin yields domain.ErrOriginBlocked without consulting the
	// ensemble. Any ensemble failure yields domain.ErrModelUnavailable and
	// leaves the registry untouched.
	Evaluate(ctx context.Context, origin string, obs admission.Observation) (*admission.Decision, error)
}

type Deps struct {
	Logger      *logrus.Logger
	Deriver     features.Deriver
	Ensemble    ensemble.Ensemble
	Policy      scoring.Policy
	Registry    offender.Registry
	Sink        decision.Sink
	SinkTimeout time.Duration
	Clock       func() time.Time
}

type admissionGate struct {
	logger      *logrus.Logger
	deriver     features.Deriver
	ensemble    ensemble.Ensemble
	policy      scoring.Policy
	registry    offender.Registry
	sink        decision.Sink
	sinkTimeout time.Duration
	now         func() time.Time
}

func NewGate(deps Deps) (Gate, error) {
	if deps.Ensemble == nil || deps.Policy == nil || deps.Registry == nil || deps.Sink == nil {
		return nil, domain.NewConfigurationError("gate requires an ensemble, a policy, a registry and a sink")
	}
	g := &admissionGate{
		logger:      deps.Logger,
		deriver:     deps.Deriver,
		ensemble:    deps.Ensemble,
		policy:      deps.Policy,
		registry:    deps.Registry,
		sink:        deps.Sink,
		sinkTimeout: deps.SinkTimeout,
		now:         deps.Clock,
	}
	if g.logger == nil {
		g.logger = logrus.New()
	}
	if g.deriver == nil {
		g.deriver = features.NewDeriver()
	}
	if g.sinkTimeout <= 0 {
		g.sinkTimeout = defaultSinkTimeout
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

func (g *admissionGate) Evaluate(
	ctx context.Context,
	origin string,
	obs admission.Observation,
) (*admission.Decision, error) {
	if origin == "" {
		return nil, fmt.Errorf("%w: missing origin", domain.ErrInvalidObservation)
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}

	if g.registry.IsBlocked(origin) {
		prometheus.RejectedTotal.Inc()
		g.logger.WithField("origin", origin).Debug("rejected blocked origin")
		return nil, domain.ErrOriginBlocked
	}

	votes, err := g.ensemble.Vote(ctx, g.deriver.Derive(obs))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	score, err := g.policy.Score(votes)
	if err != nil {
		return nil, err
	}
	verdict := g.policy.Verdict(score)

	// Past this point the request commits; a late cancellation must not leave
	// a logged record without the matching registry update.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &admission.Decision{
		Origin:       origin,
		Votes:        votes,
		AnomalyScore: score,
		Verdict:      verdict,
	}
	prometheus.DecisionsTotal.WithLabelValues(string(verdict)).Inc()

	if verdict != admission.VerdictAnomaly {
		result.AttackCount = g.registry.AttackCount(origin)
		return result, nil
	}

	g.persist(ctx, decision.NewRecord(g.now(), origin, obs, score))

	count, blocked := g.registry.RecordAnomaly(origin)
	result.AttackCount = count
	result.Blocked = blocked
	if blocked {
		prometheus.EscalationsTotal.Inc()
		g.logger.WithFields(logrus.Fields{
			"origin":       origin,
			"attack_count": count,
		}).Warn("origin blocked")
	}
	return result, nil
}

// persist writes the record under a context detached from the caller so a
// client disconnect cannot abort it half way. Failures are reported only.
func (g *admissionGate) persist(ctx context.Context, record *decision.Record) {
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.sinkTimeout)
	defer cancel()

	if err := g.sink.Append(sinkCtx, record); err != nil {
		prometheus.SinkFailuresTotal.Inc()
		g.logger.WithError(err).WithFields(logrus.Fields{
			"origin": record.Origin,
			"score":  record.Score,
		}).Error("failed to persist decision record")
	}
}
