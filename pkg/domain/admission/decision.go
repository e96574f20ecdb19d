package admission

import "context"

// FeatureVector is the fixed-arity numeric input every detector consumes.
type FeatureVector []float64

const (
	FeatureRequestsPerMin = iota
	FeatureSessionDuration
	FeatureFailedLogin
	FeatureFailRatio
	FeatureActivityScore
)

var FeatureNames = []string{
	"requests_per_min",
	"session_duration",
	"failed_login",
	"fail_ratio",
	"activity_score",
}

type Verdict string

const (
	VerdictNormal  Verdict = "NORMAL"
	VerdictAnomaly Verdict = "ANOMALY"
)

type Vote struct {
	Detector string `json:"detector"`
	Outlier  bool   `json:"outlier"`
}

// Decision is what the gate answers for an admitted (non-rejected) request.
type Decision struct {
	Origin       string  `json:"origin"`
	Votes        []Vote  `json:"votes"`
	AnomalyScore int     `json:"anomaly_score"`
	AttackCount  int     `json:"attack_count"`
	Blocked      bool    `json:"blocked"`
	Verdict      Verdict `json:"verdict"`
}

//go:generate mockery --name=Detector --dir=. --output=./mocks --filename=detector_mock.go --case=underscore --with-expecter
type Detector interface {
	Name() string
	Predict(ctx context.Context, features FeatureVector) (bool, error)
}
