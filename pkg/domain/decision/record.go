package decision

import (
	"context"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/google/uuid"
)

// TimeLayout is the timestamp layout used wherever records are rendered as text.
const TimeLayout = "2006-01-02 15:04:05"

// Record is the append-only audit entry written for every ANOMALY verdict.
type Record struct {
	ID              uuid.UUID `json:"id"`
	Timestamp       time.Time `json:"time"`
	Origin          string    `json:"ip"`
	RequestsPerMin  float64   `json:"requests_per_min"`
	SessionDuration float64   `json:"session_duration"`
	FailedLogin     int       `json:"failed_login"`
	Score           int       `json:"score"`
}

func NewRecord(at time.Time, origin string, obs admission.Observation, score int) *Record {
	return &Record{
		ID:              uuid.New(),
		Timestamp:       at,
		Origin:          origin,
		RequestsPerMin:  obs.RequestsPerMin,
		SessionDuration: obs.SessionDuration,
		FailedLogin:     obs.FailedLogin,
		Score:           score,
	}
}

type Sink interface {
	Append(ctx context.Context, record *Record) error
}

type Reader interface {
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Count(ctx context.Context) (int64, error)
}

//go:generate mockery --name=Store --dir=. --output=./mocks --filename=store_mock.go --case=underscore --with-expecter
type Store interface {
	Sink
	Reader
	Close() error
}
