package decisions

import (
	"context"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const StorePostgres = "postgres"

type recordModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt       time.Time `gorm:"not null;index"`
	Origin          string    `gorm:"not null;index"`
	RequestsPerMin  float64   `gorm:"not null"`
	SessionDuration float64   `gorm:"not null"`
	FailedLogin     int       `gorm:"not null"`
	Score           int       `gorm:"not null"`
}

func (recordModel) TableName() string {
	return "decision_records"
}

func newRecordModel(r *decision.Record) *recordModel {
	id := r.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &recordModel{
		ID:              id,
		CreatedAt:       r.Timestamp.UTC(),
		Origin:          r.Origin,
		RequestsPerMin:  r.RequestsPerMin,
		SessionDuration: r.SessionDuration,
		FailedLogin:     r.FailedLogin,
		Score:           r.Score,
	}
}

func (m *recordModel) toRecord() decision.Record {
	return decision.Record{
		ID:              m.ID,
		Timestamp:       m.CreatedAt,
		Origin:          m.Origin,
		RequestsPerMin:  m.RequestsPerMin,
		SessionDuration: m.SessionDuration,
		FailedLogin:     m.FailedLogin,
		Score:           m.Score,
	}
}

// PostgresStore writes records into the decision_records table. The schema is
// owned by the migrations package.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, domain.NewConfigurationError("postgres store requires a database")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, record *decision.Record) error {
	if err := s.db.WithContext(ctx).Create(newRecordModel(record)).Error; err != nil {
		return domain.NewPersistenceError("insert decision record", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]decision.Record, error) {
	var models []recordModel
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, domain.NewPersistenceError("query decision records", err)
	}
	out := make([]decision.Record, 0, len(models))
	for i := range models {
		out = append(out, models[i].toRecord())
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&recordModel{}).Count(&n).Error; err != nil {
		return 0, domain.NewPersistenceError("count decision records", err)
	}
	return n, nil
}

// Close is a no-op; the connection pool belongs to the database package.
func (s *PostgresStore) Close() error {
	return nil
}
