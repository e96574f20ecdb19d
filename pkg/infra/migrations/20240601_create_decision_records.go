package migrations

import (
	"github.com/NeuralTrust/TrustShield/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20240601_create_decision_records",
		Name: "Create decision_records table for the anomaly log",

		Up: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS decision_records (
					id               UUID PRIMARY KEY,
					created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					origin           TEXT NOT NULL,
					requests_per_min DOUBLE PRECISION NOT NULL,
					session_duration DOUBLE PRECISION NOT NULL,
					failed_login     INTEGER NOT NULL,
					score            INTEGER NOT NULL
				);
			`).Error; err != nil {
				return err
			}

			// newest-first reads for the admin logs endpoint
			if err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_decision_records_created_at
				ON decision_records (created_at DESC);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_decision_records_origin
				ON decision_records (origin);
			`).Error
		},

		Down: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS decision_records;`).Error
		},
	})
}
