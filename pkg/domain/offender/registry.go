package offender

import "time"

// Record is the escalation state kept for a single origin.
type Record struct {
	Origin        string    `json:"origin"`
	AttackCount   int       `json:"attack_count"`
	Blocked       bool      `json:"blocked"`
	FirstAttackAt time.Time `json:"first_attack_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	BlockedAt     time.Time `json:"blocked_at,omitempty"`
}

type Stats struct {
	Tracked int `json:"tracked_origins"`
	Blocked int `json:"blocked"`
}

//go:generate mockery --name=Registry --dir=. --output=./mocks --filename=registry_mock.go --case=underscore --with-expecter
type Registry interface {
	IsBlocked(origin string) bool
	// RecordAnomaly increments the attack count of origin and reports the new
	// count and whether the origin is blocked after the increment.
	RecordAnomaly(origin string) (int, bool)
	AttackCount(origin string) int
	ResetAll() error
	SnapshotBlocked() []string
	Stats() Stats
	Prune(now time.Time) int
}
