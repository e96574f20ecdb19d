package offender

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSweeper_PrunesIdleOrigins(t *testing.T) {
	r := newTestRegistry(t, Config{BlockThreshold: 3, IdleTTL: time.Millisecond})
	r.RecordAnomaly("idle")

	s := NewSweeper(logrus.New(), r, 5*time.Millisecond)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return r.AttackCount("idle") == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSweeper_DisabledInterval(t *testing.T) {
	r := newTestRegistry(t, Config{BlockThreshold: 3, IdleTTL: time.Millisecond})
	r.RecordAnomaly("a")

	s := NewSweeper(logrus.New(), r, 0)
	s.Start()
	s.Stop()

	assert.Equal(t, 1, r.AttackCount("a"))
}
