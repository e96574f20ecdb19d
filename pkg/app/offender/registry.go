package offender

import (
	"container/list"
	"hash/maphash"
	"sort"
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
)

const (
	DefaultShards     = 64
	DefaultMaxOrigins = 100_000
)

type Config struct {
	// BlockThreshold is the attack count at which an origin becomes blocked.
	BlockThreshold int
	// MaxOrigins bounds the number of non-blocked origins tracked at once.
	// Blocked origins are never evicted and do not count against it.
	MaxOrigins int
	Shards     int
	// AttackWindow restarts the count of a non-blocked origin whose first
	// recorded attack is older than the window. Zero keeps counts forever.
	AttackWindow time.Duration
	// IdleTTL lets Prune drop non-blocked origins not seen for this long.
	// Zero disables pruning.
	IdleTTL time.Duration
}

type Option func(*registry)

func WithClock(now func() time.Time) Option {
	return func(r *registry) {
		r.now = now
	}
}

// WithEvictionHook is called, under the shard lock, for every origin evicted to
// respect MaxOrigins. It must not call back into the registry.
func WithEvictionHook(hook func(origin string)) Option {
	return func(r *registry) {
		r.onEvict = hook
	}
}

type entry struct {
	offender.Record
	// elem is the position in the shard recency list; nil once blocked.
	elem *list.Element
}

type shard struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	recency  *list.List
	capacity int
}

func newShard(capacity int) *shard {
	return &shard{
		entries:  make(map[string]*entry),
		recency:  list.New(),
		capacity: capacity,
	}
}

type registry struct {
	// mu is held shared by every per-origin operation and exclusively by
	// ResetAll, which swaps the whole shard set.
	mu      sync.RWMutex
	shards  []*shard
	seed    maphash.Seed
	cfg     Config
	now     func() time.Time
	onEvict func(origin string)
}

func NewRegistry(cfg Config, opts ...Option) (offender.Registry, error) {
	if cfg.BlockThreshold < 1 {
		return nil, domain.NewConfigurationError("block threshold must be at least 1, got %d", cfg.BlockThreshold)
	}
	if cfg.Shards <= 0 {
		cfg.Shards = DefaultShards
	}
	if cfg.MaxOrigins <= 0 {
		cfg.MaxOrigins = DefaultMaxOrigins
	}
	if cfg.MaxOrigins < cfg.Shards {
		cfg.Shards = cfg.MaxOrigins
	}
	if cfg.AttackWindow < 0 || cfg.IdleTTL < 0 {
		return nil, domain.NewConfigurationError("attack window and idle ttl must not be negative")
	}

	r := &registry{
		seed: maphash.MakeSeed(),
		cfg:  cfg,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.shards = r.newShards()
	return r, nil
}

func (r *registry) newShards() []*shard {
	// The remainder goes one apiece to the first shards so capacities sum to
	// MaxOrigins exactly.
	perShard := r.cfg.MaxOrigins / r.cfg.Shards
	extra := r.cfg.MaxOrigins % r.cfg.Shards
	shards := make([]*shard, r.cfg.Shards)
	for i := range shards {
		capacity := perShard
		if i < extra {
			capacity++
		}
		shards[i] = newShard(capacity)
	}
	return shards
}

func (r *registry) shardFor(origin string) *shard {
	return r.shards[maphash.String(r.seed, origin)%uint64(len(r.shards))]
}

func (r *registry) IsBlocked(origin string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.shardFor(origin)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[origin]
	return ok && e.Blocked
}

func (r *registry) RecordAnomaly(origin string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.shardFor(origin)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := r.now()
	e, ok := s.entries[origin]
	if !ok {
		r.evictIfNeeded(s)
		e = &entry{Record: offender.Record{Origin: origin, FirstAttackAt: now}}
		e.elem = s.recency.PushFront(e)
		s.entries[origin] = e
	} else if e.elem != nil {
		s.recency.MoveToFront(e.elem)
	}

	if !e.Blocked && r.cfg.AttackWindow > 0 && now.Sub(e.FirstAttackAt) > r.cfg.AttackWindow {
		e.AttackCount = 0
		e.FirstAttackAt = now
	}

	e.AttackCount++
	e.LastSeenAt = now
	if !e.Blocked && e.AttackCount >= r.cfg.BlockThreshold {
		e.Blocked = true
		e.BlockedAt = now
		s.recency.Remove(e.elem)
		e.elem = nil
	}
	return e.AttackCount, e.Blocked
}

// evictIfNeeded drops least recently active non-blocked origins until the
// shard has room for one more. Caller holds s.mu.
func (r *registry) evictIfNeeded(s *shard) {
	for s.recency.Len() >= s.capacity {
		back := s.recency.Back()
		if back == nil {
			return
		}
		victim := back.Value.(*entry) //nolint:errcheck
		s.recency.Remove(back)
		delete(s.entries, victim.Origin)
		if r.onEvict != nil {
			r.onEvict(victim.Origin)
		}
	}
}

func (r *registry) AttackCount(origin string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.shardFor(origin)
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[origin]; ok {
		return e.AttackCount
	}
	return 0
}

func (r *registry) ResetAll() error {
	fresh := r.newShards()

	r.mu.Lock()
	r.shards = fresh
	r.mu.Unlock()
	return nil
}

// SnapshotBlocked lists blocked origins in lexical order. No reset can
// interleave with it; origins blocked concurrently may or may not appear.
func (r *registry) SnapshotBlocked() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	blocked := make([]string, 0)
	for _, s := range r.shards {
		s.mu.RLock()
		for origin, e := range s.entries {
			if e.Blocked {
				blocked = append(blocked, origin)
			}
		}
		s.mu.RUnlock()
	}
	sort.Strings(blocked)
	return blocked
}

func (r *registry) Stats() offender.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats offender.Stats
	for _, s := range r.shards {
		s.mu.RLock()
		stats.Tracked += len(s.entries)
		stats.Blocked += len(s.entries) - s.recency.Len()
		s.mu.RUnlock()
	}
	return stats
}

// Prune removes non-blocked origins idle for longer than IdleTTL and returns
// how many were removed.
func (r *registry) Prune(now time.Time) int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for elem := s.recency.Back(); elem != nil; {
			e := elem.Value.(*entry) //nolint:errcheck
			if now.Sub(e.LastSeenAt) <= r.cfg.IdleTTL {
				break
			}
			prev := elem.Prev()
			s.recency.Remove(elem)
			delete(s.entries, e.Origin)
			removed++
			elem = prev
		}
		s.mu.Unlock()
	}
	return removed
}
