// Package cooldown tracks per-user, per-command cooldown windows.
package cooldown

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 10000

// Key identifies one cooldown bucket.
type Key struct {
	UserID  string
	Command string
}

type entry struct {
	at     time.Time
	window time.Duration
}

// Decision is the result of TryAcquire.
type Decision struct {
	OK         bool
	RetryAfter time.Duration
}

// Store holds the last successful invocation per key. The least recently used
// keys are evicted once capacity is reached, so a long-running process keeps a
// bounded footprint.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[Key, entry]
}

// NewStore returns an empty store with room for capacity keys.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[Key, entry](capacity)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Store{entries: cache}
}

// TryAcquire records now for (userID, command) unless the previous acquisition
// is less than window ago, in which case it reports the remaining wait.
func (s *Store) TryAcquire(userID, command string, window time.Duration, now time.Time) Decision {
	if window <= 0 {
		return Decision{OK: true}
	}
	key := Key{UserID: userID, Command: command}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries.Get(key); ok {
		if elapsed := now.Sub(prev.at); elapsed < window {
			return Decision{RetryAfter: window - elapsed}
		}
	}
	s.entries.Add(key, entry{at: now, window: window})
	return Decision{OK: true}
}

// Sweep drops entries whose window has passed and returns how many went.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range s.entries.Keys() {
		e, ok := s.entries.Peek(key)
		if ok && now.Sub(e.at) >= e.window {
			s.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	return s.entries.Len()
}

// RunCleaner sweeps expired entries every interval until ctx is done.
func RunCleaner(ctx context.Context, store *Store, clock clockwork.Clock, interval time.Duration) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := store.Sweep(clock.Now()); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired cooldowns")
			}
		}
	}
}
