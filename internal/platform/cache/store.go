package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/platform/resilience"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-process TTL cache keyed by prefix-scoped strings. A nil
// *Store caches nothing, which is how CACHE_ENABLED=false is wired.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clock   clockwork.Clock
	// generation advances on every invalidation so a load that started
	// before it never writes its result back.
	generation uint64
	flight     resilience.SingleFlight
}

type Option func(*Store)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore keeps entries for ttl. A non-positive ttl keeps them until
// invalidated.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lookup(key string) (any, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	return e.value, s.generation, ok
}

func (s *Store) put(key string, value any, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}
	e := entry{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.clock.Now().Add(s.ttl)
	}
	s.entries[key] = e
}

// Invalidate drops every key starting with prefix and reports how many went.
// Loads already in flight finish for their callers but are not stored.
func (s *Store) Invalidate(_ context.Context, prefix string) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Load returns the cached value for key or runs load once for every
// concurrent caller asking for the same key. Errors are never cached.
func Load[T any](ctx context.Context, s *Store, key string, load func(context.Context) (T, error)) (T, error) {
	if s == nil || key == "" {
		return load(ctx)
	}
	if value, _, ok := s.lookup(key); ok {
		return typed[T](key, value)
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		cached, generation, ok := s.lookup(key)
		if ok {
			return cached, nil
		}
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.put(key, loaded, generation)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return typed[T](key, value)
}

func typed[T any](key string, value any) (T, error) {
	out, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T, want %T", key, value, zero)
	}
	return out, nil
}
