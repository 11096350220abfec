package memstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store is an in-process coordination.Store used by tests and single-process
// deployments. Semantics match the Redis-backed store: SetIfAbsent is atomic,
// keys expire lazily, Subscribe supports trailing-* patterns.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	nextSub int
	subs    map[int]subscription
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

type subscription struct {
	pattern string
	handler func(channel string, payload []byte)
}

func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		subs:    make(map[int]subscription),
	}
}

func (s *Store) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = entry{value: value, expiresAt: deadline(ttl)}
	return true, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return false, nil
	}
	e.expiresAt = deadline(ttl)
	s.entries[key] = e
	return true, nil
}

func (s *Store) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if e, ok := s.live(key); ok {
		n, _ = strconv.ParseInt(e.value, 10, 64)
	}
	n++
	s.entries[key] = entry{value: strconv.FormatInt(n, 10)}
	return n, nil
}

func (s *Store) Publish(_ context.Context, channel string, payload []byte) error {
	s.mu.Lock()
	handlers := make([]func(string, []byte), 0, len(s.subs))
	for _, sub := range s.subs {
		if matches(sub.pattern, channel) {
			handlers = append(handlers, sub.handler)
		}
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(channel, payload)
	}
	return nil
}

func (s *Store) Subscribe(_ context.Context, pattern string, handler func(channel string, payload []byte)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscription{pattern: pattern, handler: handler}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}, nil
}

// live returns the entry when present and unexpired, reaping it otherwise.
// Callers hold s.mu.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}

func deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func matches(pattern, channel string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(channel, prefix)
	}
	return pattern == channel
}
