package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store implements coordination.Store on a shared Redis instance. SetIfAbsent
// maps to SETNX with expiry, which is what gives piece locks their store-wide
// at-most-one-holder guarantee across server processes.
type Store struct {
	client *goredis.Client
	logger zerolog.Logger
}

func NewStore(client *goredis.Client, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With().Str("component", "redis-store").Logger(),
	}
}

// NewClient dials Redis and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.Expire(ctx, key, ttl).Result()
}

func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

func (s *Store) Subscribe(ctx context.Context, pattern string, handler func(channel string, payload []byte)) (func(), error) {
	sub := s.client.PSubscribe(ctx, pattern)
	// Force the subscription onto the wire before returning so callers never
	// miss events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			handler(msg.Channel, []byte(msg.Payload))
		}
	}()

	return func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn().Err(err).Str("pattern", pattern).Msg("failed to close subscription")
		}
	}, nil
}
