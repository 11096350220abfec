package coordination

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_store.go -package=mocks . Store

import (
	"context"
	"time"
)

// Store is the shared low-latency key-value service used to make locking and
// connection indexing correct across server processes. Piece-lock arbitration
// relies entirely on SetIfAbsent being atomic store-wide; the coordinator
// never layers in-process locks on top of it.
type Store interface {
	// SetIfAbsent writes key=value with a TTL only when the key is absent and
	// reports whether this call created it.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	// Expire refreshes the TTL of an existing key and reports whether the key
	// was present.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)

	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe registers a handler for every message published to channels
	// matching the pattern (a literal channel name, or a prefix ending in
	// "*"). The returned function cancels the subscription.
	Subscribe(ctx context.Context, pattern string, handler func(channel string, payload []byte)) (func(), error)
}
