package registry

import (
	"MayaCRM/internal/entity"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidStoreType = errors.New("invalid registry store type")
	ErrInvalidConfig    = errors.New("invalid registry store config")
)

// Store holds the orchestrator's live state: active/paused sessions and the
// per-session FIFO command queues. The memory driver is process-local (queued
// commands do not survive a restart); the redis driver shares state across
// instances and closes that data-loss window.
type Store interface {
	// PutSession inserts or replaces the live record for a session.
	PutSession(ctx context.Context, session *entity.Session) error

	// GetSession returns nil, nil when the session is not registered.
	GetSession(ctx context.Context, id string) (*entity.Session, error)

	// ListSessions returns every registered session owned by the tenant.
	ListSessions(ctx context.Context, userID string) ([]*entity.Session, error)

	// AllSessions returns every registered session across tenants. The
	// queue drainer uses it to find sessions with pending commands.
	AllSessions(ctx context.Context) ([]*entity.Session, error)

	// RemoveSession drops the session and whatever is left of its queue.
	RemoveSession(ctx context.Context, id string) error

	// Enqueue appends a command to the session's queue.
	Enqueue(ctx context.Context, sessionID string, cmd entity.Command) error

	// DequeueDue removes and returns, in insertion order, every queued
	// command whose scheduled time is not after now. Future-scheduled
	// commands stay queued.
	DequeueDue(ctx context.Context, sessionID string, now time.Time) ([]entity.Command, error)

	// QueuedCount reports how many commands are waiting for the session.
	QueuedCount(ctx context.Context, sessionID string) (int, error)

	Close() error
}

type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
}

func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// NewStore builds a registry store. The redis driver requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(), nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    ttl,
		}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}
