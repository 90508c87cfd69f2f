package registry

import (
	"MayaCRM/internal/entity"
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "maya:session:"
	queueKeyPrefix   = "maya:queue:"
	tenantKeyPrefix  = "maya:tenant:"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) PutSession(ctx context.Context, session *entity.Session) error {
	val, err := json.Marshal(session)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, val, s.ttl)
	pipe.SAdd(ctx, tenantKeyPrefix+session.UserID, session.ID)
	pipe.Expire(ctx, tenantKeyPrefix+session.UserID, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (s *redisStore) ListSessions(ctx context.Context, userID string) ([]*entity.Session, error) {
	ids, err := s.client.SMembers(ctx, tenantKeyPrefix+userID).Result()
	if err != nil {
		return nil, err
	}

	var result []*entity.Session
	for _, id := range ids {
		session, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if session == nil {
			// Expired entry, drop it from the index.
			s.client.SRem(ctx, tenantKeyPrefix+userID, id)
			continue
		}
		result = append(result, session)
	}
	return result, nil
}

func (s *redisStore) AllSessions(ctx context.Context) ([]*entity.Session, error) {
	var result []*entity.Session

	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}

		var session entity.Session
		if err := json.Unmarshal([]byte(val), &session); err != nil {
			continue
		}
		result = append(result, &session)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *redisStore) RemoveSession(ctx context.Context, id string) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.Del(ctx, queueKeyPrefix+id)
	if session != nil {
		pipe.SRem(ctx, tenantKeyPrefix+session.UserID, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) Enqueue(ctx context.Context, sessionID string, cmd entity.Command) error {
	val, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, queueKeyPrefix+sessionID, val)
	pipe.Expire(ctx, queueKeyPrefix+sessionID, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// DequeueDue rewrites the whole list under WATCH so two drainers cannot both
// claim the same command.
func (s *redisStore) DequeueDue(ctx context.Context, sessionID string, now time.Time) ([]entity.Command, error) {
	key := queueKeyPrefix + sessionID
	var due []entity.Command

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			due = nil
			return nil
		}

		due = due[:0]
		var remaining []interface{}
		for _, item := range raw {
			var cmd entity.Command
			if err := json.Unmarshal([]byte(item), &cmd); err != nil {
				continue
			}
			if cmd.Due(now) {
				due = append(due, cmd)
			} else {
				remaining = append(remaining, item)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(remaining) > 0 {
				pipe.RPush(ctx, key, remaining...)
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, err
	}

	return due, nil
}

func (s *redisStore) QueuedCount(ctx context.Context, sessionID string) (int, error) {
	n, err := s.client.LLen(ctx, queueKeyPrefix+sessionID).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
