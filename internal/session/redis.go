package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/trade-chatbot/server/internal/conversation"
	errx "github.com/trade-chatbot/server/internal/core/error"
	logx "github.com/trade-chatbot/server/pkg/logger"
)

// RedisRepository stores session state as a JSON value and turn history as a
// list, both under a shared TTL that is refreshed on every touch.
type RedisRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) stateKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func (r *RedisRepository) messagesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

func (r *RedisRepository) LoadState(ctx context.Context, sessionID string) (conversation.State, bool, error) {
	raw, err := r.rdb.Get(ctx, r.stateKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return conversation.State{}, false, nil
		}
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to load session state from redis")
		return conversation.State{}, false, errx.WrapRedis(err)
	}

	var s conversation.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return conversation.State{}, false, fmt.Errorf("unmarshal session state: %w", err)
	}
	return s, true, nil
}

func (r *RedisRepository) SaveState(ctx context.Context, sessionID string, state conversation.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := r.rdb.Set(ctx, r.stateKey(sessionID), b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to save session state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.messagesKey(sessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
		}
	}
	return nil
}

func (r *RedisRepository) LoadHistory(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	key := r.messagesKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []*schema.Message{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

func (r *RedisRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.stateKey(sessionID), r.messagesKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Repository = (*RedisRepository)(nil)
