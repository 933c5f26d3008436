package repository

import (
	"context"
	"fmt"
	"time"

	"quiz_console/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore 会话存在 redis，session-changed 通过 PUBLISH/SUBSCRIBE 广播给所有进程
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "quiz_console"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, k)
}

func (s *RedisStore) channel() string {
	return s.prefix + ":session-changed"
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	pairs := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, s.key(k), v)
	}
	if len(pairs) == 0 {
		return nil
	}
	return s.rdb.MSet(ctx, pairs...).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Publish(ctx context.Context) error {
	return s.rdb.Publish(ctx, s.channel(), time.Now().UnixMilli()).Err()
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan SessionEvent, error) {
	pubsub := s.rdb.Subscribe(ctx, s.channel())
	// 等待订阅确认，之后的 Publish 不会丢
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.channel(), err)
	}

	out := make(chan SessionEvent, 8)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				logger.Log.Debug("Session changed", zap.String("channel", msg.Channel), zap.String("payload", msg.Payload))
				select {
				case out <- SessionEvent{At: time.Now()}:
				default:
				}
			}
		}
	}()
	return out, nil
}
