package app

import (
	"context"
	"fmt"

	"quiz_console/internal/config"
	"quiz_console/internal/repository"
	"quiz_console/pkg/database"

	"github.com/go-redis/redis/v8"
)

// OpenSessionStore 按 session.store 创建会话存储；redis 时一并返回客户端供健康检查使用
func OpenSessionStore(ctx context.Context, cfg *config.Config) (repository.SessionStore, *redis.Client, error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStore(rdb, cfg.Session.KeyPrefix), rdb, nil
	case config.StoreFile:
		store, err := repository.NewFileStore(cfg.Session.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.StoreMemory, "":
		return repository.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
