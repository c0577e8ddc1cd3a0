package app

import (
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	redisclient "github.com/yungbote/coursetrack-backend/internal/platform/redis"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset.
	Redis *goredis.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Warn("REDIS_ADDR not set; reconcile queue is process-local")
		return out, nil
	}
	rdb, err := redisclient.NewClient(log, cfg.RedisAddr)
	if err != nil {
		return out, fmt.Errorf("init redis: %w", err)
	}
	out.Redis = rdb
	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

func wireReconcileQueue(log *logger.Logger, cfg Config, clients Clients) (services.ReconcileQueue, error) {
	if clients.Redis == nil {
		return services.NewMemoryReconcileQueue(), nil
	}
	q, err := redisclient.NewReconcileQueue(log, clients.Redis, cfg.ReconcileQueueKey)
	if err != nil {
		return nil, fmt.Errorf("init reconcile queue: %w", err)
	}
	return q, nil
}
