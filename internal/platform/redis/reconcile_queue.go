package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

const DefaultReconcileQueueKey = "coursetrack:reconcile"

// ReconcileQueue is a redis set of pending (user, scope) repairs. SADD
// collapses duplicates and SPOP hands each member to exactly one worker.
type ReconcileQueue struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

func NewReconcileQueue(log *logger.Logger, rdb *goredis.Client, key string) (*ReconcileQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultReconcileQueueKey
	}
	return &ReconcileQueue{
		log: log.With("client", "RedisReconcileQueue"),
		rdb: rdb,
		key: key,
	}, nil
}

func (q *ReconcileQueue) Enqueue(ctx context.Context, tasks ...domain.ReconcileTask) error {
	if len(tasks) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		members = append(members, t.Key())
	}
	return q.rdb.SAdd(ctx, q.key, members...).Err()
}

func (q *ReconcileQueue) Dequeue(ctx context.Context, n int) ([]domain.ReconcileTask, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := q.rdb.SPopN(ctx, q.key, int64(n)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTasks(q.log, raw), nil
}

func (q *ReconcileQueue) Len(ctx context.Context) (int, error) {
	n, err := q.rdb.SCard(ctx, q.key).Result()
	return int(n), err
}

// decodeTasks drops members that do not parse; they can never be processed.
func decodeTasks(log *logger.Logger, raw []string) []domain.ReconcileTask {
	out := make([]domain.ReconcileTask, 0, len(raw))
	for _, member := range raw {
		t, err := domain.ParseReconcileTask(member)
		if err != nil {
			log.Warn("dropping malformed reconcile task", "member", member, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out
}
