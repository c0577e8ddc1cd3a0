package services

import (
	"context"
	"sort"
	"sync"

	"github.com/yungbote/coursetrack-backend/internal/domain"
)

// ReconcileQueue holds (user, scope) pairs whose done mark could not be
// refreshed inline. Implementations collapse duplicates.
type ReconcileQueue interface {
	Enqueue(ctx context.Context, tasks ...domain.ReconcileTask) error
	Dequeue(ctx context.Context, n int) ([]domain.ReconcileTask, error)
	Len(ctx context.Context) (int, error)
}

// MemoryReconcileQueue is the single-process queue used when no redis is
// configured.
type MemoryReconcileQueue struct {
	mu    sync.Mutex
	tasks map[string]domain.ReconcileTask
}

func NewMemoryReconcileQueue() *MemoryReconcileQueue {
	return &MemoryReconcileQueue{tasks: map[string]domain.ReconcileTask{}}
}

func (q *MemoryReconcileQueue) Enqueue(_ context.Context, tasks ...domain.ReconcileTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range tasks {
		q.tasks[t.Key()] = t
	}
	return nil
}

// Dequeue removes up to n tasks in key order.
func (q *MemoryReconcileQueue) Dequeue(_ context.Context, n int) ([]domain.ReconcileTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || len(q.tasks) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(q.tasks))
	for k := range q.tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]domain.ReconcileTask, 0, len(keys))
	for _, k := range keys {
		out = append(out, q.tasks[k])
		delete(q.tasks, k)
	}
	return out, nil
}

func (q *MemoryReconcileQueue) Len(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks), nil
}
