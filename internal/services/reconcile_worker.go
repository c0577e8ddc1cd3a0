package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// ReconcileWorker drains the reconcile queue on a ticker. Each tick groups the
// drained tasks by user and runs one scoped reconcile per user; failed users
// are put back on the queue. A second, slower ticker runs a full pass over
// every user so marks whose task never reached the queue still converge.
type ReconcileWorker struct {
	log          *logger.Logger
	svc          ReconcileService
	queue        ReconcileQueue
	metrics      *observability.Metrics
	interval     time.Duration
	fullInterval time.Duration
	batch        int
}

// NewReconcileWorker builds a worker. A fullInterval of zero disables the
// periodic full pass.
func NewReconcileWorker(
	log *logger.Logger,
	svc ReconcileService,
	queue ReconcileQueue,
	metrics *observability.Metrics,
	interval time.Duration,
	fullInterval time.Duration,
	batch int,
) *ReconcileWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if fullInterval < 0 {
		fullInterval = 0
	}
	if batch <= 0 {
		batch = 100
	}
	return &ReconcileWorker{
		log:          log.With("component", "ReconcileWorker"),
		svc:          svc,
		queue:        queue,
		metrics:      metrics,
		interval:     interval,
		fullInterval: fullInterval,
		batch:        batch,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	w.log.Info("Starting reconcile worker",
		"interval", w.interval.String(),
		"full_interval", w.fullInterval.String(),
		"batch", w.batch,
	)
	go w.runLoop(ctx)
}

func (w *ReconcileWorker) runLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// A nil channel never fires, which keeps the full pass off when disabled.
	var fullC <-chan time.Time
	if w.fullInterval > 0 {
		full := time.NewTicker(w.fullInterval)
		defer full.Stop()
		fullC = full.C
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Reconcile worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn("reconcile tick failed", "error", err)
			}
		case <-fullC:
			if _, err := w.RunFullOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn("full reconcile pass failed", "error", err)
			}
		}
	}
}

// RunFullOnce reconciles every user's marks, independent of the queue.
func (w *ReconcileWorker) RunFullOnce(ctx context.Context) (ReconcileSummary, error) {
	summary, err := w.svc.ReconcileAll(ctx, false)
	if err != nil {
		return summary, err
	}
	w.log.Debug("full reconcile pass",
		"users", summary.Users,
		"failed", summary.Failed,
		"created", summary.Created,
		"removed", summary.Removed,
	)
	return summary, nil
}

// RunOnce drains one batch and returns how many tasks it took off the queue.
func (w *ReconcileWorker) RunOnce(ctx context.Context) (int, error) {
	tasks, err := w.queue.Dequeue(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	if depth, lerr := w.queue.Len(ctx); lerr == nil {
		w.metrics.SetReconcileQueueDepth(depth)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	var order []uuid.UUID
	byUser := map[uuid.UUID][]domain.ReconcileTask{}
	for _, t := range tasks {
		if _, ok := byUser[t.UserID]; !ok {
			order = append(order, t.UserID)
		}
		byUser[t.UserID] = append(byUser[t.UserID], t)
	}

	for _, userID := range order {
		userTasks := byUser[userID]
		res, err := w.svc.ReconcileUser(ctx, userID, scopesOf(userTasks), false)
		if err != nil {
			w.log.Warn("reconcile task failed, requeueing", "user_id", userID, "error", err)
			if qerr := w.queue.Enqueue(context.WithoutCancel(ctx), userTasks...); qerr != nil {
				w.log.Error("requeue reconcile tasks failed", "user_id", userID, "error", qerr)
			}
			continue
		}
		w.log.Debug("reconciled queued scopes",
			"user_id", userID,
			"checked", res.Checked,
			"created", res.Created,
			"removed", res.Removed,
		)
	}
	return len(tasks), nil
}

// scopesOf returns nil (every scope) when any task is unscoped.
func scopesOf(tasks []domain.ReconcileTask) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		if t.ScopeID == uuid.Nil {
			return nil
		}
		out = append(out, t.ScopeID)
	}
	return out
}
