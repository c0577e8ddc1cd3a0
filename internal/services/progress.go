package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/domain"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/progress"
)

type ToggleLeafView struct {
	LeafID    uuid.UUID `json:"leafId"`
	Completed bool      `json:"completed"`
	// Scope is the live progress of the materialized ancestor.
	Scope          *progress.Progress `json:"scope,omitempty"`
	CascadePending bool               `json:"cascadePending"`
}

type ProgressService interface {
	// ToggleLeaf flips the caller's completion of a leaf.
	ToggleLeaf(ctx context.Context, leafID uuid.UUID) (*ToggleLeafView, error)
}

type progressService struct {
	log        *logger.Logger
	agg        domainagg.ProgressAggregate
	aggregator *progress.Aggregator
	queue      ReconcileQueue
	metrics    *observability.Metrics
}

func NewProgressService(
	log *logger.Logger,
	agg domainagg.ProgressAggregate,
	aggregator *progress.Aggregator,
	queue ReconcileQueue,
	metrics *observability.Metrics,
) ProgressService {
	return &progressService{
		log:        log.With("service", "ProgressService"),
		agg:        agg,
		aggregator: aggregator,
		queue:      queue,
		metrics:    metrics,
	}
}

func (s *progressService) ToggleLeaf(ctx context.Context, leafID uuid.UUID) (*ToggleLeafView, error) {
	userID, err := requireUser(ctx, "progress.toggle_leaf")
	if err != nil {
		return nil, err
	}
	res, err := s.agg.ToggleLeaf(ctx, domainagg.ToggleLeafInput{UserID: userID, LeafID: leafID})
	if err != nil {
		return nil, err
	}
	s.metrics.IncToggle("leaf", res.Completed)

	view := &ToggleLeafView{
		LeafID:         res.LeafID,
		Completed:      res.Completed,
		Scope:          res.Scope,
		CascadePending: res.CascadePending,
	}
	if !res.CascadePending || res.ScopeID == uuid.Nil {
		return view, nil
	}

	s.log.Warn("done-mark cascade deferred to reconciliation",
		"user_id", userID,
		"leaf_id", leafID,
		"scope_id", res.ScopeID,
	)
	task := domain.ReconcileTask{UserID: userID, ScopeID: res.ScopeID}
	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, task); err != nil {
			// ReconcileWorker.RunFullOnce still converges the mark.
			s.log.Error("enqueue reconcile task failed", "task", task.Key(), "error", err)
		}
	}
	if view.Scope == nil && s.aggregator != nil {
		p, err := s.aggregator.Aggregate(dbctx.Context{Ctx: ctx}, userID, res.ScopeID)
		if err != nil {
			s.log.Warn("live scope progress unavailable", "scope_id", res.ScopeID, "error", err)
		} else {
			view.Scope = &p
		}
	}
	return view, nil
}
