package services

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// UserIDLister pages distinct user ids in ascending order.
type UserIDLister interface {
	ListUserIDs(dbc dbctx.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type ReconcileSummary struct {
	Users   int  `json:"users"`
	Failed  int  `json:"failed"`
	Checked int  `json:"checked"`
	Created int  `json:"created"`
	Removed int  `json:"removed"`
	Drifted int  `json:"drifted"`
	DryRun  bool `json:"dryRun"`
}

func (s *ReconcileSummary) add(r domainagg.ReconcileResult) {
	s.Users++
	s.Checked += r.Checked
	s.Created += r.Created
	s.Removed += r.Removed
	s.Drifted += len(r.Drift)
}

type ReconcileService interface {
	// ReconcileUser recomputes (or with dryRun audits) one user's done marks.
	ReconcileUser(ctx context.Context, userID uuid.UUID, scopeIDs []uuid.UUID, dryRun bool) (domainagg.ReconcileResult, error)
	// ReconcileMe runs ReconcileUser for the authenticated caller.
	ReconcileMe(ctx context.Context, dryRun bool) (domainagg.ReconcileResult, error)
	// ReconcileAll visits every user that holds a completion or done mark.
	ReconcileAll(ctx context.Context, dryRun bool) (ReconcileSummary, error)
}

type ReconcileOptions struct {
	Concurrency int
	PageSize    int
}

type reconcileService struct {
	log         *logger.Logger
	agg         domainagg.ProgressAggregate
	completions UserIDLister
	doneMarks   UserIDLister
	metrics     *observability.Metrics
	opts        ReconcileOptions
}

func NewReconcileService(
	log *logger.Logger,
	agg domainagg.ProgressAggregate,
	completions UserIDLister,
	doneMarks UserIDLister,
	metrics *observability.Metrics,
	opts ReconcileOptions,
) ReconcileService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 500
	}
	return &reconcileService{
		log:         log.With("service", "ReconcileService"),
		agg:         agg,
		completions: completions,
		doneMarks:   doneMarks,
		metrics:     metrics,
		opts:        opts,
	}
}

func (s *reconcileService) ReconcileUser(ctx context.Context, userID uuid.UUID, scopeIDs []uuid.UUID, dryRun bool) (domainagg.ReconcileResult, error) {
	res, err := s.agg.Reconcile(ctx, domainagg.ReconcileInput{UserID: userID, ScopeIDs: scopeIDs, DryRun: dryRun})
	status := "success"
	if err != nil {
		status = string(domainagg.CodeOf(err))
		if status == "" {
			status = "failure"
		}
	}
	s.metrics.ObserveReconcile(dryRun, status, res.Created, res.Removed)
	return res, err
}

func (s *reconcileService) ReconcileMe(ctx context.Context, dryRun bool) (domainagg.ReconcileResult, error) {
	op := "progress.reconcile"
	if dryRun {
		op = "progress.audit"
	}
	userID, err := requireUser(ctx, op)
	if err != nil {
		return domainagg.ReconcileResult{}, err
	}
	return s.ReconcileUser(ctx, userID, nil, dryRun)
}

func (s *reconcileService) ReconcileAll(ctx context.Context, dryRun bool) (ReconcileSummary, error) {
	summary := ReconcileSummary{DryRun: dryRun}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	err := s.eachUser(gctx, func(userID uuid.UUID) {
		g.Go(func() error {
			res, err := s.ReconcileUser(gctx, userID, nil, dryRun)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				summary.Failed++
				s.log.Warn("reconcile user failed", "user_id", userID, "error", err)
				return nil
			}
			summary.add(res)
			return nil
		})
	})
	if werr := g.Wait(); err == nil {
		err = werr
	}
	s.log.Info("reconcile pass finished",
		"dry_run", dryRun,
		"users", summary.Users,
		"failed", summary.Failed,
		"created", summary.Created,
		"removed", summary.Removed,
		"drifted", summary.Drifted,
	)
	return summary, err
}

// eachUser merges the two ascending user id streams and calls fn once per
// distinct id. Ids are only emitted up to the smallest page end that may still
// have more rows behind it, so nothing is skipped between pages.
func (s *reconcileService) eachUser(ctx context.Context, fn func(uuid.UUID)) error {
	dbc := dbctx.Context{Ctx: ctx}
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := s.completions.ListUserIDs(dbc, after, s.opts.PageSize)
		if err != nil {
			return err
		}
		b, err := s.doneMarks.ListUserIDs(dbc, after, s.opts.PageSize)
		if err != nil {
			return err
		}
		ids := mergeIDs(a, b)
		if len(ids) == 0 {
			return nil
		}
		bound, bounded := uuid.Nil, false
		for _, page := range [][]uuid.UUID{a, b} {
			if len(page) < s.opts.PageSize {
				continue
			}
			last := page[len(page)-1]
			if !bounded || lessID(last, bound) {
				bound, bounded = last, true
			}
		}
		for _, id := range ids {
			if bounded && lessID(bound, id) {
				break
			}
			fn(id)
			after = id
		}
		if !bounded {
			return nil
		}
	}
}

func lessID(a, b uuid.UUID) bool { return bytes.Compare(a[:], b[:]) < 0 }

func mergeIDs(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(a)+len(b))
	out := make([]uuid.UUID, 0, len(a)+len(b))
	for _, page := range [][]uuid.UUID{a, b} {
		for _, id := range page {
			if id == uuid.Nil || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i], out[j]) })
	return out
}
