package aggregates

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	progressrepo "github.com/yungbote/coursetrack-backend/internal/data/repos/progress"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/progress"
)

const scopeLockNamespace = "progress.scope"

type ProgressAggregateDeps struct {
	Base        BaseDeps
	Tree        progress.TreeProvider
	Completions progressrepo.CompletionMarkRepo
	DoneMarks   progressrepo.DerivedDoneMarkRepo
	Shapes      *progress.Shapes
}

type progressAggregate struct {
	deps ProgressAggregateDeps
	agg  *progress.Aggregator
}

func NewProgressAggregate(deps ProgressAggregateDeps) domainagg.ProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "ProgressAggregate")
	if deps.Shapes == nil {
		deps.Shapes = progress.DefaultShapes()
	}
	return &progressAggregate{
		deps: deps,
		agg:  progress.NewAggregator(deps.Tree, deps.Completions, deps.Shapes),
	}
}

func (a *progressAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressAggregateContract
}

func (a *progressAggregate) ToggleLeaf(ctx context.Context, in domainagg.ToggleLeafInput) (domainagg.ToggleLeafResult, error) {
	const op = "progress.toggle_leaf"
	if in.UserID == uuid.Nil || in.LeafID == uuid.Nil {
		return domainagg.ToggleLeafResult{}, MapError(op, ValidationError("user_id and leaf_id are required"))
	}

	var out domainagg.ToggleLeafResult
	attempts, err := executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ToggleLeafResult{LeafID: in.LeafID}

		leaf, err := a.deps.Tree.Node(dbc, in.LeafID)
		if err != nil {
			return err
		}
		if leaf == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "leaf not found", progress.ErrNodeNotFound)
		}
		shape, err := a.deps.Shapes.Get(leaf.Variant)
		if err != nil {
			return err
		}
		if !shape.IsLeaf(leaf.Kind) {
			return fmt.Errorf("%w: %s is a %s, leaves are %s", progress.ErrNotLeaf, leaf.ID, leaf.Kind, shape.Leaf())
		}

		scopes, err := a.deps.Tree.AncestorOfKind(dbc, []uuid.UUID{leaf.ID}, shape.Materialized)
		if err != nil {
			return err
		}
		scopeID, hasScope := scopes[leaf.ID]
		lockID := leaf.ID
		if hasScope {
			lockID = scopeID
			out.ScopeID = scopeID
		}
		if err := a.deps.Base.Lock.Acquire(dbc, scopeLockNamespace, in.UserID, lockID); err != nil {
			return err
		}

		has, err := a.deps.Completions.Has(dbc, in.UserID, leaf.ID)
		if err != nil {
			return err
		}
		changed, err := a.deps.Completions.Set(dbc, in.UserID, leaf.ID, !has)
		if err != nil {
			return err
		}
		if err := RequireChanged(changed, "completion mark changed concurrently"); err != nil {
			return err
		}
		out.Completed = !has

		if hasScope {
			a.cascade(dbc, in.UserID, scopeID, shape.Materialized, &out)
		}
		return nil
	})
	out.Attempts = attempts
	if err != nil {
		return domainagg.ToggleLeafResult{Attempts: attempts}, err
	}
	if out.CascadePending {
		a.deps.Base.Hooks.IncDegraded(op)
	}
	return out, nil
}

// cascade refreshes the done mark of scopeID from the ledger as seen inside the
// current transaction. It runs in a savepoint; on failure only the savepoint is
// rolled back and the result is flagged for reconciliation.
func (a *progressAggregate) cascade(dbc dbctx.Context, userID, scopeID uuid.UUID, kind progress.Kind, out *domainagg.ToggleLeafResult) {
	var p progress.Progress
	err := inSavepoint(dbc, func(sp dbctx.Context) error {
		var err error
		p, err = a.agg.Aggregate(sp, userID, scopeID)
		if err != nil {
			return err
		}
		if p.Done {
			_, err = a.deps.DoneMarks.Put(sp, userID, scopeID, string(kind))
		} else {
			_, err = a.deps.DoneMarks.Remove(sp, userID, scopeID)
		}
		return err
	})
	if err != nil {
		a.deps.Base.Log.Warn("done-mark cascade failed; leaf toggle kept",
			"user_id", userID,
			"scope_id", scopeID,
			"error", err,
		)
		out.CascadePending = true
		out.Scope = nil
		out.ScopeDone = false
		return
	}
	out.Scope = &p
	out.ScopeDone = p.Done
}

func (a *progressAggregate) Reconcile(ctx context.Context, in domainagg.ReconcileInput) (domainagg.ReconcileResult, error) {
	op := "progress.reconcile"
	if in.DryRun {
		op = "progress.audit"
	}
	if in.UserID == uuid.Nil {
		return domainagg.ReconcileResult{}, MapError(op, ValidationError("user_id is required"))
	}

	var out domainagg.ReconcileResult
	_, err := executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ReconcileResult{UserID: in.UserID, DryRun: in.DryRun, Drift: []domainagg.DriftEntry{}}

		candidates, err := a.candidateScopes(dbc, in)
		if err != nil {
			return err
		}
		out.Checked = len(candidates)
		if len(candidates) == 0 {
			return nil
		}
		if !in.DryRun {
			// fixed order so concurrent reconciles cannot deadlock on scope locks
			for _, id := range candidates {
				if err := a.deps.Base.Lock.Acquire(dbc, scopeLockNamespace, in.UserID, id); err != nil {
					return err
				}
			}
		}

		nodes, err := a.deps.Tree.Nodes(dbc, candidates)
		if err != nil {
			return err
		}
		kindOf := map[uuid.UUID]string{}
		var live []uuid.UUID
		for _, n := range nodes {
			kindOf[n.ID] = string(n.Kind)
			if a.isMaterialized(n) {
				live = append(live, n.ID)
			}
		}
		prog, err := a.agg.AggregateMany(dbc, in.UserID, live)
		if err != nil {
			return err
		}
		cached, err := a.deps.DoneMarks.DoneAmong(dbc, in.UserID, candidates)
		if err != nil {
			return err
		}

		for _, id := range candidates {
			want := prog[id].Done
			have := cached[id]
			if want == have {
				continue
			}
			out.Drift = append(out.Drift, domainagg.DriftEntry{NodeID: id, Kind: kindOf[id], Cached: have, Live: want})
			if in.DryRun {
				continue
			}
			if want {
				created, err := a.deps.DoneMarks.Put(dbc, in.UserID, id, kindOf[id])
				if err != nil {
					return err
				}
				if created {
					out.Created++
				}
			} else {
				removed, err := a.deps.DoneMarks.Remove(dbc, in.UserID, id)
				if err != nil {
					return err
				}
				if removed {
					out.Removed++
				}
			}
		}
		return nil
	})
	if err != nil {
		return domainagg.ReconcileResult{}, err
	}
	if len(out.Drift) > 0 {
		a.deps.Base.Log.Info("done-mark drift",
			"user_id", in.UserID,
			"dry_run", in.DryRun,
			"drift", len(out.Drift),
			"created", out.Created,
			"removed", out.Removed,
		)
	}
	return out, nil
}

// candidateScopes returns sorted, de-duplicated scope ids to check.
func (a *progressAggregate) candidateScopes(dbc dbctx.Context, in domainagg.ReconcileInput) ([]uuid.UUID, error) {
	set := map[uuid.UUID]struct{}{}
	if len(in.ScopeIDs) > 0 {
		for _, id := range in.ScopeIDs {
			if id != uuid.Nil {
				set[id] = struct{}{}
			}
		}
		return sortedIDs(set), nil
	}

	leafIDs, err := a.deps.Completions.ListByUser(dbc, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(leafIDs) > 0 {
		leaves, err := a.deps.Tree.Nodes(dbc, leafIDs)
		if err != nil {
			return nil, err
		}
		byVariant := map[progress.Variant][]uuid.UUID{}
		for _, n := range leaves {
			byVariant[n.Variant] = append(byVariant[n.Variant], n.ID)
		}
		for variant, ids := range byVariant {
			shape, err := a.deps.Shapes.Get(variant)
			if err != nil {
				// leaves of unknown variants have no materialized scope
				continue
			}
			anc, err := a.deps.Tree.AncestorOfKind(dbc, ids, shape.Materialized)
			if err != nil {
				return nil, err
			}
			for _, scopeID := range anc {
				set[scopeID] = struct{}{}
			}
		}
	}

	marks, err := a.deps.DoneMarks.ListByUser(dbc, in.UserID, "")
	if err != nil {
		return nil, err
	}
	for _, m := range marks {
		set[m.NodeID] = struct{}{}
	}
	return sortedIDs(set), nil
}

func (a *progressAggregate) isMaterialized(n *progress.Node) bool {
	if n == nil {
		return false
	}
	shape, err := a.deps.Shapes.Get(n.Variant)
	if err != nil {
		return false
	}
	return n.Kind == shape.Materialized
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
