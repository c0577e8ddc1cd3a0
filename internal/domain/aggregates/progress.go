package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/progress"
)

var ProgressAggregateContract = Contract{
	Name:             "Progress.ProgressAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns completion_mark flips and the derived_done_mark cascade for the " +
		"materialized scope. The cascade runs in a savepoint and never undoes the flip.",
}

// ProgressAggregate owns the completion ledger and its materialized done cache.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeRetryable, CodeInternal.
// Conflicts are retried internally and surface as CodeRetryable once exhausted.
type ProgressAggregate interface {
	Aggregate

	// ToggleLeaf flips the caller's completion of one leaf and refreshes the
	// done mark of its materialized ancestor.
	ToggleLeaf(ctx context.Context, in ToggleLeafInput) (ToggleLeafResult, error)

	// Reconcile recomputes done marks for a user from the ledger. With DryRun it
	// only reports drift.
	Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error)
}

type ToggleLeafInput struct {
	UserID uuid.UUID
	LeafID uuid.UUID
}

type ToggleLeafResult struct {
	LeafID    uuid.UUID
	Completed bool
	// Scope is the live progress of the materialized ancestor after the flip.
	// Nil when the leaf has no such ancestor or the cascade failed.
	Scope     *progress.Progress
	ScopeDone bool
	// CascadePending means the leaf flip committed but the done mark could not
	// be refreshed; reconciliation will repair it.
	CascadePending bool
	ScopeID        uuid.UUID
	Attempts       int
}

type ReconcileInput struct {
	UserID uuid.UUID
	// ScopeIDs limits the pass to these nodes. Empty means every node that either
	// holds a mark or is the materialized ancestor of a completed leaf.
	ScopeIDs []uuid.UUID
	DryRun   bool
}

// DriftEntry is one node whose cached done flag disagrees with the live value.
type DriftEntry struct {
	NodeID uuid.UUID `json:"nodeId"`
	Kind   string    `json:"kind"`
	Cached bool      `json:"cached"`
	Live   bool      `json:"live"`
}

type ReconcileResult struct {
	UserID  uuid.UUID    `json:"userId"`
	Checked int          `json:"checked"`
	Created int          `json:"created"`
	Removed int          `json:"removed"`
	DryRun  bool         `json:"dryRun"`
	Drift   []DriftEntry `json:"drift"`
}
