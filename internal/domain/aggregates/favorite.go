package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var FavoriteAggregateContract = Contract{
	Name:             "Progress.FavoriteAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns create-or-delete of (user, item) rows in the per-kind favorite tables.",
}

// FavoriteAggregate toggles favorites. It shares the ledger contract of
// ProgressAggregate without any cascade.
type FavoriteAggregate interface {
	Aggregate

	Toggle(ctx context.Context, in ToggleFavoriteInput) (ToggleFavoriteResult, error)
}

type ToggleFavoriteInput struct {
	Kind   string
	UserID uuid.UUID
	ItemID uuid.UUID
}

type ToggleFavoriteResult struct {
	Kind      string
	ItemID    uuid.UUID
	Favorited bool
	Attempts  int
}
