package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	catalogrepo "github.com/yungbote/coursetrack-backend/internal/data/repos/catalog"
	progressrepo "github.com/yungbote/coursetrack-backend/internal/data/repos/progress"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

type FavoriteAggregateDeps struct {
	Base  BaseDeps
	Items catalogrepo.ContentItemRepo
	// Ledgers maps an item kind to the repo bound to that kind's table.
	Ledgers map[string]progressrepo.FavoriteMarkRepo
}

type favoriteAggregate struct {
	deps FavoriteAggregateDeps
}

func NewFavoriteAggregate(deps FavoriteAggregateDeps) domainagg.FavoriteAggregate {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "FavoriteAggregate")
	return &favoriteAggregate{deps: deps}
}

func (a *favoriteAggregate) Contract() domainagg.Contract {
	return domainagg.FavoriteAggregateContract
}

func (a *favoriteAggregate) Toggle(ctx context.Context, in domainagg.ToggleFavoriteInput) (domainagg.ToggleFavoriteResult, error) {
	const op = "favorite.toggle"
	kind := strings.TrimSpace(in.Kind)
	ledger := a.deps.Ledgers[kind]
	if ledger == nil {
		return domainagg.ToggleFavoriteResult{}, MapError(op, ValidationError("unknown favorite kind "+kind))
	}
	if in.UserID == uuid.Nil || in.ItemID == uuid.Nil {
		return domainagg.ToggleFavoriteResult{}, MapError(op, ValidationError("user_id and item_id are required"))
	}

	var out domainagg.ToggleFavoriteResult
	attempts, err := executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ToggleFavoriteResult{Kind: kind, ItemID: in.ItemID}

		item, err := a.deps.Items.GetByID(dbc, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil || item.Kind != kind {
			return domainagg.NewError(domainagg.CodeNotFound, op, kind+" not found", nil)
		}
		if err := a.deps.Base.Lock.Acquire(dbc, "favorite."+kind, in.UserID, in.ItemID); err != nil {
			return err
		}
		has, err := ledger.Has(dbc, in.UserID, in.ItemID)
		if err != nil {
			return err
		}
		changed, err := ledger.Set(dbc, in.UserID, in.ItemID, !has)
		if err != nil {
			return err
		}
		if err := RequireChanged(changed, "favorite mark changed concurrently"); err != nil {
			return err
		}
		out.Favorited = !has
		return nil
	})
	out.Attempts = attempts
	if err != nil {
		return domainagg.ToggleFavoriteResult{Attempts: attempts}, err
	}
	return out, nil
}
