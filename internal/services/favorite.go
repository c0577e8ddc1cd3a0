package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type ToggleFavoriteView struct {
	Kind      string    `json:"kind"`
	ItemID    uuid.UUID `json:"itemId"`
	Favorited bool      `json:"favorited"`
}

type FavoriteItemView struct {
	ItemID      uuid.UUID  `json:"itemId"`
	Kind        string     `json:"kind"`
	OwnerNodeID *uuid.UUID `json:"ownerNodeId,omitempty"`
	TextEN      string     `json:"textEn"`
	TextRU      string     `json:"textRu"`
	FavoritedAt time.Time  `json:"favoritedAt"`
}

// NodeItemView is a content item attached to a node, flagged with the
// caller's favorite state.
type NodeItemView struct {
	ItemID    uuid.UUID `json:"itemId"`
	Kind      string    `json:"kind"`
	OrderKey  int       `json:"orderKey"`
	TextEN    string    `json:"textEn"`
	TextRU    string    `json:"textRu"`
	Favorited bool      `json:"favorited"`
}

type FavoriteService interface {
	Toggle(ctx context.Context, kind string, itemID uuid.UUID) (*ToggleFavoriteView, error)
	// List returns the caller's favorites of kind, oldest first.
	List(dbc dbctx.Context, kind string) ([]FavoriteItemView, error)
	FavoritedAmong(dbc dbctx.Context, kind string, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	// ListForNode returns the items of kind owned by nodeID in display order.
	// Favorite flags come from one batched ledger lookup.
	ListForNode(dbc dbctx.Context, kind string, nodeID uuid.UUID) ([]NodeItemView, error)
}

type favoriteService struct {
	log     *logger.Logger
	agg     domainagg.FavoriteAggregate
	items   repos.ContentItemRepo
	ledgers map[string]repos.FavoriteMarkRepo
	metrics *observability.Metrics
}

func NewFavoriteService(
	log *logger.Logger,
	agg domainagg.FavoriteAggregate,
	items repos.ContentItemRepo,
	ledgers map[string]repos.FavoriteMarkRepo,
	metrics *observability.Metrics,
) FavoriteService {
	return &favoriteService{
		log:     log.With("service", "FavoriteService"),
		agg:     agg,
		items:   items,
		ledgers: ledgers,
		metrics: metrics,
	}
}

func (s *favoriteService) Toggle(ctx context.Context, kind string, itemID uuid.UUID) (*ToggleFavoriteView, error) {
	userID, err := requireUser(ctx, "favorite.toggle")
	if err != nil {
		return nil, err
	}
	res, err := s.agg.Toggle(ctx, domainagg.ToggleFavoriteInput{
		Kind:   strings.TrimSpace(kind),
		UserID: userID,
		ItemID: itemID,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncToggle("favorite."+res.Kind, res.Favorited)
	return &ToggleFavoriteView{Kind: res.Kind, ItemID: res.ItemID, Favorited: res.Favorited}, nil
}

func (s *favoriteService) List(dbc dbctx.Context, kind string) ([]FavoriteItemView, error) {
	const op = "favorite.list"
	userID, err := requireUser(dbc.Ctx, op)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(op, kind)
	if err != nil {
		return nil, err
	}
	marks, err := ledger.ListByUser(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := make([]FavoriteItemView, 0, len(marks))
	if len(marks) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(marks))
	for _, m := range marks {
		ids = append(ids, m.ItemID)
	}
	items, err := s.items.GetByIDs(dbc, ids)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	byID := make(map[uuid.UUID]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}
	for _, m := range marks {
		i, ok := byID[m.ItemID]
		if !ok {
			// Item removed from the catalog; the mark is orphaned.
			continue
		}
		it := items[i]
		out = append(out, FavoriteItemView{
			ItemID:      it.ID,
			Kind:        it.Kind,
			OwnerNodeID: it.OwnerNodeID,
			TextEN:      it.TextEN,
			TextRU:      it.TextRU,
			FavoritedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (s *favoriteService) FavoritedAmong(dbc dbctx.Context, kind string, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	const op = "favorite.favorited_among"
	userID, err := requireUser(dbc.Ctx, op)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(op, kind)
	if err != nil {
		return nil, err
	}
	out, err := ledger.FavoritedAmong(dbc, userID, itemIDs)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *favoriteService) ListForNode(dbc dbctx.Context, kind string, nodeID uuid.UUID) ([]NodeItemView, error) {
	const op = "favorite.list_for_node"
	if _, err := requireUser(dbc.Ctx, op); err != nil {
		return nil, err
	}
	kind = strings.TrimSpace(kind)
	if _, err := s.ledger(op, kind); err != nil {
		return nil, err
	}
	items, err := s.items.ListByOwner(dbc, kind, nodeID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := make([]NodeItemView, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	favorited, err := s.FavoritedAmong(dbc, kind, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out = append(out, NodeItemView{
			ItemID:    it.ID,
			Kind:      it.Kind,
			OrderKey:  it.OrderKey,
			TextEN:    it.TextEN,
			TextRU:    it.TextRU,
			Favorited: favorited[it.ID],
		})
	}
	return out, nil
}

func (s *favoriteService) ledger(op, kind string) (repos.FavoriteMarkRepo, error) {
	l := s.ledgers[strings.TrimSpace(kind)]
	if l == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "unknown favorite kind", nil)
	}
	return l, nil
}
