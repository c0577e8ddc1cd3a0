package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// FavoriteMarkRepo is a (user, item) favorites ledger bound to one table.
type FavoriteMarkRepo interface {
	Table() string
	Has(dbc dbctx.Context, userID, itemID uuid.UUID) (bool, error)
	Set(dbc dbctx.Context, userID, itemID uuid.UUID, favorite bool) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.FavoriteMark, error)
	FavoritedAmong(dbc dbctx.Context, userID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type favoriteMarkRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	table string
}

// NewFavoriteMarkRepo binds a repo to table (see tracking.FavoriteTable).
func NewFavoriteMarkRepo(db *gorm.DB, baseLog *logger.Logger, table string) FavoriteMarkRepo {
	return &favoriteMarkRepo{
		db:    db,
		log:   baseLog.With("repo", "FavoriteMarkRepo", "table", table),
		table: table,
	}
}

func (r *favoriteMarkRepo) Table() string { return r.table }

func (r *favoriteMarkRepo) Has(dbc dbctx.Context, userID, itemID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Table(r.table).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *favoriteMarkRepo) Set(dbc dbctx.Context, userID, itemID uuid.UUID, favorite bool) (bool, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return false, nil
	}
	t := dbc.DB(r.db).Table(r.table)
	if favorite {
		row := &types.FavoriteMark{ID: uuid.New(), UserID: userID, ItemID: itemID}
		res := t.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).Create(row)
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected > 0, nil
	}
	res := t.Where("user_id = ? AND item_id = ?", userID, itemID).Delete(&types.FavoriteMark{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteMarkRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.FavoriteMark, error) {
	out := []*types.FavoriteMark{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Table(r.table).
		Where("user_id = ?", userID).
		Order("created_at DESC, item_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *favoriteMarkRepo) FavoritedAmong(dbc dbctx.Context, userID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	if userID == uuid.Nil || len(itemIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	if err := dbc.DB(r.db).
		Table(r.table).
		Where("user_id = ? AND item_id IN ?", userID, itemIDs).
		Pluck("item_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
