package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// CompletionMarkRepo is the per-user leaf completion ledger.
type CompletionMarkRepo interface {
	Has(dbc dbctx.Context, userID, leafID uuid.UUID) (bool, error)
	// Set makes the mark present (complete) or absent and reports whether a row
	// was actually inserted or deleted.
	Set(dbc dbctx.Context, userID, leafID uuid.UUID, complete bool) (bool, error)
	CompletedAmong(dbc dbctx.Context, userID uuid.UUID, leafIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListUserIDs(dbc dbctx.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type completionMarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionMarkRepo(db *gorm.DB, baseLog *logger.Logger) CompletionMarkRepo {
	return &completionMarkRepo{db: db, log: baseLog.With("repo", "CompletionMarkRepo")}
}

func (r *completionMarkRepo) Has(dbc dbctx.Context, userID, leafID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || leafID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.CompletionMark{}).
		Where("user_id = ? AND leaf_node_id = ?", userID, leafID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *completionMarkRepo) Set(dbc dbctx.Context, userID, leafID uuid.UUID, complete bool) (bool, error) {
	if userID == uuid.Nil || leafID == uuid.Nil {
		return false, nil
	}
	t := dbc.DB(r.db)
	if complete {
		row := &types.CompletionMark{ID: uuid.New(), UserID: userID, LeafNodeID: leafID}
		res := t.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "leaf_node_id"}},
			DoNothing: true,
		}).Create(row)
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected > 0, nil
	}
	res := t.Where("user_id = ? AND leaf_node_id = ?", userID, leafID).Delete(&types.CompletionMark{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *completionMarkRepo) CompletedAmong(dbc dbctx.Context, userID uuid.UUID, leafIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	if userID == uuid.Nil || len(leafIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	if err := dbc.DB(r.db).
		Model(&types.CompletionMark{}).
		Where("user_id = ? AND leaf_node_id IN ?", userID, leafIDs).
		Pluck("leaf_node_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *completionMarkRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.CompletionMark{}).
		Where("user_id = ?", userID).
		Order("leaf_node_id ASC").
		Pluck("leaf_node_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completionMarkRepo) ListUserIDs(dbc dbctx.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return listUserIDs(dbc.DB(r.db).Model(&types.CompletionMark{}), after, limit)
}

// listUserIDs pages distinct user ids in ascending order.
func listUserIDs(q *gorm.DB, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	if limit > 5000 {
		limit = 5000
	}
	if after != uuid.Nil {
		q = q.Where("user_id > ?", after)
	}
	out := []uuid.UUID{}
	if err := q.Distinct().
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
