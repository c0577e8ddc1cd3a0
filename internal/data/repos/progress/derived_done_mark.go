package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// DerivedDoneMarkRepo stores the materialized "node is done" cache.
// Only the cascade and reconciliation write to it.
type DerivedDoneMarkRepo interface {
	Exists(dbc dbctx.Context, userID, nodeID uuid.UUID) (bool, error)
	Put(dbc dbctx.Context, userID, nodeID uuid.UUID, kind string) (bool, error)
	Remove(dbc dbctx.Context, userID, nodeID uuid.UUID) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, kind string) ([]*types.DerivedDoneMark, error)
	DoneAmong(dbc dbctx.Context, userID uuid.UUID, nodeIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListUserIDs(dbc dbctx.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type derivedDoneMarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDerivedDoneMarkRepo(db *gorm.DB, baseLog *logger.Logger) DerivedDoneMarkRepo {
	return &derivedDoneMarkRepo{db: db, log: baseLog.With("repo", "DerivedDoneMarkRepo")}
}

func (r *derivedDoneMarkRepo) Exists(dbc dbctx.Context, userID, nodeID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || nodeID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.DerivedDoneMark{}).
		Where("user_id = ? AND node_id = ?", userID, nodeID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *derivedDoneMarkRepo) Put(dbc dbctx.Context, userID, nodeID uuid.UUID, kind string) (bool, error) {
	if userID == uuid.Nil || nodeID == uuid.Nil {
		return false, nil
	}
	row := &types.DerivedDoneMark{ID: uuid.New(), UserID: userID, NodeID: nodeID, NodeKind: kind}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "node_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *derivedDoneMarkRepo) Remove(dbc dbctx.Context, userID, nodeID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || nodeID == uuid.Nil {
		return false, nil
	}
	res := dbc.DB(r.db).
		Where("user_id = ? AND node_id = ?", userID, nodeID).
		Delete(&types.DerivedDoneMark{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *derivedDoneMarkRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, kind string) ([]*types.DerivedDoneMark, error) {
	out := []*types.DerivedDoneMark{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("node_kind = ?", kind)
	}
	if err := q.Order("created_at ASC, node_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *derivedDoneMarkRepo) DoneAmong(dbc dbctx.Context, userID uuid.UUID, nodeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	if userID == uuid.Nil || len(nodeIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	if err := dbc.DB(r.db).
		Model(&types.DerivedDoneMark{}).
		Where("user_id = ? AND node_id IN ?", userID, nodeIDs).
		Pluck("node_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *derivedDoneMarkRepo) ListUserIDs(dbc dbctx.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return listUserIDs(dbc.DB(r.db).Model(&types.DerivedDoneMark{}), after, limit)
}
