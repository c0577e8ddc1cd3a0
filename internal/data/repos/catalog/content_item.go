package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type ContentItemRepo interface {
	Create(dbc dbctx.Context, items []*types.ContentItem) ([]*types.ContentItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ContentItem, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentItem, error)
	ListByOwner(dbc dbctx.Context, kind string, ownerNodeID uuid.UUID) ([]*types.ContentItem, error)
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return &contentItemRepo{db: db, log: baseLog.With("repo", "ContentItemRepo")}
}

func (r *contentItemRepo) Create(dbc dbctx.Context, items []*types.ContentItem) ([]*types.ContentItem, error) {
	if len(items) == 0 {
		return []*types.ContentItem{}, nil
	}
	if err := dbc.DB(r.db).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ContentItem, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ContentItem
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *contentItemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("order_key ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentItemRepo) ListByOwner(dbc dbctx.Context, kind string, ownerNodeID uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	if ownerNodeID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("kind = ? AND owner_node_id = ?", kind, ownerNodeID).
		Order("order_key ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
