package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/progress"
)

// maxAncestorHops bounds parent walks over malformed (cyclic) catalog data.
const maxAncestorHops = 32

// ContentNodeRepo reads the content tree. It is the progress engine's TreeProvider.
type ContentNodeRepo interface {
	progress.TreeProvider

	Create(dbc dbctx.Context, nodes []*types.ContentNode) ([]*types.ContentNode, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ContentNode, error)
	ListRoots(dbc dbctx.Context, variant string) ([]*progress.Node, error)
}

type contentNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentNodeRepo(db *gorm.DB, baseLog *logger.Logger) ContentNodeRepo {
	return &contentNodeRepo{db: db, log: baseLog.With("repo", "ContentNodeRepo")}
}

func (r *contentNodeRepo) Create(dbc dbctx.Context, nodes []*types.ContentNode) ([]*types.ContentNode, error) {
	if len(nodes) == 0 {
		return []*types.ContentNode{}, nil
	}
	if err := dbc.DB(r.db).Create(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *contentNodeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ContentNode, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ContentNode
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *contentNodeRepo) Node(dbc dbctx.Context, id uuid.UUID) (*progress.Node, error) {
	row, err := r.GetByID(dbc, id)
	if err != nil || row == nil {
		return nil, err
	}
	return toNode(row), nil
}

func (r *contentNodeRepo) Nodes(dbc dbctx.Context, ids []uuid.UUID) ([]*progress.Node, error) {
	out := []*progress.Node{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*types.ContentNode
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("order_key ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toNodes(rows), nil
}

func (r *contentNodeRepo) Children(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*progress.Node, error) {
	out := []*progress.Node{}
	if len(parentIDs) == 0 {
		return out, nil
	}
	var rows []*types.ContentNode
	if err := dbc.DB(r.db).
		Where("parent_id IN ?", parentIDs).
		Order("parent_id ASC, order_key ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toNodes(rows), nil
}

func (r *contentNodeRepo) Parent(dbc dbctx.Context, id uuid.UUID) (*progress.Node, error) {
	row, err := r.GetByID(dbc, id)
	if err != nil || row == nil || row.ParentID == nil {
		return nil, err
	}
	return r.Node(dbc, *row.ParentID)
}

// AncestorOfKind walks parents one level per query for all ids at once.
func (r *contentNodeRepo) AncestorOfKind(dbc dbctx.Context, ids []uuid.UUID, kind progress.Kind) (map[uuid.UUID]uuid.UUID, error) {
	out := map[uuid.UUID]uuid.UUID{}
	// cursor: origin id -> node currently inspected for it
	cursor := map[uuid.UUID]uuid.UUID{}
	for _, id := range ids {
		if id != uuid.Nil {
			cursor[id] = id
		}
	}
	for hop := 0; len(cursor) > 0 && hop < maxAncestorHops; hop++ {
		lookup := make([]uuid.UUID, 0, len(cursor))
		seen := map[uuid.UUID]bool{}
		for _, cur := range cursor {
			if !seen[cur] {
				seen[cur] = true
				lookup = append(lookup, cur)
			}
		}
		var rows []*types.ContentNode
		if err := dbc.DB(r.db).Where("id IN ?", lookup).Find(&rows).Error; err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]*types.ContentNode, len(rows))
		for _, row := range rows {
			byID[row.ID] = row
		}
		next := map[uuid.UUID]uuid.UUID{}
		for origin, cur := range cursor {
			row := byID[cur]
			switch {
			case row == nil:
			case progress.Kind(row.Kind) == kind:
				out[origin] = row.ID
			case row.ParentID != nil:
				next[origin] = *row.ParentID
			}
		}
		cursor = next
	}
	return out, nil
}

func (r *contentNodeRepo) NodesOfKind(dbc dbctx.Context, variant progress.Variant, kind progress.Kind) ([]*progress.Node, error) {
	var rows []*types.ContentNode
	if err := dbc.DB(r.db).
		Where("variant = ? AND kind = ?", string(variant), string(kind)).
		Order("order_key ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toNodes(rows), nil
}

func (r *contentNodeRepo) ListRoots(dbc dbctx.Context, variant string) ([]*progress.Node, error) {
	var rows []*types.ContentNode
	if err := dbc.DB(r.db).
		Where("variant = ? AND parent_id IS NULL", variant).
		Order("order_key ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toNodes(rows), nil
}

func toNode(row *types.ContentNode) *progress.Node {
	if row == nil {
		return nil
	}
	n := &progress.Node{
		ID:       row.ID,
		Variant:  progress.Variant(row.Variant),
		Kind:     progress.Kind(row.Kind),
		OrderKey: row.OrderKey,
		Title:    row.Title,
		Slug:     row.Slug,
	}
	if row.ParentID != nil {
		pid := *row.ParentID
		n.ParentID = &pid
	}
	return n
}

func toNodes(rows []*types.ContentNode) []*progress.Node {
	out := make([]*progress.Node, 0, len(rows))
	for _, row := range rows {
		out = append(out, toNode(row))
	}
	return out
}
