package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/progress"
)

// CatalogTree is the catalog read surface the listings need on top of the
// engine's tree contract.
type CatalogTree interface {
	progress.TreeProvider
	ListRoots(dbc dbctx.Context, variant string) ([]*progress.Node, error)
}

// NodeView is a catalog node annotated with the caller's live progress.
type NodeView struct {
	ID              uuid.UUID  `json:"id"`
	Variant         string     `json:"variant"`
	Kind            string     `json:"kind"`
	ParentID        *uuid.UUID `json:"parentId,omitempty"`
	OrderKey        int        `json:"orderKey"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug,omitempty"`
	IsLeaf          bool       `json:"isLeaf"`
	Completed       int        `json:"completed"`
	Total           int        `json:"total"`
	ProgressPercent int        `json:"progressPercent"`
	IsDone          bool       `json:"isDone"`
	DoneChildren    int        `json:"doneChildren"`
	TotalChildren   int        `json:"totalChildren"`
}

type NodeDetail struct {
	Node     NodeView   `json:"node"`
	Children []NodeView `json:"children"`
}

type CatalogService interface {
	ListRoots(dbc dbctx.Context, variant string) ([]NodeView, error)
	GetNode(dbc dbctx.Context, nodeID uuid.UUID) (*NodeDetail, error)
	ListChildren(dbc dbctx.Context, nodeID uuid.UUID) ([]NodeView, error)
	// ListDone returns the caller's materialized done node ids, optionally
	// filtered by kind.
	ListDone(dbc dbctx.Context, kind string) ([]uuid.UUID, error)
}

type catalogService struct {
	log        *logger.Logger
	tree       CatalogTree
	aggregator *progress.Aggregator
	doneMarks  repos.DerivedDoneMarkRepo
}

func NewCatalogService(log *logger.Logger, tree CatalogTree, aggregator *progress.Aggregator, doneMarks repos.DerivedDoneMarkRepo) CatalogService {
	return &catalogService{
		log:        log.With("service", "CatalogService"),
		tree:       tree,
		aggregator: aggregator,
		doneMarks:  doneMarks,
	}
}

func (s *catalogService) ListRoots(dbc dbctx.Context, variant string) ([]NodeView, error) {
	const op = "catalog.list_roots"
	userID, err := requireUser(dbc.Ctx, op)
	if err != nil {
		return nil, err
	}
	variant = strings.TrimSpace(variant)
	if _, err := s.aggregator.Shapes().Get(progress.Variant(variant)); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	roots, err := s.tree.ListRoots(dbc, variant)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return s.annotate(dbc, op, userID, roots)
}

func (s *catalogService) GetNode(dbc dbctx.Context, nodeID uuid.UUID) (*NodeDetail, error) {
	const op = "catalog.get_node"
	userID, err := requireUser(dbc.Ctx, op)
	if err != nil {
		return nil, err
	}
	node, err := s.loadNode(dbc, op, nodeID)
	if err != nil {
		return nil, err
	}
	children, err := s.tree.Children(dbc, []uuid.UUID{node.ID})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	views, err := s.annotate(dbc, op, userID, append([]*progress.Node{node}, children...))
	if err != nil {
		return nil, err
	}
	return &NodeDetail{Node: views[0], Children: views[1:]}, nil
}

func (s *catalogService) ListChildren(dbc dbctx.Context, nodeID uuid.UUID) ([]NodeView, error) {
	const op = "catalog.list_children"
	userID, err := requireUser(dbc.Ctx, op)
	if err != nil {
		return nil, err
	}
	node, err := s.loadNode(dbc, op, nodeID)
	if err != nil {
		return nil, err
	}
	children, err := s.tree.Children(dbc, []uuid.UUID{node.ID})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return s.annotate(dbc, op, userID, children)
}

func (s *catalogService) ListDone(dbc dbctx.Context, kind string) ([]uuid.UUID, error) {
	const op = "catalog.list_done"
	userID, err := requireUser(dbc.Ctx, op)
	if err != nil {
		return nil, err
	}
	marks, err := s.doneMarks.ListByUser(dbc, userID, strings.TrimSpace(kind))
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := make([]uuid.UUID, 0, len(marks))
	for _, m := range marks {
		out = append(out, m.NodeID)
	}
	return out, nil
}

func (s *catalogService) loadNode(dbc dbctx.Context, op string, nodeID uuid.UUID) (*progress.Node, error) {
	if nodeID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "node id required", nil)
	}
	node, err := s.tree.Node(dbc, nodeID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if node == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "node not found", progress.ErrNodeNotFound)
	}
	return node, nil
}

// annotate computes progress for every node in one AggregateMany pass and
// keeps the input order.
func (s *catalogService) annotate(dbc dbctx.Context, op string, userID uuid.UUID, nodes []*progress.Node) ([]NodeView, error) {
	out := make([]NodeView, 0, len(nodes))
	if len(nodes) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	prog, err := s.aggregator.AggregateMany(dbc, userID, ids)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	shapes := s.aggregator.Shapes()
	for _, n := range nodes {
		out = append(out, newNodeView(n, prog[n.ID], shapes.IsLeaf(n)))
	}
	return out, nil
}

func newNodeView(n *progress.Node, p progress.Progress, leaf bool) NodeView {
	return NodeView{
		ID:              n.ID,
		Variant:         string(n.Variant),
		Kind:            string(n.Kind),
		ParentID:        n.ParentID,
		OrderKey:        n.OrderKey,
		Title:           n.Title,
		Slug:            n.Slug,
		IsLeaf:          leaf,
		Completed:       p.Completed,
		Total:           p.Total,
		ProgressPercent: p.Percent,
		IsDone:          p.Done,
		DoneChildren:    p.DoneChildren,
		TotalChildren:   p.TotalChildren,
	}
}
