package progress

import (
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

var (
	ErrNodeNotFound = errors.New("progress: node not found")
	ErrNotLeaf      = errors.New("progress: node is not a leaf")
	ErrNoScope      = errors.New("progress: leaf has no materialized ancestor")
)

// Node is the engine's read-only view of a content tree node.
type Node struct {
	ID       uuid.UUID  `json:"id"`
	Variant  Variant    `json:"variant"`
	Kind     Kind       `json:"kind"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
	OrderKey int        `json:"orderKey"`
	Title    string     `json:"title"`
	Slug     string     `json:"slug,omitempty"`
}

// TreeProvider is the read contract over the content catalog.
// Results must be deterministic for a fixed catalog snapshot.
type TreeProvider interface {
	// Node returns nil, nil when id is unknown.
	Node(dbc dbctx.Context, id uuid.UUID) (*Node, error)
	Nodes(dbc dbctx.Context, ids []uuid.UUID) ([]*Node, error)
	// Children returns the direct children of every parent, ordered by
	// (parent_id, order_key, id).
	Children(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*Node, error)
	// Parent returns nil, nil for roots and unknown ids.
	Parent(dbc dbctx.Context, id uuid.UUID) (*Node, error)
	// AncestorOfKind maps each id to its closest ancestor (or itself) of kind.
	// Ids without such an ancestor are absent from the result.
	AncestorOfKind(dbc dbctx.Context, ids []uuid.UUID, kind Kind) (map[uuid.UUID]uuid.UUID, error)
	NodesOfKind(dbc dbctx.Context, variant Variant, kind Kind) ([]*Node, error)
}

// CompletionReader is the batched read side of the completion ledger.
type CompletionReader interface {
	CompletedAmong(dbc dbctx.Context, userID uuid.UUID, leafIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}
