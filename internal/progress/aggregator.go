package progress

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

// Aggregator computes live progress from the completion ledger.
// It never consults materialized done marks.
type Aggregator struct {
	tree   TreeProvider
	marks  CompletionReader
	shapes *Shapes
}

func NewAggregator(tree TreeProvider, marks CompletionReader, shapes *Shapes) *Aggregator {
	if shapes == nil {
		shapes = DefaultShapes()
	}
	return &Aggregator{tree: tree, marks: marks, shapes: shapes}
}

func (a *Aggregator) Shapes() *Shapes { return a.shapes }

func (a *Aggregator) Tree() TreeProvider { return a.tree }

// Aggregate returns the progress of one node for userID.
func (a *Aggregator) Aggregate(dbc dbctx.Context, userID, nodeID uuid.UUID) (Progress, error) {
	res, err := a.AggregateMany(dbc, userID, []uuid.UUID{nodeID})
	if err != nil {
		return Progress{}, err
	}
	return res[nodeID], nil
}

// AggregateMany computes progress for every requested node in one pass:
// one Children query per tree depth for all roots together, then one ledger read.
func (a *Aggregator) AggregateMany(dbc dbctx.Context, userID uuid.UUID, nodeIDs []uuid.UUID) (map[uuid.UUID]Progress, error) {
	out := map[uuid.UUID]Progress{}
	ids := dedupe(nodeIDs)
	if len(ids) == 0 {
		return out, nil
	}
	roots, err := a.tree.Nodes(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	found := make(map[uuid.UUID]bool, len(roots))
	for _, n := range roots {
		if n != nil {
			found[n.ID] = true
		}
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}

	sub, err := a.LoadSubtree(dbc, roots)
	if err != nil {
		return nil, err
	}
	completed := map[uuid.UUID]bool{}
	if leaves := sub.LeafIDs(); len(leaves) > 0 {
		completed, err = a.marks.CompletedAmong(dbc, userID, leaves)
		if err != nil {
			return nil, fmt.Errorf("load completion marks: %w", err)
		}
	}
	all := Rollup(sub, completed)
	for _, id := range ids {
		out[id] = all[id]
	}
	return out, nil
}

// LoadSubtree expands roots breadth-first down to the leaves.
func (a *Aggregator) LoadSubtree(dbc dbctx.Context, roots []*Node) (*Subtree, error) {
	sub := NewSubtree()
	var frontier []uuid.UUID
	for _, n := range roots {
		if n == nil {
			continue
		}
		leaf := a.shapes.IsLeaf(n)
		sub.Add(n, leaf)
		if !leaf {
			frontier = append(frontier, n.ID)
		}
	}
	// the deepest shape bounds the walk even if catalog data is cyclic
	maxDepth := 0
	for _, v := range a.shapes.Variants() {
		sh, _ := a.shapes.Get(v)
		if len(sh.Kinds) > maxDepth {
			maxDepth = len(sh.Kinds)
		}
	}
	for depth := 0; len(frontier) > 0 && depth < maxDepth; depth++ {
		children, err := a.tree.Children(dbc, frontier)
		if err != nil {
			return nil, fmt.Errorf("load children: %w", err)
		}
		frontier = frontier[:0]
		for _, c := range children {
			if c == nil {
				continue
			}
			if _, seen := sub.Nodes[c.ID]; seen {
				continue
			}
			leaf := a.shapes.IsLeaf(c)
			sub.Add(c, leaf)
			if !leaf {
				frontier = append(frontier, c.ID)
			}
		}
	}
	return sub, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
