// Package progresstest provides in-memory tree and ledger fakes for engine tests.
package progresstest

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/progress"
)

// Tree is an in-memory progress.TreeProvider.
type Tree struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]*progress.Node

	ChildrenCalls int
}

func NewTree() *Tree {
	return &Tree{nodes: map[uuid.UUID]*progress.Node{}}
}

// Add creates a node under parent (nil for a root) and returns it.
func (t *Tree) Add(variant progress.Variant, kind progress.Kind, parent *progress.Node) *progress.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := &progress.Node{
		ID:      uuid.New(),
		Variant: variant,
		Kind:    kind,
		Title:   string(kind),
	}
	if parent != nil {
		pid := parent.ID
		n.ParentID = &pid
		for _, other := range t.nodes {
			if other.ParentID != nil && *other.ParentID == pid {
				n.OrderKey++
			}
		}
	}
	t.nodes[n.ID] = n
	return n
}

func (t *Tree) Node(_ dbctx.Context, id uuid.UUID) (*progress.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[id], nil
}

func (t *Tree) Nodes(_ dbctx.Context, ids []uuid.UUID) ([]*progress.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*progress.Node, 0, len(ids))
	for _, id := range ids {
		if n := t.nodes[id]; n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (t *Tree) Children(_ dbctx.Context, parentIDs []uuid.UUID) ([]*progress.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ChildrenCalls++
	want := map[uuid.UUID]bool{}
	for _, id := range parentIDs {
		want[id] = true
	}
	var out []*progress.Node
	for _, n := range t.nodes {
		if n.ParentID != nil && want[*n.ParentID] {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if *a.ParentID != *b.ParentID {
			return a.ParentID.String() < b.ParentID.String()
		}
		if a.OrderKey != b.OrderKey {
			return a.OrderKey < b.OrderKey
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (t *Tree) Parent(_ dbctx.Context, id uuid.UUID) (*progress.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.nodes[id]
	if n == nil || n.ParentID == nil {
		return nil, nil
	}
	return t.nodes[*n.ParentID], nil
}

func (t *Tree) AncestorOfKind(_ dbctx.Context, ids []uuid.UUID, kind progress.Kind) (map[uuid.UUID]uuid.UUID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := map[uuid.UUID]uuid.UUID{}
	for _, id := range ids {
		cur := t.nodes[id]
		for hops := 0; cur != nil && hops < 64; hops++ {
			if cur.Kind == kind {
				out[id] = cur.ID
				break
			}
			if cur.ParentID == nil {
				break
			}
			cur = t.nodes[*cur.ParentID]
		}
	}
	return out, nil
}

func (t *Tree) NodesOfKind(_ dbctx.Context, variant progress.Variant, kind progress.Kind) ([]*progress.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*progress.Node
	for _, n := range t.nodes {
		if n.Variant == variant && n.Kind == kind {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Marks is an in-memory completion ledger keyed by (user, leaf).
type Marks struct {
	mu   sync.RWMutex
	done map[uuid.UUID]map[uuid.UUID]bool
}

func NewMarks() *Marks {
	return &Marks{done: map[uuid.UUID]map[uuid.UUID]bool{}}
}

// Toggle flips (user, leaf) and returns the new state.
func (m *Marks) Toggle(userID, leafID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.done[userID]
	if set == nil {
		set = map[uuid.UUID]bool{}
		m.done[userID] = set
	}
	if set[leafID] {
		delete(set, leafID)
		return false
	}
	set[leafID] = true
	return true
}

func (m *Marks) CompletedAmong(_ dbctx.Context, userID uuid.UUID, leafIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[uuid.UUID]bool{}
	for _, id := range leafIDs {
		if m.done[userID][id] {
			out[id] = true
		}
	}
	return out, nil
}

// ListRoots mirrors the catalog repo: parentless nodes of variant by order key.
func (t *Tree) ListRoots(_ dbctx.Context, variant string) ([]*progress.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*progress.Node
	for _, n := range t.nodes {
		if n.ParentID == nil && string(n.Variant) == variant {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderKey != out[j].OrderKey {
			return out[i].OrderKey < out[j].OrderKey
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
