package progress

import (
	"sort"

	"github.com/google/uuid"
)

// Progress is the derived completion state of one node for one user.
type Progress struct {
	NodeID        uuid.UUID `json:"nodeId"`
	Kind          Kind      `json:"kind"`
	Completed     int       `json:"completed"`
	Total         int       `json:"total"`
	Percent       int       `json:"progressPercent"`
	Done          bool      `json:"isDone"`
	DoneChildren  int       `json:"doneChildren"`
	TotalChildren int       `json:"totalChildren"`
}

// Percent is floor(completed*100/total), and 0 for an empty subtree.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return completed * 100 / total
}

// IsDone holds only for a non-empty, fully completed subtree.
func IsDone(completed, total int) bool {
	return total > 0 && completed >= total
}

// Subtree is a loaded slice of the content tree rooted at one or more nodes.
// Parent links are taken from Node.ParentID; a node whose parent is not in the
// subtree acts as a root.
type Subtree struct {
	Nodes  map[uuid.UUID]*Node
	Leaves map[uuid.UUID]bool
}

func NewSubtree() *Subtree {
	return &Subtree{
		Nodes:  map[uuid.UUID]*Node{},
		Leaves: map[uuid.UUID]bool{},
	}
}

func (t *Subtree) Add(n *Node, leaf bool) {
	if n == nil || n.ID == uuid.Nil {
		return
	}
	if _, ok := t.Nodes[n.ID]; ok {
		return
	}
	t.Nodes[n.ID] = n
	if leaf {
		t.Leaves[n.ID] = true
	}
}

func (t *Subtree) LeafIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(t.Leaves))
	for id := range t.Leaves {
		out = append(out, id)
	}
	return out
}

// childIndex groups nodes under their parents, ordered by (order_key, id).
func (t *Subtree) childIndex() map[uuid.UUID][]*Node {
	idx := map[uuid.UUID][]*Node{}
	for _, n := range t.Nodes {
		if n.ParentID == nil || *n.ParentID == n.ID {
			continue
		}
		if _, ok := t.Nodes[*n.ParentID]; !ok {
			continue
		}
		idx[*n.ParentID] = append(idx[*n.ParentID], n)
	}
	for _, kids := range idx {
		sort.Slice(kids, func(i, j int) bool {
			if kids[i].OrderKey != kids[j].OrderKey {
				return kids[i].OrderKey < kids[j].OrderKey
			}
			return kids[i].ID.String() < kids[j].ID.String()
		})
	}
	return idx
}

// Rollup computes progress for every node of t given the set of completed leaves.
// A leaf counts 1 toward its ancestors' totals; interior nodes sum their children.
func Rollup(t *Subtree, completed map[uuid.UUID]bool) map[uuid.UUID]Progress {
	out := make(map[uuid.UUID]Progress, len(t.Nodes))
	children := t.childIndex()
	visiting := map[uuid.UUID]bool{}

	var walk func(id uuid.UUID) Progress
	walk = func(id uuid.UUID) Progress {
		if p, ok := out[id]; ok {
			return p
		}
		n := t.Nodes[id]
		p := Progress{NodeID: id}
		if n != nil {
			p.Kind = n.Kind
		}
		if visiting[id] {
			// cycle in catalog data; contribute nothing
			return p
		}
		visiting[id] = true
		defer delete(visiting, id)

		if t.Leaves[id] {
			p.Total = 1
			if completed[id] {
				p.Completed = 1
			}
		} else {
			for _, c := range children[id] {
				cp := walk(c.ID)
				p.Completed += cp.Completed
				p.Total += cp.Total
				p.TotalChildren++
				if cp.Done {
					p.DoneChildren++
				}
			}
		}
		p.Percent = Percent(p.Completed, p.Total)
		p.Done = IsDone(p.Completed, p.Total)
		out[id] = p
		return p
	}

	for id := range t.Nodes {
		walk(id)
	}
	return out
}
