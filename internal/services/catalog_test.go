package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/progress"
	"github.com/yungbote/coursetrack-backend/internal/progress/progresstest"
)

type catalogFixture struct {
	svc    CatalogService
	tree   *progresstest.Tree
	marks  *progresstest.Marks
	done   *fakeDoneMarks
	course *progress.Node
	lesson *progress.Node
	module *progress.Node
	blocks []*progress.Node
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	tree := progresstest.NewTree()
	marks := progresstest.NewMarks()
	f := &catalogFixture{tree: tree, marks: marks, done: &fakeDoneMarks{}}
	f.course = tree.Add("lesson", "course", nil)
	level := tree.Add("lesson", "level", f.course)
	f.lesson = tree.Add("lesson", "lesson", level)
	f.module = tree.Add("lesson", "module", f.lesson)
	for i := 0; i < 3; i++ {
		f.blocks = append(f.blocks, tree.Add("lesson", "block", f.module))
	}
	f.svc = NewCatalogService(logger.Nop(), tree, progress.NewAggregator(tree, marks, nil), f.done)
	return f
}

func TestCatalogListRootsCarriesProgress(t *testing.T) {
	f := newCatalogFixture(t)
	user := uuid.New()
	f.marks.Toggle(user, f.blocks[0].ID)
	f.marks.Toggle(user, f.blocks[1].ID)

	roots, err := f.svc.ListRoots(dbctx.Context{Ctx: userCtx(user)}, "lesson")
	if err != nil {
		t.Fatalf("ListRoots: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != f.course.ID {
		t.Fatalf("unexpected roots: %+v", roots)
	}
	if roots[0].ProgressPercent != 66 || roots[0].IsDone || roots[0].Total != 3 {
		t.Fatalf("unexpected root progress: %+v", roots[0])
	}

	other, err := f.svc.ListRoots(dbctx.Context{Ctx: userCtx(uuid.New())}, "lesson")
	if err != nil {
		t.Fatalf("ListRoots other user: %v", err)
	}
	if other[0].ProgressPercent != 0 {
		t.Fatalf("progress leaked across users: %+v", other[0])
	}
}

func TestCatalogGetNodeAndChildren(t *testing.T) {
	f := newCatalogFixture(t)
	user := uuid.New()
	for _, b := range f.blocks {
		f.marks.Toggle(user, b.ID)
	}
	dbc := dbctx.Context{Ctx: userCtx(user)}

	detail, err := f.svc.GetNode(dbc, f.lesson.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if !detail.Node.IsDone || detail.Node.ProgressPercent != 100 {
		t.Fatalf("lesson should be done: %+v", detail.Node)
	}
	if detail.Node.DoneChildren != 1 || detail.Node.TotalChildren != 1 {
		t.Fatalf("lesson child counts: %+v", detail.Node)
	}
	if len(detail.Children) != 1 || detail.Children[0].ID != f.module.ID || !detail.Children[0].IsDone {
		t.Fatalf("unexpected children: %+v", detail.Children)
	}

	blocks, err := f.svc.ListChildren(dbc, f.module.ID)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("want 3 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if b.ID != f.blocks[i].ID {
			t.Fatalf("block %d out of order", i)
		}
		if !b.IsLeaf || !b.IsDone || b.Total != 1 {
			t.Fatalf("unexpected block view: %+v", b)
		}
	}
}

func TestCatalogErrors(t *testing.T) {
	f := newCatalogFixture(t)
	dbc := dbctx.Context{Ctx: userCtx(uuid.New())}

	if _, err := f.svc.ListRoots(dbc, "poetry"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown variant: want validation, got %v", err)
	}
	if _, err := f.svc.GetNode(dbc, uuid.New()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing node: want not_found, got %v", err)
	}
	if _, err := f.svc.ListChildren(dbc, uuid.Nil); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("nil id: want validation, got %v", err)
	}
	if _, err := f.svc.ListRoots(dbctx.Context{Ctx: context.Background()}, "lesson"); !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("anonymous: want precondition_failed, got %v", err)
	}
}

func TestCatalogListDoneFiltersByKind(t *testing.T) {
	f := newCatalogFixture(t)
	user := uuid.New()
	lessonMark := &types.DerivedDoneMark{UserID: user, NodeID: uuid.New(), NodeKind: "lesson"}
	levelMark := &types.DerivedDoneMark{UserID: user, NodeID: uuid.New(), NodeKind: "level"}
	f.done.marks = []*types.DerivedDoneMark{
		lessonMark,
		levelMark,
		{UserID: uuid.New(), NodeID: uuid.New(), NodeKind: "lesson"},
	}
	dbc := dbctx.Context{Ctx: userCtx(user)}

	all, err := f.svc.ListDone(dbc, "")
	if err != nil {
		t.Fatalf("ListDone: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 marks, got %v", all)
	}
	lessons, err := f.svc.ListDone(dbc, "lesson")
	if err != nil {
		t.Fatalf("ListDone lesson: %v", err)
	}
	if len(lessons) != 1 || lessons[0] != lessonMark.NodeID {
		t.Fatalf("want [%s], got %v", lessonMark.NodeID, lessons)
	}
}
