package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

// LessonTree is course -> level -> lesson -> module -> blocks.
type LessonTree struct {
	Course *types.ContentNode
	Level  *types.ContentNode
	Lesson *types.ContentNode
	Module *types.ContentNode
	Blocks []*types.ContentNode
}

// TrainerTree is course -> level -> topics.
type TrainerTree struct {
	Course *types.ContentNode
	Level  *types.ContentNode
	Topics []*types.ContentNode
}

func SeedNode(tb testing.TB, dbc dbctx.Context, db *gorm.DB, variant, kind string, parent *types.ContentNode, order int) *types.ContentNode {
	tb.Helper()
	n := &types.ContentNode{
		ID:       uuid.New(),
		Variant:  variant,
		Kind:     kind,
		OrderKey: order,
		Title:    kind,
	}
	if parent != nil {
		n.ParentID = PtrUUID(parent.ID)
	}
	if err := dbc.DB(db).Create(n).Error; err != nil {
		tb.Fatalf("seed %s: %v", kind, err)
	}
	return n
}

func SeedLessonTree(tb testing.TB, dbc dbctx.Context, db *gorm.DB, blocks int) *LessonTree {
	tb.Helper()
	lt := &LessonTree{}
	lt.Course = SeedNode(tb, dbc, db, "lesson", "course", nil, 0)
	lt.Level = SeedNode(tb, dbc, db, "lesson", "level", lt.Course, 0)
	lt.Lesson = SeedNode(tb, dbc, db, "lesson", "lesson", lt.Level, 0)
	lt.Module = SeedNode(tb, dbc, db, "lesson", "module", lt.Lesson, 0)
	for i := 0; i < blocks; i++ {
		lt.Blocks = append(lt.Blocks, SeedNode(tb, dbc, db, "lesson", "block", lt.Module, i))
	}
	return lt
}

func SeedTrainerTree(tb testing.TB, dbc dbctx.Context, db *gorm.DB, topics int) *TrainerTree {
	tb.Helper()
	tt := &TrainerTree{}
	tt.Course = SeedNode(tb, dbc, db, "trainer", "course", nil, 0)
	tt.Level = SeedNode(tb, dbc, db, "trainer", "level", tt.Course, 0)
	for i := 0; i < topics; i++ {
		tt.Topics = append(tt.Topics, SeedNode(tb, dbc, db, "trainer", "topic", tt.Level, i))
	}
	return tt
}

func SeedItem(tb testing.TB, dbc dbctx.Context, db *gorm.DB, kind string, owner *types.ContentNode) *types.ContentItem {
	tb.Helper()
	it := &types.ContentItem{
		ID:     uuid.New(),
		Kind:   kind,
		TextEN: "hello",
		TextRU: "привет",
	}
	if owner != nil {
		it.OwnerNodeID = PtrUUID(owner.ID)
	}
	if err := dbc.DB(db).Create(it).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	return it
}

func IDs(nodes []*types.ContentNode) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
