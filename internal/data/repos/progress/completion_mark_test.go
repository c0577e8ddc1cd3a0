package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func TestCompletionMarkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCompletionMarkRepo(db, testutil.Logger(t))

	user := uuid.New()
	other := uuid.New()
	leafA, leafB := uuid.New(), uuid.New()

	if has, err := repo.Has(dbc, user, leafA); err != nil || has {
		t.Fatalf("Has(empty): has=%v err=%v", has, err)
	}
	if changed, err := repo.Set(dbc, user, leafA, true); err != nil || !changed {
		t.Fatalf("Set(true): changed=%v err=%v", changed, err)
	}
	// idempotent: second insert is a no-op, not a unique violation
	if changed, err := repo.Set(dbc, user, leafA, true); err != nil || changed {
		t.Fatalf("Set(true) again: changed=%v err=%v", changed, err)
	}
	if has, err := repo.Has(dbc, user, leafA); err != nil || !has {
		t.Fatalf("Has: has=%v err=%v", has, err)
	}
	if has, err := repo.Has(dbc, other, leafA); err != nil || has {
		t.Fatalf("Has(other user): has=%v err=%v", has, err)
	}
	if _, err := repo.Set(dbc, user, leafB, true); err != nil {
		t.Fatalf("Set(leafB): %v", err)
	}

	got, err := repo.CompletedAmong(dbc, user, []uuid.UUID{leafA, leafB, uuid.New()})
	if err != nil || len(got) != 2 || !got[leafA] || !got[leafB] {
		t.Fatalf("CompletedAmong: got=%v err=%v", got, err)
	}
	if ids, err := repo.ListByUser(dbc, user); err != nil || len(ids) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(ids))
	}

	if changed, err := repo.Set(dbc, user, leafA, false); err != nil || !changed {
		t.Fatalf("Set(false): changed=%v err=%v", changed, err)
	}
	if changed, err := repo.Set(dbc, user, leafA, false); err != nil || changed {
		t.Fatalf("Set(false) again: changed=%v err=%v", changed, err)
	}

	ids, err := repo.ListUserIDs(dbc, uuid.Nil, 10000)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	found := false
	for i, id := range ids {
		if id == user {
			found = true
		}
		if i > 0 && ids[i-1].String() >= id.String() {
			t.Fatalf("ListUserIDs: not strictly ascending at %d", i)
		}
	}
	if !found {
		t.Fatalf("ListUserIDs: user %s missing", user)
	}
	after, err := repo.ListUserIDs(dbc, user, 10)
	if err != nil {
		t.Fatalf("ListUserIDs(after): %v", err)
	}
	for _, id := range after {
		if id == user {
			t.Fatalf("ListUserIDs(after): cursor row repeated")
		}
	}
}
