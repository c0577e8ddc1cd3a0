package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursetrack-backend/internal/domain/tracking"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func TestFavoriteMarkRepoTablesAreIndependent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	dictTable, _ := tracking.FavoriteTable("dictionary_item")
	phraseTable, _ := tracking.FavoriteTable("trainer_phrase")
	dict := NewFavoriteMarkRepo(db, testutil.Logger(t), dictTable)
	phrases := NewFavoriteMarkRepo(db, testutil.Logger(t), phraseTable)

	user := uuid.New()
	item := uuid.New()

	if changed, err := dict.Set(dbc, user, item, true); err != nil || !changed {
		t.Fatalf("Set: changed=%v err=%v", changed, err)
	}
	if changed, err := dict.Set(dbc, user, item, true); err != nil || changed {
		t.Fatalf("Set again: changed=%v err=%v", changed, err)
	}
	if has, err := dict.Has(dbc, user, item); err != nil || !has {
		t.Fatalf("Has: has=%v err=%v", has, err)
	}
	if has, err := phrases.Has(dbc, user, item); err != nil || has {
		t.Fatalf("Has(other table): has=%v err=%v", has, err)
	}
	rows, err := dict.ListByUser(dbc, user)
	if err != nil || len(rows) != 1 || rows[0].ItemID != item {
		t.Fatalf("ListByUser: rows=%v err=%v", rows, err)
	}
	if got, err := dict.FavoritedAmong(dbc, user, []uuid.UUID{item, uuid.New()}); err != nil || len(got) != 1 {
		t.Fatalf("FavoritedAmong: got=%v err=%v", got, err)
	}
	if changed, err := dict.Set(dbc, user, item, false); err != nil || !changed {
		t.Fatalf("Set(false): changed=%v err=%v", changed, err)
	}
	if has, err := dict.Has(dbc, user, item); err != nil || has {
		t.Fatalf("Has after unset: has=%v err=%v", has, err)
	}
}
