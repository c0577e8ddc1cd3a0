package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func userCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

type fakeProgressAggregate struct {
	mu sync.Mutex

	toggleResult domainagg.ToggleLeafResult
	toggleErr    error
	toggleCalls  []domainagg.ToggleLeafInput

	reconcileErr   map[uuid.UUID]error
	reconcileCalls []domainagg.ReconcileInput
}

func (f *fakeProgressAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressAggregateContract
}

func (f *fakeProgressAggregate) ToggleLeaf(_ context.Context, in domainagg.ToggleLeafInput) (domainagg.ToggleLeafResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggleCalls = append(f.toggleCalls, in)
	return f.toggleResult, f.toggleErr
}

func (f *fakeProgressAggregate) Reconcile(_ context.Context, in domainagg.ReconcileInput) (domainagg.ReconcileResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconcileCalls = append(f.reconcileCalls, in)
	if err := f.reconcileErr[in.UserID]; err != nil {
		return domainagg.ReconcileResult{UserID: in.UserID}, err
	}
	return domainagg.ReconcileResult{UserID: in.UserID, Checked: 1, Created: 1, DryRun: in.DryRun}, nil
}

func (f *fakeProgressAggregate) reconciledUsers() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, 0, len(f.reconcileCalls))
	for _, c := range f.reconcileCalls {
		out = append(out, c.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i], out[j]) })
	return out
}

type fakeFavoriteAggregate struct {
	result domainagg.ToggleFavoriteResult
	err    error
	calls  []domainagg.ToggleFavoriteInput
}

func (f *fakeFavoriteAggregate) Contract() domainagg.Contract {
	return domainagg.FavoriteAggregateContract
}

func (f *fakeFavoriteAggregate) Toggle(_ context.Context, in domainagg.ToggleFavoriteInput) (domainagg.ToggleFavoriteResult, error) {
	f.calls = append(f.calls, in)
	return f.result, f.err
}

// fakeLister serves ascending pages out of a fixed id list.
type fakeLister struct {
	ids   []uuid.UUID
	calls int
}

func newFakeLister(ids ...uuid.UUID) *fakeLister {
	cp := append([]uuid.UUID(nil), ids...)
	sort.Slice(cp, func(i, j int) bool { return lessID(cp[i], cp[j]) })
	return &fakeLister{ids: cp}
}

func (l *fakeLister) ListUserIDs(_ dbctx.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	l.calls++
	var out []uuid.UUID
	for _, id := range l.ids {
		if after != uuid.Nil && !lessID(after, id) {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeDoneMarks struct {
	marks []*types.DerivedDoneMark
}

func (f *fakeDoneMarks) Exists(dbctx.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }
func (f *fakeDoneMarks) Put(dbctx.Context, uuid.UUID, uuid.UUID, string) (bool, error) {
	return false, nil
}
func (f *fakeDoneMarks) Remove(dbctx.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }
func (f *fakeDoneMarks) ListByUser(_ dbctx.Context, userID uuid.UUID, kind string) ([]*types.DerivedDoneMark, error) {
	var out []*types.DerivedDoneMark
	for _, m := range f.marks {
		if m.UserID == userID && (kind == "" || m.NodeKind == kind) {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeDoneMarks) DoneAmong(dbctx.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]bool, error) {
	return map[uuid.UUID]bool{}, nil
}
func (f *fakeDoneMarks) ListUserIDs(dbctx.Context, uuid.UUID, int) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeItems struct {
	items map[uuid.UUID]*types.ContentItem
}

func (f *fakeItems) Create(_ dbctx.Context, items []*types.ContentItem) ([]*types.ContentItem, error) {
	return items, nil
}
func (f *fakeItems) GetByID(_ dbctx.Context, id uuid.UUID) (*types.ContentItem, error) {
	return f.items[id], nil
}
func (f *fakeItems) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	for _, id := range ids {
		if it := f.items[id]; it != nil {
			out = append(out, it)
		}
	}
	return out, nil
}
func (f *fakeItems) ListByOwner(_ dbctx.Context, kind string, ownerNodeID uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	for _, it := range f.items {
		if it.Kind == kind && it.OwnerNodeID != nil && *it.OwnerNodeID == ownerNodeID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderKey < out[j].OrderKey })
	return out, nil
}

type fakeFavoriteLedger struct {
	table      string
	marks      []*types.FavoriteMark
	amongCalls int
}

func (f *fakeFavoriteLedger) Table() string { return f.table }
func (f *fakeFavoriteLedger) Has(dbctx.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}
func (f *fakeFavoriteLedger) Set(dbctx.Context, uuid.UUID, uuid.UUID, bool) (bool, error) {
	return false, nil
}
func (f *fakeFavoriteLedger) ListByUser(_ dbctx.Context, userID uuid.UUID) ([]*types.FavoriteMark, error) {
	var out []*types.FavoriteMark
	for _, m := range f.marks {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeFavoriteLedger) FavoritedAmong(_ dbctx.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.amongCalls++
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[uuid.UUID]bool{}
	for _, m := range f.marks {
		if m.UserID == userID && want[m.ItemID] {
			out[m.ItemID] = true
		}
	}
	return out, nil
}
