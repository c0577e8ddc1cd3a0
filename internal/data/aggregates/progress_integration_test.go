package aggregates_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/coursetrack-backend/internal/data/aggregates/testutil"
	catalogrepo "github.com/yungbote/coursetrack-backend/internal/data/repos/catalog"
	progressrepo "github.com/yungbote/coursetrack-backend/internal/data/repos/progress"
	repotest "github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

type progressHarness struct {
	db          *gorm.DB
	dbc         dbctx.Context
	hooks       *aggtest.HooksRecorder
	completions progressrepo.CompletionMarkRepo
	done        progressrepo.DerivedDoneMarkRepo
	deps        aggregates.ProgressAggregateDeps
	agg         domainagg.ProgressAggregate
}

func newProgressHarness(t *testing.T, mutate func(*aggregates.ProgressAggregateDeps)) *progressHarness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	h := &progressHarness{
		db:          db,
		dbc:         dbctx.Context{Ctx: context.Background()},
		hooks:       &aggtest.HooksRecorder{},
		completions: progressrepo.NewCompletionMarkRepo(db, log),
		done:        progressrepo.NewDerivedDoneMarkRepo(db, log),
	}
	h.deps = aggregates.ProgressAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log, Hooks: h.hooks},
		Tree:        catalogrepo.NewContentNodeRepo(db, log),
		Completions: h.completions,
		DoneMarks:   h.done,
	}
	if mutate != nil {
		mutate(&h.deps)
	}
	h.agg = aggregates.NewProgressAggregate(h.deps)
	return h
}

func (h *progressHarness) toggle(t *testing.T, user, leaf uuid.UUID) domainagg.ToggleLeafResult {
	t.Helper()
	res, err := h.agg.ToggleLeaf(context.Background(), domainagg.ToggleLeafInput{UserID: user, LeafID: leaf})
	if err != nil {
		t.Fatalf("ToggleLeaf: %v", err)
	}
	return res
}

func (h *progressHarness) hasDone(t *testing.T, user, node uuid.UUID) bool {
	t.Helper()
	ok, err := h.done.Exists(h.dbc, user, node)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	return ok
}

func TestProgressAggregateDoubleToggleIsIdentity(t *testing.T) {
	h := newProgressHarness(t, nil)
	lt := repotest.SeedLessonTree(t, h.dbc, h.db, 1)
	user := uuid.New()

	first := h.toggle(t, user, lt.Blocks[0].ID)
	if !first.Completed || first.Attempts != 1 {
		t.Fatalf("first toggle: want completed in 1 attempt got=%+v", first)
	}
	if !first.ScopeDone || first.ScopeID != lt.Lesson.ID {
		t.Fatalf("first toggle: want lesson %s done got=%+v", lt.Lesson.ID, first)
	}
	second := h.toggle(t, user, lt.Blocks[0].ID)
	if second.Completed {
		t.Fatalf("second toggle: want incomplete")
	}
	if has, _ := h.completions.Has(h.dbc, user, lt.Blocks[0].ID); has {
		t.Fatalf("ledger: mark should be gone")
	}
	if h.hasDone(t, user, lt.Lesson.ID) {
		t.Fatalf("done mark should be gone after untoggle")
	}
	if got := h.hooks.Count("progress.toggle_leaf", "success"); got != 2 {
		t.Fatalf("success ops: want=2 got=%d", got)
	}
}

func TestProgressAggregateLessonScenario(t *testing.T) {
	h := newProgressHarness(t, nil)
	lt := repotest.SeedLessonTree(t, h.dbc, h.db, 3)
	user := uuid.New()

	want := []int{33, 66, 100}
	for i, b := range lt.Blocks {
		res := h.toggle(t, user, b.ID)
		if res.Scope == nil {
			t.Fatalf("toggle %d: missing scope progress", i)
		}
		if res.Scope.Percent != want[i] {
			t.Fatalf("toggle %d: percent want=%d got=%d", i, want[i], res.Scope.Percent)
		}
		if res.ScopeDone != (i == 2) || h.hasDone(t, user, lt.Lesson.ID) != (i == 2) {
			t.Fatalf("toggle %d: done flag/mark mismatch res=%v", i, res.ScopeDone)
		}
	}

	res := h.toggle(t, user, lt.Blocks[1].ID)
	if res.Completed || res.ScopeDone || res.Scope.Percent != 66 {
		t.Fatalf("untoggle: got=%+v scope=%+v", res, res.Scope)
	}
	if h.hasDone(t, user, lt.Lesson.ID) {
		t.Fatalf("untoggle: lesson done mark should be removed")
	}
	// levels above the materialized scope are never cached
	if h.hasDone(t, user, lt.Level.ID) || h.hasDone(t, user, lt.Course.ID) {
		t.Fatalf("only the lesson level is materialized")
	}
}

func TestProgressAggregateTrainerCascade(t *testing.T) {
	h := newProgressHarness(t, nil)
	tt := repotest.SeedTrainerTree(t, h.dbc, h.db, 2)
	user := uuid.New()

	r1 := h.toggle(t, user, tt.Topics[0].ID)
	if r1.ScopeDone || r1.ScopeID != tt.Level.ID || r1.Scope.Percent != 50 {
		t.Fatalf("first topic: got=%+v", r1)
	}
	r2 := h.toggle(t, user, tt.Topics[1].ID)
	if !r2.ScopeDone {
		t.Fatalf("second topic: level should be done")
	}
	marks, err := h.done.ListByUser(h.dbc, user, "level")
	if err != nil || len(marks) != 1 || marks[0].NodeID != tt.Level.ID {
		t.Fatalf("level marks: marks=%v err=%v", marks, err)
	}
	if other := uuid.New(); h.hasDone(t, other, tt.Level.ID) {
		t.Fatalf("done marks leak across users")
	}
}

func TestProgressAggregateRejectsBadTargets(t *testing.T) {
	h := newProgressHarness(t, nil)
	lt := repotest.SeedLessonTree(t, h.dbc, h.db, 1)
	ctx := context.Background()

	_, err := h.agg.ToggleLeaf(ctx, domainagg.ToggleLeafInput{UserID: uuid.New(), LeafID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown leaf: want not_found got=%q (%v)", domainagg.CodeOf(err), err)
	}
	_, err = h.agg.ToggleLeaf(ctx, domainagg.ToggleLeafInput{UserID: uuid.New(), LeafID: lt.Lesson.ID})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("interior node: want validation got=%q (%v)", domainagg.CodeOf(err), err)
	}
	_, err = h.agg.ToggleLeaf(ctx, domainagg.ToggleLeafInput{LeafID: lt.Blocks[0].ID})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing user: want validation got=%q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestProgressAggregateConvergesUnderReordering(t *testing.T) {
	h := newProgressHarness(t, nil)
	lt := repotest.SeedLessonTree(t, h.dbc, h.db, 3)
	b := repotest.IDs(lt.Blocks)

	cases := []struct {
		name     string
		toggles  []uuid.UUID
		wantDone bool
	}{
		{"ends complete", []uuid.UUID{b[0], b[1], b[2], b[1], b[1]}, true},
		{"ends partial", []uuid.UUID{b[0], b[1], b[2], b[2], b[0], b[0]}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			var firstLedger map[uuid.UUID]bool
			for perm := 0; perm < 4; perm++ {
				seq := append([]uuid.UUID(nil), tc.toggles...)
				rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
				user := uuid.New()
				for _, leaf := range seq {
					h.toggle(t, user, leaf)
				}
				if got := h.hasDone(t, user, lt.Lesson.ID); got != tc.wantDone {
					t.Fatalf("perm %d: done mark want=%v got=%v", perm, tc.wantDone, got)
				}
				ledger, err := h.completions.CompletedAmong(h.dbc, user, b)
				if err != nil {
					t.Fatalf("CompletedAmong: %v", err)
				}
				if firstLedger == nil {
					firstLedger = ledger
					continue
				}
				if len(ledger) != len(firstLedger) {
					t.Fatalf("perm %d: ledger differs want=%v got=%v", perm, firstLedger, ledger)
				}
				for id := range firstLedger {
					if !ledger[id] {
						t.Fatalf("perm %d: ledger differs want=%v got=%v", perm, firstLedger, ledger)
					}
				}
			}
		})
	}
}

func TestProgressAggregateConcurrentTogglesAlternate(t *testing.T) {
	h := newProgressHarness(t, func(d *aggregates.ProgressAggregateDeps) {
		d.Base.Retry = aggregates.RetryPolicy{MaxAttempts: 8}
	})
	tt := repotest.SeedTrainerTree(t, h.dbc, h.db, 1)
	user := uuid.New()
	leaf := tt.Topics[0].ID

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		trues    int
		errsSeen []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.agg.ToggleLeaf(context.Background(), domainagg.ToggleLeafInput{UserID: user, LeafID: leaf})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errsSeen = append(errsSeen, err)
				return
			}
			if res.Completed {
				trues++
			}
		}()
	}
	wg.Wait()

	if len(errsSeen) > 0 {
		t.Fatalf("concurrent toggles failed: %v", errsSeen)
	}
	if trues != n/2 {
		t.Fatalf("alternation: want %d completions got=%d", n/2, trues)
	}
	ids, err := h.completions.ListByUser(h.dbc, user)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("even number of toggles must leave no mark, got %d", len(ids))
	}
	if h.hasDone(t, user, tt.Level.ID) {
		t.Fatalf("done mark must match the final ledger")
	}
}

type failingDoneMarks struct {
	progressrepo.DerivedDoneMarkRepo
	err error
}

func (f failingDoneMarks) Put(dbctx.Context, uuid.UUID, uuid.UUID, string) (bool, error) {
	return false, f.err
}

func (f failingDoneMarks) Remove(dbctx.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, f.err
}

func TestProgressAggregateCascadeFailureKeepsLeafToggle(t *testing.T) {
	h := newProgressHarness(t, func(d *aggregates.ProgressAggregateDeps) {
		d.DoneMarks = failingDoneMarks{DerivedDoneMarkRepo: d.DoneMarks, err: errors.New("cache write failed")}
	})
	tt := repotest.SeedTrainerTree(t, h.dbc, h.db, 1)
	user := uuid.New()

	res := h.toggle(t, user, tt.Topics[0].ID)
	if !res.Completed || !res.CascadePending {
		t.Fatalf("degraded toggle: want completed+pending got=%+v", res)
	}
	if res.Scope != nil {
		t.Fatalf("degraded toggle: scope must be unset")
	}
	if has, _ := h.completions.Has(h.dbc, user, tt.Topics[0].ID); !has {
		t.Fatalf("leaf toggle must survive cascade failure")
	}
	if h.hasDone(t, user, tt.Level.ID) {
		t.Fatalf("no done mark expected while cascade is pending")
	}
	if len(h.hooks.Degraded) != 1 {
		t.Fatalf("degraded hook: want=1 got=%d", len(h.hooks.Degraded))
	}

	// a healthy aggregate repairs the cache
	healthy := newProgressHarness(t, nil)
	rec, err := healthy.agg.Reconcile(context.Background(), domainagg.ReconcileInput{UserID: user})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if rec.Created != 1 || !h.hasDone(t, user, tt.Level.ID) {
		t.Fatalf("Reconcile: want 1 created got=%+v", rec)
	}
}

func TestProgressAggregateRetriesTransientCommitFailure(t *testing.T) {
	var runner *aggtest.InjectedTxRunner
	h := newProgressHarness(t, func(d *aggregates.ProgressAggregateDeps) {
		runner = &aggtest.InjectedTxRunner{DB: d.Base.DB, FailCommit: errors.New("database is locked"), FailCommitTimes: 1}
		d.Base.Runner = runner
	})
	tt := repotest.SeedTrainerTree(t, h.dbc, h.db, 2)
	user := uuid.New()

	res := h.toggle(t, user, tt.Topics[0].ID)
	if !res.Completed || res.Attempts != 2 {
		t.Fatalf("want completed on attempt 2 got=%+v", res)
	}
	if runner.RollbackCalls != 1 || runner.CommitCalls != 1 {
		t.Fatalf("runner: rollback=%d commit=%d", runner.RollbackCalls, runner.CommitCalls)
	}
	ids, _ := h.completions.ListByUser(h.dbc, user)
	if len(ids) != 1 {
		t.Fatalf("rolled-back attempt must not leave a row, got %d", len(ids))
	}
	if len(h.hooks.Retries) != 1 {
		t.Fatalf("retry hook: want=1 got=%d", len(h.hooks.Retries))
	}
}

func TestProgressAggregateReconcileRepairsDrift(t *testing.T) {
	h := newProgressHarness(t, nil)
	done := repotest.SeedLessonTree(t, h.dbc, h.db, 2)
	empty := repotest.SeedLessonTree(t, h.dbc, h.db, 2)
	user := uuid.New()
	ctx := context.Background()

	for _, b := range done.Blocks {
		h.toggle(t, user, b.ID)
	}
	// simulate a lost cascade plus a stale mark
	if _, err := h.done.Remove(h.dbc, user, done.Lesson.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := h.done.Put(h.dbc, user, empty.Lesson.ID, "lesson"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	audit, err := h.agg.Reconcile(ctx, domainagg.ReconcileInput{UserID: user, DryRun: true})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit.Drift) != 2 || audit.Created != 0 || audit.Removed != 0 || audit.Checked != 2 {
		t.Fatalf("audit: got=%+v", audit)
	}
	if h.hasDone(t, user, done.Lesson.ID) {
		t.Fatalf("dry run must not write")
	}

	rec, err := h.agg.Reconcile(ctx, domainagg.ReconcileInput{UserID: user})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if rec.Created != 1 || rec.Removed != 1 {
		t.Fatalf("Reconcile: got=%+v", rec)
	}
	if !h.hasDone(t, user, done.Lesson.ID) || h.hasDone(t, user, empty.Lesson.ID) {
		t.Fatalf("Reconcile: cache not repaired")
	}

	again, err := h.agg.Reconcile(ctx, domainagg.ReconcileInput{UserID: user, DryRun: true})
	if err != nil || len(again.Drift) != 0 {
		t.Fatalf("second audit: drift=%v err=%v", again.Drift, err)
	}

	scoped, err := h.agg.Reconcile(ctx, domainagg.ReconcileInput{UserID: user, ScopeIDs: []uuid.UUID{empty.Lesson.ID}, DryRun: true})
	if err != nil || scoped.Checked != 1 {
		t.Fatalf("scoped audit: got=%+v err=%v", scoped, err)
	}
}
