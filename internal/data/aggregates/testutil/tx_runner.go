package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

// InjectedTxRunner is a TxRunner with failure injection for aggregate tests.
// With DB set the body runs in a real transaction that is rolled back whenever
// a failure is injected; without DB the body gets a context with no Tx.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error
	// FailCommitTimes limits FailCommit to the first N transactions (0 = always).
	FailCommitTimes int

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	call := r.BeginCalls
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	if r.FailCommitTimes > 0 && call > r.FailCommitTimes {
		failCommit = nil
	}
	db := r.DB
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.count(&r.RollbackCalls)
		return failBeforeBody
	}
	if fn == nil {
		r.count(&r.CommitCalls)
		return nil
	}

	body := func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		return failCommit
	}
	var err error
	if db != nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}
	if err != nil {
		r.count(&r.RollbackCalls)
		return err
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) count(c *int) {
	r.mu.Lock()
	*c++
	r.mu.Unlock()
}
