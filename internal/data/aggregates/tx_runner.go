package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// inSavepoint runs fn in a nested transaction of dbc.Tx. A failure rolls back to
// the savepoint and leaves the enclosing transaction usable.
func inSavepoint(dbc dbctx.Context, fn func(dbc dbctx.Context) error) error {
	if dbc.Tx == nil {
		return fn(dbc)
	}
	return dbc.Tx.Transaction(func(sp *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: sp})
	})
}
