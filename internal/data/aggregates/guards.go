package aggregates

import (
	"hash/fnv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

// ScopeLock serializes writers of one (user, scope) pair for the rest of the
// enclosing transaction. On PostgreSQL it takes a transaction-level advisory
// lock; SQLite already admits a single writer, so there it is a no-op.
type ScopeLock struct{}

func (ScopeLock) Acquire(dbc dbctx.Context, namespace string, userID, scopeID uuid.UUID) error {
	if dbc.Tx == nil {
		return nil
	}
	if userID == uuid.Nil || scopeID == uuid.Nil {
		return ValidationError("scope lock requires user and scope ids")
	}
	if dbc.Tx.Dialector == nil || dbc.Tx.Dialector.Name() != "postgres" {
		return nil
	}
	return dbc.Tx.WithContext(dbc.Ctx).
		Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey64(namespace, userID, scopeID)).Error
}

func advisoryKey64(namespace string, userID, scopeID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.TrimSpace(namespace)))
	_, _ = h.Write(userID[:])
	_, _ = h.Write(scopeID[:])
	return int64(h.Sum64())
}

// RequireChanged converts a no-op ledger write into a conflict: another writer
// got there between our read and our write.
func RequireChanged(changed bool, message string) error {
	if changed {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
