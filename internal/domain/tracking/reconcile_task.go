package tracking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ReconcileTask asks for the done mark of one (user, scope) pair to be
// recomputed. A nil ScopeID means every scope of the user.
type ReconcileTask struct {
	UserID  uuid.UUID `json:"userId"`
	ScopeID uuid.UUID `json:"scopeId"`
}

// Key is the stable string form "user:scope" used as a set member.
func (t ReconcileTask) Key() string {
	return t.UserID.String() + ":" + t.ScopeID.String()
}

func ParseReconcileTask(key string) (ReconcileTask, error) {
	userRaw, scopeRaw, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok {
		return ReconcileTask{}, fmt.Errorf("reconcile task %q: missing separator", key)
	}
	userID, err := uuid.Parse(userRaw)
	if err != nil {
		return ReconcileTask{}, fmt.Errorf("reconcile task %q: user: %w", key, err)
	}
	scopeID, err := uuid.Parse(scopeRaw)
	if err != nil {
		return ReconcileTask{}, fmt.Errorf("reconcile task %q: scope: %w", key, err)
	}
	return ReconcileTask{UserID: userID, ScopeID: scopeID}, nil
}
