package tracking

import (
	"testing"

	"github.com/google/uuid"
)

func TestReconcileTaskKeyRoundTrip(t *testing.T) {
	task := ReconcileTask{UserID: uuid.New(), ScopeID: uuid.New()}
	got, err := ParseReconcileTask(task.Key())
	if err != nil {
		t.Fatalf("ParseReconcileTask: %v", err)
	}
	if got != task {
		t.Fatalf("want %+v, got %+v", task, got)
	}
}

func TestParseReconcileTaskRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "nope", uuid.NewString() + ":x", "x:" + uuid.NewString()} {
		if _, err := ParseReconcileTask(key); err == nil {
			t.Fatalf("expected error for %q", key)
		}
	}
}
