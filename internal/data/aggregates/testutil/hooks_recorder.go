package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/coursetrack-backend/internal/data/aggregates"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
	Degraded   []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     name,
		Status:   status,
		Duration: dur,
	})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

func (h *HooksRecorder) IncDegraded(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Degraded = append(h.Degraded, name)
}

// Count returns how many operations named name finished with status.
func (h *HooksRecorder) Count(name, status string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, op := range h.Operations {
		if op.Name == name && op.Status == status {
			n++
		}
	}
	return n
}
