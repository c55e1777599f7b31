package testutil

import (
	"sync"

	"github.com/yungbote/tally-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
)

// HooksRecorder keeps every aggregate write event for assertions.
type HooksRecorder struct {
	mu     sync.Mutex
	events []aggregates.WriteEvent
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) OnWrite(ev aggregates.WriteEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

// Operations counts writes named op, optionally filtered by status ("" for any).
func (h *HooksRecorder) Operations(op, status string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Op == op && (status == "" || ev.Status() == status) {
			n++
		}
	}
	return n
}

func (h *HooksRecorder) Conflicts(op string) int {
	return h.Operations(op, string(domainagg.CodeConflict))
}

func (h *HooksRecorder) Retries(op string) int {
	return h.Operations(op, string(domainagg.CodeRetryable))
}

// TotalConflicts counts conflicts across every operation.
func (h *HooksRecorder) TotalConflicts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Code == domainagg.CodeConflict {
			n++
		}
	}
	return n
}
