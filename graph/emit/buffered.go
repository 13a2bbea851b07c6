package emit

import "context"
import "sync"

// BufferedEmitter stores events in memory, grouped by workflow ID.
//
// Intended for tests and interactive debugging: a caller can attach a
// BufferedEmitter and assert on History after the run completes rather
// than racing a real sink.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewBufferedEmitter returns an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends event to its workflow's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.WorkflowID] = append(b.events[event.WorkflowID], event)
}

// Flush is a no-op: events are already resident in memory.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of all events recorded for workflowID, in emit order.
func (b *BufferedEmitter) History(workflowID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	src := b.events[workflowID]
	out := make([]Event, len(src))
	copy(out, src)
	return out
}

// Clear discards history for workflowID. Clear("") discards everything.
func (b *BufferedEmitter) Clear(workflowID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if workflowID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, workflowID)
}
