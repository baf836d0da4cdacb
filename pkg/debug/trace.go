package debug

import (
	"sync"
	"time"

	"github.com/go-drift/viewkit/pkg/renderer"
)

const lifecycleTraceDefault = 512

// LifecycleEvent is one recorded notification.
type LifecycleEvent struct {
	Seq       int64  `json:"seq"`
	Timestamp int64  `json:"ts"`
	View      string `json:"view"`
	Tag       string `json:"tag"`
	Event     string `json:"event"`
	State     string `json:"state"`
}

// Timeline is the /lifecycle response shape.
type Timeline struct {
	Events []LifecycleEvent `json:"events"`
	Total  int64            `json:"total"`
}

// Trace stores recent lifecycle events in a ring buffer.
type Trace struct {
	mu     sync.RWMutex
	events []LifecycleEvent
	index  int
	count  int
	total  int64
	now    func() time.Time
}

// NewTrace creates a trace holding up to capacity events.
func NewTrace(capacity int) *Trace {
	if capacity <= 0 {
		capacity = lifecycleTraceDefault
	}
	return &Trace{
		events: make([]LifecycleEvent, capacity),
		now:    time.Now,
	}
}

// Capacity returns the buffer capacity.
func (t *Trace) Capacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// Record converts n to a LifecycleEvent and adds it.
func (t *Trace) Record(n renderer.Notification) LifecycleEvent {
	ev := LifecycleEvent{
		Timestamp: t.now().UnixMilli(),
		View:      string(n.View.ID()),
		Tag:       n.View.Behavior().TagName(),
		Event:     string(n.Event),
		State:     n.View.State().String(),
	}
	return t.Add(ev)
}

// Add stores ev, assigning its sequence number.
func (t *Trace) Add(ev LifecycleEvent) LifecycleEvent {
	t.mu.Lock()
	t.total++
	ev.Seq = t.total
	t.events[t.index] = ev
	t.index = (t.index + 1) % len(t.events)
	if t.count < len(t.events) {
		t.count++
	}
	t.mu.Unlock()
	return ev
}

// Snapshot returns a chronological copy of the buffered events.
func (t *Trace) Snapshot() Timeline {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.count == 0 {
		return Timeline{Events: []LifecycleEvent{}, Total: t.total}
	}

	result := make([]LifecycleEvent, t.count)
	if t.count < len(t.events) {
		copy(result, t.events[:t.count])
	} else {
		copy(result, t.events[t.index:])
		copy(result[len(t.events)-t.index:], t.events[:t.index])
	}
	return Timeline{Events: result, Total: t.total}
}
