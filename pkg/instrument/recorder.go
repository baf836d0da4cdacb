package instrument

import (
	"sync"
	"time"
)

// Span is a completed span captured by a Recorder.
type Span struct {
	Name     string
	Start    time.Time
	Duration time.Duration
	Details  map[string]any
}

// Recorder is a Listener that keeps completed spans in memory.
type Recorder struct {
	mu    sync.Mutex
	spans []Span
}

// Before implements Listener.
func (r *Recorder) Before(name string, start time.Time, details map[string]any) any {
	return start
}

// After implements Listener.
func (r *Recorder) After(name string, end time.Time, details map[string]any, state any) {
	start, _ := state.(time.Time)
	r.mu.Lock()
	r.spans = append(r.spans, Span{Name: name, Start: start, Duration: end.Sub(start), Details: details})
	r.mu.Unlock()
}

// Spans returns the completed spans in end order.
func (r *Recorder) Spans() []Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Span(nil), r.spans...)
}
