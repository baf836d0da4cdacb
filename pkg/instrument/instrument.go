// Package instrument provides named timing spans with pattern-based
// subscribers.
//
// Spans cost nothing unless someone subscribed: callers check
// HasSubscribers before computing span details.
package instrument

import (
	"path"
	"sync"
	"time"
)

// Listener receives span boundaries for names matching its pattern.
type Listener interface {
	// Before is called when a span starts. The returned value is handed
	// back to After.
	Before(name string, start time.Time, details map[string]any) any
	// After is called when the span ends.
	After(name string, end time.Time, details map[string]any, state any)
}

// Subscription is a registered listener.
type Subscription struct {
	pattern  string
	listener Listener
}

// Pattern returns the glob the subscription matches names against.
func (s *Subscription) Pattern() string {
	return s.pattern
}

// Instrumenter holds subscriptions.
type Instrumenter struct {
	mu   sync.RWMutex
	subs []*Subscription
	now  func() time.Time
}

// New creates an Instrumenter with no subscribers.
func New() *Instrumenter {
	return &Instrumenter{now: time.Now}
}

// Default is the process-wide instrumenter.
var Default = New()

// Subscribe registers listener for span names matching pattern, a
// path.Match glob such as "render.*".
func (in *Instrumenter) Subscribe(pattern string, listener Listener) (*Subscription, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}
	sub := &Subscription{pattern: pattern, listener: listener}
	in.mu.Lock()
	in.subs = append(in.subs, sub)
	in.mu.Unlock()
	return sub, nil
}

// SetClock replaces the time source used for span boundaries. A nil now
// restores time.Now.
func (in *Instrumenter) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	in.mu.Lock()
	in.now = now
	in.mu.Unlock()
}

// Unsubscribe removes sub. It is a no-op for unknown subscriptions.
func (in *Instrumenter) Unsubscribe(sub *Subscription) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, s := range in.subs {
		if s == sub {
			in.subs = append(in.subs[:i], in.subs[i+1:]...)
			return
		}
	}
}

// HasSubscribers reports whether any listener is registered.
func (in *Instrumenter) HasSubscribers() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.subs) > 0
}

// Start opens a span named name and returns the function that closes it.
// details is evaluated once, only if a subscriber matches.
func (in *Instrumenter) Start(name string, details func() map[string]any) func() {
	in.mu.RLock()
	var matched []*Subscription
	for _, s := range in.subs {
		if ok, _ := path.Match(s.pattern, name); ok {
			matched = append(matched, s)
		}
	}
	now := in.now
	in.mu.RUnlock()

	if len(matched) == 0 {
		return func() {}
	}

	var payload map[string]any
	if details != nil {
		payload = details()
	}
	if payload == nil {
		payload = map[string]any{}
	}

	start := now()
	states := make([]any, len(matched))
	for i, s := range matched {
		states[i] = s.listener.Before(name, start, payload)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			end := now()
			for i, s := range matched {
				s.listener.After(name, end, payload, states[i])
			}
		})
	}
}

// Subscribe registers listener on Default.
func Subscribe(pattern string, listener Listener) (*Subscription, error) {
	return Default.Subscribe(pattern, listener)
}

// Unsubscribe removes sub from Default.
func Unsubscribe(sub *Subscription) {
	Default.Unsubscribe(sub)
}

// HasSubscribers reports whether Default has listeners.
func HasSubscribers() bool {
	return Default.HasSubscribers()
}

// Start opens a span on Default.
func Start(name string, details func() map[string]any) func() {
	return Default.Start(name, details)
}
