package scheduler

import (
	"errors"
	"fmt"
	"sync"
)

// Well-known pass names, in default flush order.
const (
	PassActions     = "actions"
	PassRender      = "render"
	PassAfterRender = "afterRender"
	PassDestroy     = "destroy"
)

// DefaultPasses is the pass order used by NewRunLoop when none is given.
var DefaultPasses = []string{PassActions, PassRender, PassAfterRender, PassDestroy}

var (
	// ErrUnknownPass is returned when scheduling into a pass the loop does not have.
	ErrUnknownPass = errors.New("scheduler: unknown pass")
	// ErrReentrantFlush is returned when Flush is called from within a task.
	ErrReentrantFlush = errors.New("scheduler: cannot flush from within a task")
)

// Key identifies a task for deduplication. Target must be comparable,
// typically a pointer.
type Key struct {
	Target any
	Op     string
}

// Task is a unit of deferred work.
type Task func() error

type entry struct {
	key  Key
	fn   Task
	once bool
}

type queue struct {
	name    string
	entries []*entry
	once    map[Key]*entry
}

// RunLoop holds deferred tasks in named passes until flushed.
type RunLoop struct {
	mu       sync.Mutex
	queues   []*queue
	byName   map[string]*queue
	pending  int
	flushing bool

	// OnNeedsFlush is called when a task lands in an empty loop, signalling
	// the host that a flush should be arranged.
	OnNeedsFlush func()
}

// NewRunLoop creates a loop with the given passes, or DefaultPasses.
func NewRunLoop(passes ...string) *RunLoop {
	if len(passes) == 0 {
		passes = DefaultPasses
	}
	l := &RunLoop{byName: make(map[string]*queue, len(passes))}
	for _, name := range passes {
		if _, dup := l.byName[name]; dup {
			continue
		}
		q := &queue{name: name, once: make(map[Key]*entry)}
		l.queues = append(l.queues, q)
		l.byName[name] = q
	}
	return l
}

// Passes returns the pass names in flush order.
func (l *RunLoop) Passes() []string {
	names := make([]string, len(l.queues))
	for i, q := range l.queues {
		names[i] = q.name
	}
	return names
}

// Schedule appends fn to pass unconditionally.
func (l *RunLoop) Schedule(pass string, key Key, fn Task) error {
	return l.enqueue(pass, key, fn, false)
}

// ScheduleOnce adds fn to pass unless a task with the same key is already
// waiting there, in which case the waiting task keeps its position and
// runs fn instead.
func (l *RunLoop) ScheduleOnce(pass string, key Key, fn Task) error {
	return l.enqueue(pass, key, fn, true)
}

func (l *RunLoop) enqueue(pass string, key Key, fn Task, once bool) error {
	if fn == nil {
		return nil
	}
	wasEmpty, err := func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		q, ok := l.byName[pass]
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrUnknownPass, pass)
		}
		if once {
			if existing, ok := q.once[key]; ok {
				existing.fn = fn
				return false, nil
			}
		}
		e := &entry{key: key, fn: fn, once: once}
		if once {
			q.once[key] = e
		}
		q.entries = append(q.entries, e)
		l.pending++
		return l.pending == 1, nil
	}()
	if err != nil {
		return err
	}
	if wasEmpty && l.OnNeedsFlush != nil {
		l.OnNeedsFlush()
	}
	return nil
}

// Pending returns the number of queued tasks across all passes.
func (l *RunLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// PendingIn returns the number of tasks queued in pass.
func (l *RunLoop) PendingIn(pass string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if q, ok := l.byName[pass]; ok {
		return len(q.entries)
	}
	return 0
}

// Flush runs queued tasks until every pass is empty. It always resumes from
// the earliest pass holding work. The first task error stops the flush and
// is returned as is; tasks not yet run stay queued.
func (l *RunLoop) Flush() error {
	l.mu.Lock()
	if l.flushing {
		l.mu.Unlock()
		return ErrReentrantFlush
	}
	l.flushing = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.flushing = false
		l.mu.Unlock()
	}()

	for {
		q, batch := l.takeEarliest()
		if q == nil {
			return nil
		}
		for i, e := range batch {
			if err := e.fn(); err != nil {
				l.requeue(q, batch[i+1:])
				return err
			}
		}
	}
}

// Run calls fn and then flushes. Inside a running flush, fn's tasks are
// left to the outer flush.
func (l *RunLoop) Run(fn func() error) error {
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	l.mu.Lock()
	nested := l.flushing
	l.mu.Unlock()
	if nested {
		return nil
	}
	return l.Flush()
}

func (l *RunLoop) takeEarliest() (*queue, []*entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, q := range l.queues {
		if len(q.entries) == 0 {
			continue
		}
		batch := q.entries
		q.entries = nil
		clear(q.once)
		l.pending -= len(batch)
		return q, batch
	}
	return nil, nil
}

// requeue puts unrun entries back at the front of q.
func (l *RunLoop) requeue(q *queue, rest []*entry) {
	if len(rest) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := make([]*entry, 0, len(rest)+len(q.entries))
	for _, e := range rest {
		if e.once {
			if newer, ok := q.once[e.key]; ok && newer != e {
				// A ScheduleOnce for the same key arrived during the failed
				// batch; keep the original position with the newest function.
				e.fn = newer.fn
				q.entries = removeEntry(q.entries, newer)
				l.pending--
			}
			q.once[e.key] = e
		}
		merged = append(merged, e)
	}
	merged = append(merged, q.entries...)
	q.entries = merged
	l.pending += len(rest)
}

func removeEntry(entries []*entry, target *entry) []*entry {
	for i, e := range entries {
		if e == target {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}
