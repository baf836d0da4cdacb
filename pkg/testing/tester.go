package testing

import (
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/dom"
	"github.com/go-drift/viewkit/pkg/errors"
	"github.com/go-drift/viewkit/pkg/instrument"
	"github.com/go-drift/viewkit/pkg/renderer"
	"github.com/go-drift/viewkit/pkg/scheduler"
	"github.com/go-drift/viewkit/pkg/template"
)

// ErrPumpLimit is returned when PumpUntilIdle keeps finding new work.
var ErrPumpLimit = stderrors.New("PumpUntilIdle: run loop did not drain")

// ViewTester wires a document, run loop, render pipeline and renderer
// together and records every lifecycle notification.
type ViewTester struct {
	registry *core.Registry
	doc      *dom.Document
	loop     *scheduler.RunLoop
	pipeline *template.Pipeline
	renderer *renderer.Renderer
	instr    *instrument.Instrumenter
	spans    *instrument.Recorder
	sub      *instrument.Subscription
	clock    *FakeClock
	roots    []*core.View
	events   []renderer.Notification
}

// Option configures a ViewTester.
type Option func(*config)

type config struct {
	logger *slog.Logger
	passes []string
}

// WithLogger routes renderer debug output to logger. Output is discarded
// by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithPasses sets the run loop passes.
func WithPasses(passes ...string) Option {
	return func(c *config) { c.passes = passes }
}

// NewViewTester creates a tester with an empty document.
// Call Cleanup() when done, or use NewViewTesterWithT() instead.
func NewViewTester(opts ...Option) *ViewTester {
	cfg := &config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	t := &ViewTester{
		registry: core.NewRegistry(),
		doc:      dom.NewDocument(),
		loop:     scheduler.NewRunLoop(cfg.passes...),
		instr:    instrument.New(),
		spans:    &instrument.Recorder{},
		clock:    NewFakeClock(),
	}
	t.instr.SetClock(t.clock.Now)
	sub, err := t.instr.Subscribe("render.*", t.spans)
	if err != nil {
		errors.Report(&errors.ViewError{Op: "viewtest.Subscribe", Kind: errors.KindConfig, Err: err})
	}
	t.sub = sub
	t.pipeline = template.NewPipeline(t.doc)
	t.renderer = renderer.New(t.doc, t.pipeline, t.loop,
		renderer.WithLogger(cfg.logger),
		renderer.WithInstrumenter(t.instr),
		renderer.WithObserver(t.record),
	)
	t.pipeline.SetHooks(t.renderer)
	return t
}

// NewViewTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewViewTesterWithT(t *testing.T, opts ...Option) *ViewTester {
	tester := NewViewTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup tears down mounted views and drops the span subscription.
func (t *ViewTester) Cleanup() {
	for _, root := range t.roots {
		if root.IsTerminal() {
			continue
		}
		if err := t.renderer.Destroy(root); err != nil {
			errors.Report(&errors.ViewError{Op: "viewtest.Cleanup", Kind: errors.KindRender, ViewID: string(root.ID()), Err: err})
		}
	}
	if err := t.loop.Flush(); err != nil {
		errors.Report(&errors.ViewError{Op: "viewtest.Cleanup", Kind: errors.KindScheduler, Err: err})
	}
	t.roots = nil
	if t.sub != nil {
		t.instr.Unsubscribe(t.sub)
		t.sub = nil
	}
}

func (t *ViewTester) record(n renderer.Notification) {
	t.events = append(t.events, n)
}

// Registry returns the registry views are created in.
func (t *ViewTester) Registry() *core.Registry { return t.registry }

// Document returns the document views render into.
func (t *ViewTester) Document() *dom.Document { return t.doc }

// Loop returns the run loop.
func (t *ViewTester) Loop() *scheduler.RunLoop { return t.loop }

// Renderer returns the renderer under test.
func (t *ViewTester) Renderer() *renderer.Renderer { return t.renderer }

// Instrumenter returns the tester's instrumenter.
func (t *ViewTester) Instrumenter() *instrument.Instrumenter { return t.instr }

// Clock returns the fake clock driving span timings.
func (t *ViewTester) Clock() *FakeClock { return t.clock }

// NewView creates a view in the tester's registry.
func (t *ViewTester) NewView(behavior core.Behavior, children ...*core.View) *core.View {
	return t.registry.NewView(behavior, children...)
}

// Mount appends view to the document body and pumps the render pass.
func (t *ViewTester) Mount(view *core.View) error {
	if err := t.renderer.AppendTo(view, t.doc.Body()); err != nil {
		return err
	}
	t.roots = append(t.roots, view)
	return t.Pump()
}

// Pump flushes the run loop once.
func (t *ViewTester) Pump() error {
	return t.loop.Flush()
}

// PumpUntilIdle flushes until no work is pending, at most limit times.
// Observers that schedule more work from inside a flush are drained here.
func (t *ViewTester) PumpUntilIdle(limit int) error {
	for range limit {
		if err := t.loop.Flush(); err != nil {
			return err
		}
		if t.loop.Pending() == 0 {
			return nil
		}
	}
	return ErrPumpLimit
}

// Events returns every notification recorded so far.
func (t *ViewTester) Events() []renderer.Notification {
	return append([]renderer.Notification(nil), t.events...)
}

// EventsFor returns the events view received, in order.
func (t *ViewTester) EventsFor(view *core.View) []core.Event {
	var out []core.Event
	for _, n := range t.events {
		if n.View == view {
			out = append(out, n.Event)
		}
	}
	return out
}

// Saw reports whether view received event.
func (t *ViewTester) Saw(view *core.View, event core.Event) bool {
	for _, n := range t.events {
		if n.View == view && n.Event == event {
			return true
		}
	}
	return false
}

// ResetEvents forgets the recorded notifications.
func (t *ViewTester) ResetEvents() {
	t.events = nil
}

// Spans returns the element creation spans recorded so far.
func (t *ViewTester) Spans() []instrument.Span {
	return t.spans.Spans()
}

// Roots returns the views mounted through Mount.
func (t *ViewTester) Roots() []*core.View {
	return t.roots
}

// Find evaluates a finder against every mounted root.
func (t *ViewTester) Find(finder Finder) FinderResult {
	var views []*core.View
	for _, root := range t.roots {
		views = append(views, finder.Evaluate(root)...)
	}
	return FinderResult{views: views, finder: finder}
}
