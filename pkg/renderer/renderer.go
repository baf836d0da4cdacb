package renderer

import (
	"log/slog"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/errors"
	"github.com/go-drift/viewkit/pkg/instrument"
	"github.com/go-drift/viewkit/pkg/scheduler"
)

const (
	opRenderTopLevelView   = "renderTopLevelView"
	opRenderElementRemoval = "renderElementRemoval"
	opTeardown             = "teardown"
)

// DOMHelper produces the render targets views are attached through.
type DOMHelper interface {
	AppendMorph(container core.Node) (core.RenderTarget, error)
	ReplaceContentWithMorph(container core.Node) (core.RenderTarget, error)
	CreateFragmentMorph() (core.RenderTarget, error)
}

// Pipeline turns a view's layout and template into a rendered result.
type Pipeline interface {
	ComposeBlock(info core.ComponentInfo, attrs core.Attrs, opts core.BlockOptions) (core.Block, error)
	RenderBlock(block core.Block, target core.RenderTarget) (core.RenderResult, error)
}

// Scheduler defers work into named passes.
type Scheduler interface {
	Schedule(pass string, key scheduler.Key, fn scheduler.Task) error
	ScheduleOnce(pass string, key scheduler.Key, fn scheduler.Task) error
}

// Notification is a lifecycle event delivered to a view.
type Notification struct {
	View  *core.View
	Event core.Event
}

// Observer is told about every notification after the view itself.
type Observer func(Notification)

// Renderer is the view lifecycle coordinator.
type Renderer struct {
	dom       DOMHelper
	pipeline  Pipeline
	loop      Scheduler
	instr     *instrument.Instrumenter
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInstrumenter sets the instrumenter used for element creation spans.
func WithInstrumenter(in *instrument.Instrumenter) Option {
	return func(r *Renderer) {
		if in != nil {
			r.instr = in
		}
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(r *Renderer) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// New creates a Renderer.
func New(dom DOMHelper, pipeline Pipeline, loop Scheduler, opts ...Option) *Renderer {
	r := &Renderer{
		dom:      dom,
		pipeline: pipeline,
		loop:     loop,
		instr:    instrument.Default,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "renderer"))
	return r
}

// AddObserver registers an observer after construction.
func (r *Renderer) AddObserver(o Observer) {
	if o != nil {
		r.observers = append(r.observers, o)
	}
}

func (r *Renderer) notify(view *core.View, event core.Event) {
	if t, ok := view.Behavior().(core.Triggerer); ok {
		t.Trigger(event)
	}
	for _, o := range r.observers {
		r.observe(o, Notification{View: view, Event: event})
	}
}

func (r *Renderer) observe(o Observer, n Notification) {
	defer errors.Recover("renderer.observer")
	o(n)
}

func precondition(op string, view *core.View, cause error) error {
	return &errors.PreconditionError{Op: op, ViewID: string(view.ID()), Cause: cause}
}
