package scenario

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/dom"
	"github.com/go-drift/viewkit/pkg/instrument"
	"github.com/go-drift/viewkit/pkg/renderer"
	"github.com/go-drift/viewkit/pkg/scheduler"
	"github.com/go-drift/viewkit/pkg/template"
)

var (
	// ErrAlreadyRun is returned by a second call to Run.
	ErrAlreadyRun = stderrors.New("scenario: session already ran")
	// ErrNothingToCancel is returned by a cancel step for a view with no
	// pending insertion.
	ErrNothingToCancel = stderrors.New("scenario: view has no pending insertion")
	// ErrUnexpectedEvents is returned by Report.Verify on a mismatch.
	ErrUnexpectedEvents = stderrors.New("scenario: event log does not match expect")
)

// Session plays one scenario. It is single use.
type Session struct {
	scenario  *Scenario
	registry  *core.Registry
	doc       *dom.Document
	loop      *scheduler.RunLoop
	pipeline  *template.Pipeline
	renderer  *renderer.Renderer
	instr     *instrument.Instrumenter
	spans     *instrument.Recorder
	lock      sync.Locker
	logger    *slog.Logger
	observers []renderer.Observer

	views  map[string]*core.View
	names  map[core.ID]string
	events []string
	ran    bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger handed to the renderer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLock sets the lock held while each step runs.
func WithLock(l sync.Locker) Option {
	return func(s *Session) {
		if l != nil {
			s.lock = l
		}
	}
}

// WithObserver forwards every lifecycle notification to o.
func WithObserver(o renderer.Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// NewSession builds the document and view tree for sc.
func NewSession(sc *Scenario, opts ...Option) (*Session, error) {
	doc, err := dom.Parse(sc.Markup)
	if err != nil {
		return nil, configError("scenario.NewSession", err)
	}
	s := &Session{
		scenario: sc,
		registry: core.NewRegistry(),
		doc:      doc,
		loop:     scheduler.NewRunLoop(),
		instr:    instrument.New(),
		spans:    &instrument.Recorder{},
		lock:     &sync.Mutex{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		views:    make(map[string]*core.View),
		names:    make(map[core.ID]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.instr.Subscribe("render.*", s.spans); err != nil {
		return nil, err
	}

	s.pipeline = template.NewPipeline(s.doc)
	ropts := []renderer.Option{
		renderer.WithLogger(s.logger),
		renderer.WithInstrumenter(s.instr),
		renderer.WithObserver(s.record),
	}
	for _, o := range s.observers {
		ropts = append(ropts, renderer.WithObserver(o))
	}
	s.renderer = renderer.New(s.doc, s.pipeline, s.loop, ropts...)
	s.pipeline.SetHooks(s.renderer)

	for _, spec := range sc.Views {
		s.build(spec)
	}
	return s, nil
}

// Registry returns the registry holding the scenario's views.
func (s *Session) Registry() *core.Registry { return s.registry }

// Document returns the host document.
func (s *Session) Document() *dom.Document { return s.doc }

// View returns the view declared as name, or nil.
func (s *Session) View(name string) *core.View { return s.views[name] }

func (s *Session) build(spec ViewSpec) *core.View {
	children := make([]*core.View, 0, len(spec.Children))
	for _, c := range spec.Children {
		children = append(children, s.build(c))
	}
	b := &scenarioView{name: spec.Name, tag: spec.Tag}
	if spec.Layout != "" {
		b.layout = template.New(spec.Layout)
	}
	if spec.Template != "" {
		b.template = template.New(spec.Template)
	}
	v := s.registry.NewView(b, children...)
	if len(spec.Attrs) > 0 {
		v.SetAttrs(core.Attrs(spec.Attrs))
	}
	s.views[spec.Name] = v
	s.names[v.ID()] = spec.Name
	return v
}

func (s *Session) record(n renderer.Notification) {
	name, ok := s.names[n.View.ID()]
	if !ok {
		name = string(n.View.ID())
	}
	s.events = append(s.events, name+":"+string(n.Event))
}

// Run applies every step, then flushes the run loop. The report is returned
// even when a step fails.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true

	for i, step := range s.scenario.Steps {
		if err := ctx.Err(); err != nil {
			return s.report(), err
		}
		s.logger.Debug("scenario step", slog.Int("step", i+1), slog.String("op", string(step.Op)), slog.String("view", step.View))
		if err := s.locked(func() error { return s.apply(step) }); err != nil {
			return s.report(), fmt.Errorf("step %d (%s %s): %w", i+1, step.Op, step.View, err)
		}
	}
	if err := s.locked(s.loop.Flush); err != nil {
		return s.report(), fmt.Errorf("final flush: %w", err)
	}
	return s.report(), nil
}

func (s *Session) locked(fn func() error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn()
}

func (s *Session) apply(step Step) error {
	if step.Op == OpFlush {
		return s.loop.Flush()
	}
	view := s.views[step.View]
	if view == nil {
		return fmt.Errorf("%w: unknown view %q", ErrInvalid, step.View)
	}

	switch step.Op {
	case OpAppend:
		container, err := s.container(step.Into)
		if err != nil {
			return err
		}
		return s.renderer.AppendTo(view, container)
	case OpReplace:
		container, err := s.container(step.Into)
		if err != nil {
			return err
		}
		return s.renderer.ReplaceIn(view, container)
	case OpCreate:
		return s.renderer.CreateElement(view)
	case OpRemove:
		return s.renderer.Remove(view, false)
	case OpDestroy:
		return s.renderer.Destroy(view)
	case OpRevalidate:
		return s.renderer.RevalidateTopLevelView(view)
	case OpCancel:
		if !view.WillInsert() {
			return ErrNothingToCancel
		}
		view.SetWillInsert(false)
		return nil
	case OpUpdateAttrs:
		s.renderer.UpdateAttrs(view, core.Attrs(step.Attrs))
		return nil
	case OpAddChild:
		view.AppendChild(s.build(*step.Child))
		return nil
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalid, step.Op)
}

func (s *Session) container(id string) (core.Node, error) {
	if id == "" {
		return s.doc.Body(), nil
	}
	el, err := s.doc.GetElementByID(id)
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (s *Session) report() *Report {
	return &Report{
		Name:   s.scenario.Name,
		Events: slices.Clone(s.events),
		Markup: s.doc.Serialize(),
		Spans:  s.spans.Spans(),
	}
}

// Report is the outcome of a session.
type Report struct {
	Name   string
	Events []string
	Markup string
	Spans  []instrument.Span
}

// Verify compares the event log with expect. An empty expect always passes.
func (r *Report) Verify(expect []string) error {
	if len(expect) == 0 || slices.Equal(r.Events, expect) {
		return nil
	}
	var sb strings.Builder
	n := max(len(expect), len(r.Events))
	for i := range n {
		var want, got string
		if i < len(expect) {
			want = expect[i]
		}
		if i < len(r.Events) {
			got = r.Events[i]
		}
		if want != got {
			fmt.Fprintf(&sb, "\n  %d: want %q, got %q", i+1, want, got)
		}
	}
	return fmt.Errorf("%w:%s", ErrUnexpectedEvents, sb.String())
}

// WriteTo prints the report.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario: %s\n", r.Name)
	fmt.Fprintf(&sb, "events (%d):\n", len(r.Events))
	for i, ev := range r.Events {
		fmt.Fprintf(&sb, "  %3d  %s\n", i+1, ev)
	}
	for _, sp := range r.Spans {
		fmt.Fprintf(&sb, "span %s %s\n", sp.Name, sp.Duration)
	}
	fmt.Fprintf(&sb, "markup:\n%s\n", r.Markup)
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// scenarioView is the behavior of every scenario view.
type scenarioView struct {
	name     string
	tag      string
	layout   core.Template
	template core.Template
}

func (b *scenarioView) TagName() string {
	if b.tag == "" {
		return "div"
	}
	return b.tag
}

func (b *scenarioView) Layout() core.Template   { return b.layout }
func (b *scenarioView) Template() core.Template { return b.template }

func (b *scenarioView) InstrumentName() string { return b.name }

func (b *scenarioView) InstrumentDetails(details map[string]any) {
	details["view"] = b.name
}
