package renderer

import (
	"log/slog"

	"github.com/go-drift/viewkit/pkg/core"
)

// DispatchLifecycleHooks drains env's hook queue in FIFO order. Each hook
// is followed immediately by didRender for the same view. Hooks queued
// while dispatching are dispatched in the same call. The queue is empty
// and the owner's dispatching marker cleared when this returns, even on
// error.
func (r *Renderer) DispatchLifecycleHooks(env *core.Environment) error {
	owner := env.View()
	defer func() {
		owner.SetDispatching(core.HookNone)
		env.DiscardHooks()
	}()

	for {
		hooks := env.TakeHooks()
		if len(hooks) == 0 {
			return nil
		}
		for _, hook := range hooks {
			owner.SetDispatching(hook.Type)
			switch hook.Type {
			case core.HookDidInsertElement:
				if err := r.DidInsertElement(hook.View); err != nil {
					return err
				}
			case core.HookDidUpdate:
				r.DidUpdate(hook.View)
			}
			r.DidRender(hook.View)
		}
	}
}

// WillCreateElement opens an instrumentation span for views that ask for one.
func (r *Renderer) WillCreateElement(view *core.View) {
	if !r.instr.HasSubscribers() {
		return
	}
	in, ok := view.Behavior().(core.Instrumented)
	if !ok {
		return
	}
	end := r.instr.Start("render."+in.InstrumentName(), func() map[string]any {
		details := map[string]any{}
		in.InstrumentDetails(details)
		return details
	})
	view.SetInstrumentEnd(end)
}

// DidCreateElement records element and moves view to hasElement.
func (r *Renderer) DidCreateElement(view *core.View, element core.Node) error {
	defer view.EndInstrument()
	if element != nil {
		view.SetElement(element)
	}
	return r.transition(view, core.HasElement)
}

// WillInsertElement notifies view that its element is about to be inserted.
func (r *Renderer) WillInsertElement(view *core.View) {
	r.notify(view, core.EventWillInsertElement)
}

// DidInsertElement moves view to inDOM and notifies it.
func (r *Renderer) DidInsertElement(view *core.View) error {
	if err := r.transition(view, core.InDOM); err != nil {
		return err
	}
	r.notify(view, core.EventDidInsertElement)
	return nil
}

// DidUpdate notifies view that it re-rendered.
func (r *Renderer) DidUpdate(view *core.View) {
	r.notify(view, core.EventDidUpdate)
}

// DidRender notifies view that it rendered.
func (r *Renderer) DidRender(view *core.View) {
	r.notify(view, core.EventDidRender)
}

// SetAttrs stores attrs on view.
func (r *Renderer) SetAttrs(view *core.View, attrs core.Attrs) {
	view.SetAttrs(attrs)
}

// UpdateAttrs hands attrs to the view's WillReceiveAttrs hook, then stores them.
func (r *Renderer) UpdateAttrs(view *core.View, attrs core.Attrs) {
	if recv, ok := view.Behavior().(core.AttrsReceiver); ok {
		recv.WillReceiveAttrs(attrs)
	}
	r.SetAttrs(view, attrs)
}

// WillUpdate calls the view's WillUpdate hook, if any.
func (r *Renderer) WillUpdate(view *core.View, attrs core.Attrs) {
	if w, ok := view.Behavior().(core.UpdateWatcher); ok {
		w.WillUpdate(attrs)
	}
}

// WillRender calls the view's WillRender hook, if any.
func (r *Renderer) WillRender(view *core.View) {
	if w, ok := view.Behavior().(core.RenderWatcher); ok {
		w.WillRender()
	}
}

func (r *Renderer) transition(view *core.View, to core.State) error {
	from := view.State()
	if err := view.TransitionTo(to); err != nil {
		return err
	}
	r.logger.Debug("transition",
		slog.String("view", string(view.ID())),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
	return nil
}
