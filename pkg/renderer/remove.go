package renderer

import (
	"log/slog"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/scheduler"
)

// Remove notifies view's subtree that its elements are going away, then
// schedules the physical removal on the render pass. With shouldDestroy the
// subtree is torn down for good and stays in destroying; otherwise the views
// return to preRender once their elements are gone.
//
// Every call schedules a removal; all but the first to run are no-ops.
func (r *Renderer) Remove(view *core.View, shouldDestroy bool) error {
	if shouldDestroy {
		view.Walk(func(v *core.View) bool {
			v.MarkTerminal()
			return true
		})
	}
	if err := r.WillDestroyElement(view); err != nil {
		return err
	}
	view.SetWillRemoveElement(true)
	key := scheduler.Key{Target: view, Op: opRenderElementRemoval}
	return r.loop.Schedule(scheduler.PassRender, key, func() error {
		return r.RenderElementRemoval(view)
	})
}

// Destroy removes view's elements for good and, on the destroy pass,
// unregisters the subtree.
func (r *Renderer) Destroy(view *core.View) error {
	if err := r.Remove(view, true); err != nil {
		return err
	}
	key := scheduler.Key{Target: view, Op: opTeardown}
	return r.loop.ScheduleOnce(scheduler.PassDestroy, key, func() error {
		r.teardown(view)
		return nil
	})
}

// RenderElementRemoval clears view's render target and reports the element
// destroyed, unless an earlier scheduled removal already did.
func (r *Renderer) RenderElementRemoval(view *core.View) error {
	if !view.WillRemoveElement() {
		r.logger.Debug("removal already performed", slog.String("view", string(view.ID())))
		return nil
	}
	view.SetWillRemoveElement(false)
	if node := view.RenderNode(); node != nil {
		node.Clear()
	}
	return r.DidDestroyElement(view)
}

// WillRemoveElement is called before an element is removed. It does nothing.
func (r *Renderer) WillRemoveElement(view *core.View) {}

// WillDestroyElement notifies view and then its descendants, pre-order, that
// their elements are about to be destroyed, moving each to destroying.
func (r *Renderer) WillDestroyElement(view *core.View) error {
	if d, ok := view.Behavior().(core.ElementDestroyer); ok {
		d.BeforeDestroyElement()
	}
	r.notify(view, core.EventWillDestroyElement)
	r.notify(view, core.EventWillClearRender)

	if err := r.transition(view, core.Destroying); err != nil {
		return err
	}
	for _, child := range view.Children() {
		if err := r.WillDestroyElement(child); err != nil {
			return err
		}
	}
	return nil
}

// DidDestroyElement drops the element reference of view and its descendants,
// pre-order. Views not being torn down return to preRender.
func (r *Renderer) DidDestroyElement(view *core.View) error {
	view.SetElement(nil)
	r.logger.Debug("element destroyed", slog.String("view", string(view.ID())))
	if !view.IsTerminal() {
		if err := r.transition(view, core.PreRender); err != nil {
			return err
		}
	}
	for _, child := range view.Children() {
		if err := r.DidDestroyElement(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) teardown(view *core.View) {
	reg := view.Registry()
	view.Walk(func(v *core.View) bool {
		v.SetEnv(nil)
		v.SetRenderNode(nil)
		v.SetLastResult(nil)
		if reg != nil {
			reg.Unregister(v.ID())
		}
		return true
	})
	r.logger.Debug("torn down", slog.String("view", string(view.ID())))
}
