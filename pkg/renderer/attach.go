package renderer

import (
	"log/slog"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/errors"
	"github.com/go-drift/viewkit/pkg/scheduler"
)

// AppendTo schedules view to be rendered at the end of container.
func (r *Renderer) AppendTo(view *core.View, container core.Node) error {
	target, err := r.dom.AppendMorph(container)
	if err != nil {
		return err
	}
	return r.scheduleInsert(view, target)
}

// ReplaceIn schedules view to be rendered in place of container's content.
func (r *Renderer) ReplaceIn(view *core.View, container core.Node) error {
	target, err := r.dom.ReplaceContentWithMorph(container)
	if err != nil {
		return err
	}
	return r.scheduleInsert(view, target)
}

func (r *Renderer) scheduleInsert(view *core.View, target core.RenderTarget) error {
	view.SetWillInsert(true)
	key := scheduler.Key{Target: view, Op: opRenderTopLevelView}
	return r.loop.ScheduleOnce(scheduler.PassRender, key, func() error {
		return r.RenderTopLevelView(view, target)
	})
}

// CreateElement renders view into a detached fragment right away. The view
// gets an element but never enters the DOM, so no lifecycle hooks are
// dispatched; the hooks the render queued are dropped.
func (r *Renderer) CreateElement(view *core.View) error {
	target, err := r.dom.CreateFragmentMorph()
	if err != nil {
		return err
	}
	if err := r.PrerenderTopLevelView(view, target); err != nil {
		return err
	}
	view.Env().DiscardHooks()
	return nil
}

// PrerenderTopLevelView renders view into target as the owner of its own
// render pass.
func (r *Renderer) PrerenderTopLevelView(view *core.View, target core.RenderTarget) error {
	if view.State() == core.InDOM {
		return precondition("renderer.PrerenderTopLevelView", view, errors.ErrAlreadyRendered)
	}
	view.SetOwner(view)
	view.SetRenderNode(target)

	env := view.Env()
	if env == nil || env.View() != view {
		env = core.NewEnvironment(view)
		view.SetEnv(env)
	}
	defer r.ClearRenderedViews(env)

	info := core.ComponentInfo{Component: view, Layout: view.Layout()}
	block, err := r.pipeline.ComposeBlock(info, core.Attrs{}, core.BlockOptions{
		Self:     view,
		Template: view.Template(),
	})
	if err != nil {
		return err
	}
	result, err := r.pipeline.RenderBlock(block, target)
	if err != nil {
		return abandonPass(env, err)
	}
	target.SetLastResult(result)
	view.SetLastResult(result)
	return nil
}

// RenderTopLevelView performs a scheduled insertion. It does nothing if the
// insertion was canceled after it was scheduled.
func (r *Renderer) RenderTopLevelView(view *core.View, target core.RenderTarget) error {
	if !view.WillInsert() {
		r.logger.Debug("insertion canceled", slog.String("view", string(view.ID())))
		return nil
	}
	view.SetWillInsert(false)
	if err := r.PrerenderTopLevelView(view, target); err != nil {
		return err
	}
	return r.DispatchLifecycleHooks(view.Env())
}

// RevalidateTopLevelView refreshes a rendered view. A view without a render
// result, such as one whose element was removed, is left alone.
func (r *Renderer) RevalidateTopLevelView(view *core.View) error {
	node := view.RenderNode()
	if node == nil || node.LastResult() == nil {
		r.logger.Debug("revalidate skipped, no render result", slog.String("view", string(view.ID())))
		return nil
	}
	env := view.Env()
	defer r.ClearRenderedViews(env)

	if err := node.LastResult().Revalidate(env); err != nil {
		return abandonPass(env, err)
	}
	if view.State() != core.InDOM {
		env.DiscardHooks()
		return nil
	}
	return r.DispatchLifecycleHooks(env)
}

// abandonPass drops the hooks a failed pass queued so the next pass on env
// starts with an empty queue. err is returned unchanged.
func abandonPass(env *core.Environment, err error) error {
	env.DiscardHooks()
	return err
}

// EnsureViewNotRendering fails if view already rendered in its owner's
// current pass. It changes nothing.
func (r *Renderer) EnsureViewNotRendering(view *core.View) error {
	owner := view.Owner()
	if owner == nil {
		return nil
	}
	if env := owner.Env(); env != nil && env.IsRendered(view.ID()) {
		return precondition("renderer.EnsureViewNotRendering", view, errors.ErrRenderedBeforeInsert)
	}
	return nil
}

// ClearRenderedViews empties env's rendered set.
func (r *Renderer) ClearRenderedViews(env *core.Environment) {
	env.ClearRendered()
}
