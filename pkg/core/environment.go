package core

// Hook is a queued lifecycle notification for a view.
type Hook struct {
	Type HookType
	View *View
}

// Environment is the per-top-level render context. It owns the set of
// views rendered in the current pass and the queue of lifecycle hooks.
//
// Both buffers follow a fixed cycle: accumulate (RecordRendered, QueueHook)
// during a render or revalidate, drain (TakeHooks) on dispatch, and reset
// (ClearRendered) when the pass returns. A pass that fails discards its
// queued hooks (DiscardHooks) instead of dispatching them. Only the renderer
// and the render pipeline it drives touch them.
type Environment struct {
	view     *View
	rendered map[ID]struct{}
	hooks    []Hook
}

// NewEnvironment creates the environment for a render pass owned by view.
func NewEnvironment(view *View) *Environment {
	return &Environment{
		view:     view,
		rendered: make(map[ID]struct{}),
	}
}

// View returns the top-level view owning this environment.
func (e *Environment) View() *View {
	return e.view
}

// RecordRendered marks id as rendered in the current pass.
func (e *Environment) RecordRendered(id ID) {
	e.rendered[id] = struct{}{}
}

// IsRendered reports whether id rendered in the current pass.
func (e *Environment) IsRendered(id ID) bool {
	_, ok := e.rendered[id]
	return ok
}

// RenderedCount returns the number of views rendered in the current pass.
func (e *Environment) RenderedCount() int {
	return len(e.rendered)
}

// ClearRendered empties the rendered set.
func (e *Environment) ClearRendered() {
	clear(e.rendered)
}

// QueueHook appends a hook for view.
func (e *Environment) QueueHook(hook HookType, view *View) {
	e.hooks = append(e.hooks, Hook{Type: hook, View: view})
}

// PendingHooks returns the number of queued hooks.
func (e *Environment) PendingHooks() int {
	return len(e.hooks)
}

// Hooks returns a copy of the queued hooks in FIFO order.
func (e *Environment) Hooks() []Hook {
	return append([]Hook(nil), e.hooks...)
}

// TakeHooks removes and returns the queued hooks in FIFO order.
func (e *Environment) TakeHooks() []Hook {
	hooks := e.hooks
	e.hooks = nil
	return hooks
}

// DiscardHooks drops the queued hooks without dispatching them.
func (e *Environment) DiscardHooks() {
	e.hooks = nil
}
