package core

import (
	"github.com/go-drift/viewkit/pkg/errors"
)

// ID identifies a view. It doubles as the element id of the view's element.
type ID string

// HookType names a queued lifecycle hook.
type HookType string

const (
	// HookNone means no hook is being dispatched.
	HookNone HookType = ""
	// HookDidInsertElement drives the inDOM transition.
	HookDidInsertElement HookType = "didInsertElement"
	// HookDidUpdate reports a re-render with no state change.
	HookDidUpdate HookType = "didUpdate"
)

// View is a node in the UI tree.
//
// Lifecycle state and flags are mutated only by the renderer; other code
// reads them through the accessors.
type View struct {
	id       ID
	behavior Behavior
	registry *Registry

	state    State
	terminal bool
	owner    ID
	children []*View

	renderNode RenderTarget
	lastResult RenderResult
	env        *Environment
	element    Node
	attrs      Attrs

	willInsert        bool
	willRemoveElement bool
	dispatching       HookType

	// instrumentEnd closes the span opened by willCreateElement.
	instrumentEnd func()
}

// ID returns the view's stable id.
func (v *View) ID() ID {
	return v.id
}

// Behavior returns the user-supplied behavior.
func (v *View) Behavior() Behavior {
	return v.behavior
}

// Registry returns the registry that created the view.
func (v *View) Registry() *Registry {
	return v.registry
}

// State returns the current lifecycle state.
func (v *View) State() State {
	return v.state
}

// IsTerminal reports whether the view is being torn down for good and will
// stay in Destroying.
func (v *View) IsTerminal() bool {
	return v.terminal
}

// MarkTerminal pins the view in Destroying once it gets there.
func (v *View) MarkTerminal() {
	v.terminal = true
}

// TransitionTo moves the view to state, failing on transitions the state
// machine does not allow.
func (v *View) TransitionTo(to State) error {
	if !canTransition(v.state, to, v.terminal) {
		return &errors.TransitionError{ViewID: string(v.id), From: v.state.String(), To: to.String()}
	}
	v.state = to
	return nil
}

// Children returns the child views in order.
func (v *View) Children() []*View {
	return v.children
}

// AppendChild adds child after the existing children.
func (v *View) AppendChild(child *View) {
	v.children = append(v.children, child)
}

// RemoveChild drops child from the children list. The child's own lifecycle
// is not touched.
func (v *View) RemoveChild(child *View) bool {
	for i, c := range v.children {
		if c == child {
			v.children = append(v.children[:i], v.children[i+1:]...)
			return true
		}
	}
	return false
}

// OwnerID returns the handle of the top-level view owning this view's render pass.
func (v *View) OwnerID() ID {
	return v.owner
}

// Owner resolves the owner handle through the registry. It returns nil for
// views that were never rendered or whose owner was unregistered.
func (v *View) Owner() *View {
	if v.owner == "" || v.registry == nil {
		return nil
	}
	return v.registry.Lookup(v.owner)
}

// SetOwner records owner as the top-level view of this view's render pass.
func (v *View) SetOwner(owner *View) {
	if owner == nil {
		v.owner = ""
		return
	}
	v.owner = owner.id
}

func (v *View) RenderNode() RenderTarget           { return v.renderNode }
func (v *View) SetRenderNode(target RenderTarget) { v.renderNode = target }
func (v *View) LastResult() RenderResult           { return v.lastResult }
func (v *View) SetLastResult(result RenderResult) { v.lastResult = result }
func (v *View) Env() *Environment                  { return v.env }
func (v *View) SetEnv(env *Environment)            { v.env = env }
func (v *View) Element() Node                      { return v.element }
func (v *View) SetElement(element Node)            { v.element = element }
func (v *View) Attrs() Attrs                       { return v.attrs }
func (v *View) SetAttrs(attrs Attrs)               { v.attrs = attrs }

// WillInsert reports whether a first insertion is pending.
func (v *View) WillInsert() bool {
	return v.willInsert
}

// SetWillInsert sets or cancels a pending insertion. Clearing it before the
// render pass runs cancels the insertion.
func (v *View) SetWillInsert(pending bool) {
	v.willInsert = pending
}

// WillRemoveElement reports whether a removal pass is outstanding.
func (v *View) WillRemoveElement() bool {
	return v.willRemoveElement
}

// SetWillRemoveElement sets the pending-removal flag.
func (v *View) SetWillRemoveElement(pending bool) {
	v.willRemoveElement = pending
}

// Dispatching returns the hook currently being dispatched for this view's
// render pass, or HookNone.
func (v *View) Dispatching() HookType {
	return v.dispatching
}

// SetDispatching records the hook being dispatched.
func (v *View) SetDispatching(hook HookType) {
	v.dispatching = hook
}

// SetInstrumentEnd stores the function closing the element creation span.
func (v *View) SetInstrumentEnd(end func()) {
	v.instrumentEnd = end
}

// EndInstrument closes the element creation span, if one is open.
func (v *View) EndInstrument() {
	if v.instrumentEnd != nil {
		end := v.instrumentEnd
		v.instrumentEnd = nil
		end()
	}
}

// Layout returns the view's layout, if its behavior is Templated.
func (v *View) Layout() Template {
	if t, ok := v.behavior.(Templated); ok {
		return t.Layout()
	}
	return nil
}

// Template returns the view's template, if its behavior is Templated.
func (v *View) Template() Template {
	if t, ok := v.behavior.(Templated); ok {
		return t.Template()
	}
	return nil
}

// Walk visits v and its descendants in pre-order until visit returns false.
func (v *View) Walk(visit func(*View) bool) bool {
	if !visit(v) {
		return false
	}
	for _, child := range v.children {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}
