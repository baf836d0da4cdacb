// Package core provides the view model shared by the renderer and its
// collaborators.
//
// # Views
//
// A View is a node in a retained UI tree. Views are created through a
// Registry, which assigns each one a stable ID and resolves the owner handle
// every rendered view carries:
//
//	reg := core.NewRegistry()
//	list := reg.NewView(core.TagBehavior{Tag: "ul"},
//	    reg.NewView(core.TagBehavior{Tag: "li"}),
//	    reg.NewView(core.TagBehavior{Tag: "li"}),
//	)
//
// # Lifecycle States
//
// A view moves preRender → hasElement → inDOM and may enter destroying from
// any state. Removing a view's element without tearing it down returns it to
// preRender so it can render again; a torn-down view stays in destroying.
// TransitionTo rejects every other move with an *errors.TransitionError.
//
// # Behaviors
//
// The user part of a view is a Behavior. Optional hooks are separate
// interfaces (Triggerer, AttrsReceiver, UpdateWatcher, RenderWatcher,
// ElementDestroyer, Instrumented, Templated); the renderer calls a hook only
// when the behavior implements it.
//
// # Environments
//
// Each top-level render owns an Environment holding the ids rendered in the
// current pass and the queue of lifecycle hooks waiting for dispatch.
package core
