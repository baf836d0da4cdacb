// Package template is the reference render pipeline.
//
// A Pipeline composes a Block from a view's layout and template, renders the
// view subtree into a render target, and hands back a Result that can later
// be revalidated. While rendering it calls back into the lifecycle
// coordinator through Hooks: element creation, insertion notices and the
// re-render guard. It records every view it renders on the owner's
// environment and queues didInsertElement hooks for new views (children
// before parents) and didUpdate hooks for views it re-renders.
//
// Rendering sets these attributes on each view's element:
//
//	id             the view id
//	data-layout    the layout name, when the view has one
//	data-template  the template name, when the view has one
//	data-<key>     each view attr, formatted with fmt
//
// plus any static attributes declared on the layout and template.
package template
