package core

// Node is an opaque document node.
type Node interface {
	NodeName() string
}

// RenderTarget is an insertion point a view renders into. It is exclusively
// owned by one live view.
type RenderTarget interface {
	// SetContent replaces whatever the target holds with node.
	SetContent(node Node)
	// Clear detaches the target's content from the document.
	Clear()
	// LastResult returns the most recent render result, or nil.
	LastResult() RenderResult
	// SetLastResult records the result of rendering into the target.
	SetLastResult(result RenderResult)
}

// RenderResult is the artifact of rendering a block into a target.
type RenderResult interface {
	// Revalidate refreshes the rendered subtree against env. It may render
	// new views and queue lifecycle hooks on env.
	Revalidate(env *Environment) error
}

// Template is a compiled template supplied by a view.
type Template interface {
	Name() string
}

// ComponentInfo describes the component a block is composed for.
type ComponentInfo struct {
	Component *View
	Layout    Template
}

// BlockOptions are the options passed along with a ComponentInfo.
type BlockOptions struct {
	Self     *View
	Template Template
}

// Block is a composed, renderable unit.
type Block interface {
	Component() *View
}
