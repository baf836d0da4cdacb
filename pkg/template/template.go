package template

import (
	"maps"

	"github.com/go-drift/viewkit/pkg/core"
)

// Template is a named template carrying static element attributes.
type Template struct {
	name  string
	attrs map[string]string
}

// New creates a template named name.
func New(name string) *Template {
	return &Template{name: name}
}

// Name returns the template name.
func (t *Template) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// With returns t after adding the static attribute key=val.
func (t *Template) With(key, val string) *Template {
	if t.attrs == nil {
		t.attrs = make(map[string]string)
	}
	t.attrs[key] = val
	return t
}

// Attrs returns a copy of the static attributes.
func (t *Template) Attrs() map[string]string {
	return maps.Clone(t.attrs)
}

// Block is a component composed with its layout, template and attrs.
type Block struct {
	component *core.View
	layout    core.Template
	template  core.Template
	attrs     core.Attrs
}

// Component returns the view the block renders.
func (b *Block) Component() *core.View {
	return b.component
}

// Layout returns the block's layout, or nil.
func (b *Block) Layout() core.Template {
	return b.layout
}

// Template returns the block's template, or nil.
func (b *Block) Template() core.Template {
	return b.template
}
