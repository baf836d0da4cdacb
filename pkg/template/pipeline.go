package template

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-drift/viewkit/pkg/core"
)

var (
	// ErrNoComponent is returned when a block is composed without a component.
	ErrNoComponent = errors.New("template: component info has no component")
	// ErrForeignBlock is returned when RenderBlock gets a block it did not compose.
	ErrForeignBlock = errors.New("template: block was not composed by this pipeline")
	// ErrNoHooks is returned when rendering before SetHooks.
	ErrNoHooks = errors.New("template: pipeline has no lifecycle hooks")
	// ErrNoEnvironment is returned when the component has no render environment.
	ErrNoEnvironment = errors.New("template: component has no environment")
)

// Document creates the elements and child targets a render needs.
type Document interface {
	CreateElement(tag string) core.Node
	AppendMorph(container core.Node) (core.RenderTarget, error)
}

// Hooks is the part of the lifecycle coordinator the pipeline calls back
// into. *renderer.Renderer implements it.
type Hooks interface {
	WillCreateElement(view *core.View)
	DidCreateElement(view *core.View, element core.Node) error
	WillInsertElement(view *core.View)
	EnsureViewNotRendering(view *core.View) error
	WillUpdate(view *core.View, attrs core.Attrs)
	WillRender(view *core.View)
}

type attrSetter interface {
	SetAttr(key, val string)
}

// Pipeline renders view subtrees into a Document.
type Pipeline struct {
	doc   Document
	hooks Hooks
}

// NewPipeline creates a pipeline rendering into doc. SetHooks must be called
// before the first render.
func NewPipeline(doc Document) *Pipeline {
	return &Pipeline{doc: doc}
}

// SetHooks sets the lifecycle coordinator.
func (p *Pipeline) SetHooks(h Hooks) {
	p.hooks = h
}

// ComposeBlock builds the block for a component.
func (p *Pipeline) ComposeBlock(info core.ComponentInfo, attrs core.Attrs, opts core.BlockOptions) (core.Block, error) {
	if info.Component == nil {
		return nil, ErrNoComponent
	}
	return &Block{
		component: info.Component,
		layout:    info.Layout,
		template:  opts.Template,
		attrs:     maps.Clone(attrs),
	}, nil
}

// RenderBlock renders block's component and its descendants into target.
func (p *Pipeline) RenderBlock(block core.Block, target core.RenderTarget) (core.RenderResult, error) {
	b, ok := block.(*Block)
	if !ok || b.component == nil {
		return nil, ErrForeignBlock
	}
	if p.hooks == nil {
		return nil, ErrNoHooks
	}
	root := b.component
	env := root.Env()
	if env == nil {
		return nil, ErrNoEnvironment
	}
	if len(b.attrs) > 0 && root.Attrs() == nil {
		root.SetAttrs(b.attrs)
	}

	pass := &renderPass{p: p, env: env, owner: root}
	el, err := pass.render(root, b.layout, b.template)
	if err != nil {
		return nil, err
	}
	pass.announce()
	target.SetContent(el)
	return &Result{p: p, root: root, layout: b.layout, template: b.template}, nil
}

// Result is a rendered subtree that can be revalidated.
type Result struct {
	p        *Pipeline
	root     *core.View
	layout   core.Template
	template core.Template
}

// Root returns the top-level view of the result.
func (r *Result) Root() *core.View {
	return r.root
}

// Revalidate re-renders the subtree against env. Views already rendered are
// updated in place and queue didUpdate; children added since the last render
// are rendered and queue didInsertElement. Views being destroyed are skipped.
func (r *Result) Revalidate(env *core.Environment) error {
	if r.p.hooks == nil {
		return ErrNoHooks
	}
	pass := &renderPass{p: r.p, env: env, owner: r.root}
	if err := pass.revalidate(r.root, r.layout, r.template); err != nil {
		return err
	}
	pass.announce()
	return nil
}

type renderPass struct {
	p     *Pipeline
	env   *core.Environment
	owner *core.View
	// created holds views given a new element in this pass, pre-order.
	created []*core.View
}

func (rp *renderPass) render(v *core.View, layout, tmpl core.Template) (core.Node, error) {
	hooks := rp.p.hooks
	hooks.WillRender(v)
	hooks.WillCreateElement(v)

	el := rp.p.doc.CreateElement(v.Behavior().TagName())
	applyAttrs(el, v, layout, tmpl)
	if err := hooks.DidCreateElement(v, el); err != nil {
		return nil, err
	}
	rp.env.RecordRendered(v.ID())
	rp.created = append(rp.created, v)

	for _, child := range v.Children() {
		if child.State() == core.Destroying {
			continue
		}
		if err := rp.mount(child, el, false); err != nil {
			return nil, err
		}
	}
	rp.env.QueueHook(core.HookDidInsertElement, v)
	return el, nil
}

// mount renders child into its own target inside parent. With reuse, a
// target left behind in parent by an earlier removal is filled again.
func (rp *renderPass) mount(child *core.View, parent core.Node, reuse bool) error {
	var target core.RenderTarget
	if reuse {
		target = child.RenderNode()
	}
	if target == nil {
		t, err := rp.p.doc.AppendMorph(parent)
		if err != nil {
			return fmt.Errorf("template: mounting %s: %w", child.ID(), err)
		}
		target = t
		child.SetRenderNode(target)
	}
	child.SetOwner(rp.owner)
	child.SetEnv(rp.env)

	el, err := rp.render(child, child.Layout(), child.Template())
	if err != nil {
		return err
	}
	target.SetContent(el)
	return nil
}

func (rp *renderPass) revalidate(v *core.View, layout, tmpl core.Template) error {
	hooks := rp.p.hooks
	if err := hooks.EnsureViewNotRendering(v); err != nil {
		return err
	}
	hooks.WillUpdate(v, v.Attrs())
	hooks.WillRender(v)
	applyAttrs(v.Element(), v, layout, tmpl)
	rp.env.RecordRendered(v.ID())

	for _, child := range v.Children() {
		switch child.State() {
		case core.Destroying:
			continue
		case core.PreRender:
			if err := rp.mount(child, v.Element(), true); err != nil {
				return err
			}
		default:
			if err := rp.revalidate(child, child.Layout(), child.Template()); err != nil {
				return err
			}
		}
	}
	rp.env.QueueHook(core.HookDidUpdate, v)
	return nil
}

func (rp *renderPass) announce() {
	for _, v := range rp.created {
		rp.p.hooks.WillInsertElement(v)
	}
	rp.created = nil
}

func applyAttrs(node core.Node, v *core.View, layout, tmpl core.Template) {
	el, ok := node.(attrSetter)
	if !ok {
		return
	}
	el.SetAttr("id", string(v.ID()))
	for _, t := range []core.Template{layout, tmpl} {
		if s, ok := t.(*Template); ok && s != nil {
			for _, k := range slices.Sorted(maps.Keys(s.attrs)) {
				el.SetAttr(k, s.attrs[k])
			}
		}
	}
	if layout != nil {
		el.SetAttr("data-layout", layout.Name())
	}
	if tmpl != nil {
		el.SetAttr("data-template", tmpl.Name())
	}
	attrs := v.Attrs()
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		el.SetAttr("data-"+k, fmt.Sprint(attrs[k]))
	}
}
