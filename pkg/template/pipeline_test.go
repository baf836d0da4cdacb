package template_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/dom"
	"github.com/go-drift/viewkit/pkg/renderer"
	"github.com/go-drift/viewkit/pkg/scheduler"
	"github.com/go-drift/viewkit/pkg/template"
)

type page struct {
	core.TagBehavior
	layout, tmpl core.Template
}

func (p page) Layout() core.Template   { return p.layout }
func (p page) Template() core.Template { return p.tmpl }

func setup(t *testing.T) (*core.Registry, *dom.Document, *scheduler.RunLoop, *renderer.Renderer) {
	t.Helper()
	doc := dom.NewDocument()
	loop := scheduler.NewRunLoop()
	pipe := template.NewPipeline(doc)
	r := renderer.New(doc, pipe, loop, renderer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	pipe.SetHooks(r)
	return core.NewRegistry(), doc, loop, r
}

func TestRenderBlock_Attributes(t *testing.T) {
	reg, doc, loop, r := setup(t)
	v := reg.NewView(page{
		TagBehavior: core.TagBehavior{Tag: "article"},
		layout:      template.New("shell").With("class", "card"),
		tmpl:        template.New("post"),
	})
	v.SetAttrs(core.Attrs{"count": 2, "author": "kim"})

	if err := r.AppendTo(v, doc.Body()); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if err := loop.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	el, err := doc.GetElementByID("view-1")
	if err != nil {
		t.Fatalf("GetElementByID: %v", err)
	}
	want := map[string]string{
		"class":         "card",
		"data-layout":   "shell",
		"data-template": "post",
		"data-count":    "2",
		"data-author":   "kim",
	}
	for k, v := range want {
		if got := el.Attr(k); got != v {
			t.Errorf("attr %s = %q, want %q", k, got, v)
		}
	}
	if el.NodeName() != "ARTICLE" {
		t.Errorf("NodeName = %q, want ARTICLE", el.NodeName())
	}
	if !el.Connected() {
		t.Error("rendered element should be connected")
	}
}

func TestRenderBlock_ChildTemplates(t *testing.T) {
	reg, doc, loop, r := setup(t)
	child := reg.NewView(page{tmpl: template.New("item")})
	root := reg.NewView(nil, child)

	if err := r.AppendTo(root, doc.Body()); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if err := loop.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := `<div id="view-2"><div id="view-1" data-template="item"></div></div>`
	if got := doc.Serialize(); got != want {
		t.Errorf("Serialize = %s, want %s", got, want)
	}
}

func TestRevalidate_RefreshesAttributes(t *testing.T) {
	reg, doc, loop, r := setup(t)
	v := reg.NewView(nil)
	v.SetAttrs(core.Attrs{"n": 1})
	if err := r.AppendTo(v, doc.Body()); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if err := loop.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r.UpdateAttrs(v, core.Attrs{"n": 2})
	if err := r.RevalidateTopLevelView(v); err != nil {
		t.Fatalf("RevalidateTopLevelView: %v", err)
	}

	if got := v.Element().(*dom.Element).Attr("data-n"); got != "2" {
		t.Errorf("data-n = %q, want 2", got)
	}
}

func TestRevalidate_SkipsDestroyingChildren(t *testing.T) {
	reg, doc, loop, r := setup(t)
	child := reg.NewView(nil)
	root := reg.NewView(nil, child)
	if err := r.AppendTo(root, doc.Body()); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if err := loop.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := r.Remove(child, true); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	env := root.Env()
	if err := root.RenderNode().LastResult().Revalidate(env); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	hooks := env.Hooks()
	if len(hooks) != 1 || hooks[0].View != root || hooks[0].Type != core.HookDidUpdate {
		t.Errorf("hooks = %+v, want a single didUpdate for the root", hooks)
	}
	if !env.IsRendered(root.ID()) || env.IsRendered(child.ID()) {
		t.Error("only the root should be recorded as rendered")
	}
	r.ClearRenderedViews(env)
	env.DiscardHooks()
}

func TestComposeBlock(t *testing.T) {
	p := template.NewPipeline(dom.NewDocument())

	if _, err := p.ComposeBlock(core.ComponentInfo{}, nil, core.BlockOptions{}); err != template.ErrNoComponent {
		t.Errorf("err = %v, want ErrNoComponent", err)
	}

	v := core.NewRegistry().NewView(nil)
	layout := template.New("layout")
	tmpl := template.New("body")
	block, err := p.ComposeBlock(core.ComponentInfo{Component: v, Layout: layout}, core.Attrs{"a": 1}, core.BlockOptions{Self: v, Template: tmpl})
	if err != nil {
		t.Fatalf("ComposeBlock: %v", err)
	}
	b := block.(*template.Block)
	if b.Component() != v || b.Layout() != layout || b.Template() != tmpl {
		t.Errorf("block = %+v", b)
	}
}

type otherBlock struct{}

func (otherBlock) Component() *core.View { return nil }

func TestRenderBlock_Errors(t *testing.T) {
	doc := dom.NewDocument()
	p := template.NewPipeline(doc)
	target, _ := doc.CreateFragmentMorph()

	if _, err := p.RenderBlock(otherBlock{}, target); err != template.ErrForeignBlock {
		t.Errorf("foreign block: err = %v", err)
	}

	v := core.NewRegistry().NewView(nil)
	block, _ := p.ComposeBlock(core.ComponentInfo{Component: v}, nil, core.BlockOptions{})
	if _, err := p.RenderBlock(block, target); err != template.ErrNoHooks {
		t.Errorf("no hooks: err = %v", err)
	}

	_, _, _, r := setup(t)
	p.SetHooks(r)
	if _, err := p.RenderBlock(block, target); err != template.ErrNoEnvironment {
		t.Errorf("no environment: err = %v", err)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := template.New("x").With("role", "list")
	if tmpl.Name() != "x" {
		t.Errorf("Name = %q", tmpl.Name())
	}
	attrs := tmpl.Attrs()
	attrs["role"] = "changed"
	if tmpl.Attrs()["role"] != "list" {
		t.Error("Attrs should return a copy")
	}
	var nilTmpl *template.Template
	if nilTmpl.Name() != "" {
		t.Error("nil template should have an empty name")
	}
}
