package dom

import (
	"golang.org/x/net/html"

	"github.com/go-drift/viewkit/pkg/core"
)

// Morph is an insertion point delimited by two marker nodes. Content set on
// a morph lives between its markers.
type Morph struct {
	id         int
	start, end *html.Node
	lastResult core.RenderResult
}

// ID returns the morph's sequence number within its document.
func (m *Morph) ID() int {
	return m.id
}

// SetContent replaces the morph's content with node.
func (m *Morph) SetContent(node core.Node) {
	m.Clear()
	e, ok := node.(*Element)
	if !ok || e == nil || m.end.Parent == nil {
		return
	}
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	m.end.Parent.InsertBefore(e.node, m.end)
}

// Clear removes everything between the markers and forgets the last result.
func (m *Morph) Clear() {
	m.lastResult = nil
	parent := m.start.Parent
	if parent == nil {
		return
	}
	for n := m.start.NextSibling; n != nil && n != m.end; {
		next := n.NextSibling
		parent.RemoveChild(n)
		n = next
	}
}

// Content returns the elements currently between the markers.
func (m *Morph) Content() []*Element {
	var out []*Element
	for n := m.start.NextSibling; n != nil && n != m.end; n = n.NextSibling {
		if n.Type == html.ElementNode {
			out = append(out, &Element{node: n})
		}
	}
	return out
}

// Parent returns the node holding the morph's markers.
func (m *Morph) Parent() *Element {
	if m.start.Parent == nil {
		return nil
	}
	return &Element{node: m.start.Parent}
}

// LastResult returns the most recent render result.
func (m *Morph) LastResult() core.RenderResult {
	return m.lastResult
}

// SetLastResult records a render result.
func (m *Morph) SetLastResult(result core.RenderResult) {
	m.lastResult = result
}
