// Package dom is an in-memory document for views to render into.
//
// Elements are golang.org/x/net/html nodes, so documents can be parsed from
// markup and serialized back. Views never hold a container directly; they
// render into a Morph, a pair of empty text markers bracketing the view's
// content inside a parent node.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/viewkit/pkg/core"
)

var (
	// ErrNilContainer is returned when a morph is requested for a nil or
	// foreign container.
	ErrNilContainer = errors.New("dom: container is nil or not a document element")
	// ErrNotFound is returned when an element lookup fails.
	ErrNotFound = errors.New("dom: element not found")
)

// Element wraps an html element node.
type Element struct {
	node *html.Node
}

// NodeName returns the upper-cased tag name, as the DOM does.
func (e *Element) NodeName() string {
	if e.node.Type == html.DocumentNode {
		return "#document-fragment"
	}
	return strings.ToUpper(e.node.Data)
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// ID returns the element's id attribute.
func (e *Element) ID() string {
	return e.Attr("id")
}

// Attr returns the value of attribute key, or "".
func (e *Element) Attr(key string) string {
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets attribute key to val.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.node.Attr {
		if a.Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) {
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	e.node.AppendChild(child.node)
}

// Children returns the element children of e, looking through morph markers.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{node: c})
		}
	}
	return out
}

// Connected reports whether e is attached to a parsed document.
func (e *Element) Connected() bool {
	n := e.node
	for n.Parent != nil {
		n = n.Parent
	}
	return isDocumentRoot(n)
}

// Document holds a parsed document and creates targets inside it.
type Document struct {
	root   *html.Node
	morphs int
}

// NewDocument creates an empty document with a body.
func NewDocument() *Document {
	doc, err := Parse("")
	if err != nil {
		panic(fmt.Sprintf("dom: parsing empty document: %v", err))
	}
	return doc
}

// Parse builds a document from markup.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	markRoot(root)
	return &Document{root: root}, nil
}

// Body returns the document body.
func (d *Document) Body() *Element {
	var body *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	return &Element{node: body}
}

// GetElementByID finds the element with the given id.
func (d *Document) GetElementByID(id string) (*Element, error) {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					found = n
					return false
				}
			}
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: #%s", ErrNotFound, id)
	}
	return &Element{node: found}, nil
}

// NewElement creates a detached element.
func (d *Document) NewElement(tag string) *Element {
	return &Element{node: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}
}

// CreateElement creates a detached element as a core.Node.
func (d *Document) CreateElement(tag string) core.Node {
	return d.NewElement(tag)
}

// AppendMorph creates an empty morph at the end of container.
func (d *Document) AppendMorph(container core.Node) (core.RenderTarget, error) {
	parent, err := elementOf(container)
	if err != nil {
		return nil, err
	}
	return d.newMorph(parent.node), nil
}

// ReplaceContentWithMorph empties container and returns a morph filling it.
func (d *Document) ReplaceContentWithMorph(container core.Node) (core.RenderTarget, error) {
	parent, err := elementOf(container)
	if err != nil {
		return nil, err
	}
	for c := parent.node.FirstChild; c != nil; {
		next := c.NextSibling
		parent.node.RemoveChild(c)
		c = next
	}
	return d.newMorph(parent.node), nil
}

// CreateFragmentMorph returns a morph inside a new detached fragment.
func (d *Document) CreateFragmentMorph() (core.RenderTarget, error) {
	fragment := &html.Node{Type: html.DocumentNode}
	return d.newMorph(fragment), nil
}

// Serialize renders the document body's children as markup. Morph markers
// are empty text nodes and do not appear in the output.
func (d *Document) Serialize() string {
	return Serialize(d.Body())
}

// Serialize renders the children of e as markup.
func Serialize(e *Element) string {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

func (d *Document) newMorph(parent *html.Node) *Morph {
	d.morphs++
	m := &Morph{
		id:    d.morphs,
		start: &html.Node{Type: html.TextNode},
		end:   &html.Node{Type: html.TextNode},
	}
	parent.AppendChild(m.start)
	parent.AppendChild(m.end)
	return m
}

func elementOf(n core.Node) (*Element, error) {
	e, ok := n.(*Element)
	if !ok || e == nil || e.node == nil {
		return nil, ErrNilContainer
	}
	return e, nil
}

func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

const rootMarker = "viewkit-root"

func markRoot(n *html.Node) {
	n.Data = rootMarker
}

func isDocumentRoot(n *html.Node) bool {
	return n.Type == html.DocumentNode && n.Data == rootMarker
}
