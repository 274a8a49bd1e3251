// Package document models a fetched product page as a read-only element tree.
package document

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Viewport is the size of the window the page was rendered in.
type Viewport struct {
	Width  float64
	Height float64
}

// Document is one fetched page. A nil *Document stands for "no page".
type Document struct {
	Root     *Node
	URL      string
	Viewport *Viewport

	byRaw map[*html.Node]*Node
	size  int
}

// Option configures a Document at construction time.
type Option func(*Document)

// WithURL records the page address.
func WithURL(u string) Option {
	return func(d *Document) { d.URL = u }
}

// WithViewport records the render window, enabling geometric signals.
func WithViewport(width, height float64) Option {
	return func(d *Document) {
		if width > 0 && height > 0 {
			d.Viewport = &Viewport{Width: width, Height: height}
		}
	}
}

// scaffolding elements do not count towards Len.
var scaffolding = map[string]bool{
	"html": true, "head": true, "body": true, "meta": true,
	"link": true, "title": true, "base": true,
}

// skipped subtrees are dropped from the model entirely.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// New links a hand-built tree into a Document: parent references, text
// content and the selector index are derived from root.
func New(root *Node, opts ...Option) *Document {
	d := &Document{Root: root, byRaw: map[*html.Node]*Node{}}
	for _, opt := range opts {
		opt(d)
	}
	if root == nil {
		return d
	}
	d.link(root, nil)
	return d
}

func (d *Document) link(n *Node, parent *Node) *html.Node {
	n.parent = parent
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	if n.ID != "" {
		n.Attrs["id"] = n.ID
	}
	if len(n.Classes) > 0 {
		n.Attrs["class"] = strings.Join(n.Classes, " ")
	}

	raw := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
	for k, v := range n.Attrs {
		raw.Attr = append(raw.Attr, html.Attribute{Key: k, Val: v})
	}
	if n.Text != "" {
		raw.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text})
	}

	parts := []string{n.Text}
	for _, c := range n.Children {
		raw.AppendChild(d.link(c, n))
		parts = append(parts, c.TextContent)
	}
	n.TextContent = collapseSpace(strings.Join(parts, " "))
	n.raw = raw
	d.index(n)
	return raw
}

func (d *Document) index(n *Node) {
	d.byRaw[n.raw] = n
	if !scaffolding[n.Tag] {
		d.size++
	}
}

// Len returns the number of content elements in the page.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return d.size
}

// Text returns the whole page text, whitespace collapsed.
func (d *Document) Text() string {
	if d == nil || d.Root == nil {
		return ""
	}
	return d.Root.TextContent
}

// Select returns the descendants of scope matching s, in document order.
func (d *Document) Select(scope *Node, s Selector) []*Node {
	if d == nil || scope == nil || scope.raw == nil || s.m == nil {
		return nil
	}
	var out []*Node
	for _, h := range s.queryAll(scope.raw) {
		if n, ok := d.byRaw[h]; ok {
			out = append(out, n)
		}
	}
	return out
}

// First returns the first match of the first selector in the list that
// matches anything below scope.
func (d *Document) First(scope *Node, list SelectorList) *Node {
	for _, s := range list {
		if nodes := d.Select(scope, s); len(nodes) > 0 {
			return nodes[0]
		}
	}
	return nil
}

// Matches reports whether any selector in the list matches below scope.
func (d *Document) Matches(scope *Node, list SelectorList) bool {
	return d.First(scope, list) != nil
}

// SelectAll returns the union of matches for list, keyed by node.
func (d *Document) SelectAll(scope *Node, list SelectorList) map[*Node]bool {
	set := map[*Node]bool{}
	for _, s := range list {
		for _, n := range d.Select(scope, s) {
			set[n] = true
		}
	}
	return set
}
