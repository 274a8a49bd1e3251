package document

import (
	"strings"

	"golang.org/x/net/html"
)

// Rect is the on-screen box of a rendered element, in CSS pixels.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the midpoint of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Node is one element of a product page. Nodes are read-only once the
// owning Document has been built.
type Node struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   map[string]string

	// Text is the element's own text, excluding children. TextContent
	// includes descendants and is filled in when the Document is built.
	Text        string
	TextContent string

	Children []*Node

	// Rect is nil unless the fetcher captured layout information.
	Rect *Rect

	parent *Node
	raw    *html.Node
}

// Element is a convenience constructor for hand-built trees.
func Element(tag string, attrs map[string]string, children ...*Node) *Node {
	n := &Node{
		Tag:      strings.ToLower(tag),
		Attrs:    map[string]string{},
		Children: children,
	}
	for k, v := range attrs {
		n.setAttr(k, v)
	}
	return n
}

// WithText sets the node's own text and returns the node.
func (n *Node) WithText(text string) *Node {
	n.Text = text
	return n
}

// Parent returns the enclosing element, or nil at the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// HasClass reports whether the class list contains c.
func (n *Node) HasClass(c string) bool {
	for _, cls := range n.Classes {
		if cls == c {
			return true
		}
	}
	return false
}

// Ancestors returns up to depth enclosing elements, nearest first.
// A depth <= 0 walks to the root.
func (n *Node) Ancestors(depth int) []*Node {
	var out []*Node
	for p := n.parent; p != nil; p = p.parent {
		if depth > 0 && len(out) == depth {
			break
		}
		out = append(out, p)
	}
	return out
}

// NextSiblings returns the element siblings that follow n, in order.
func (n *Node) NextSiblings() []*Node {
	if n.parent == nil {
		return nil
	}
	for i, c := range n.parent.Children {
		if c == n {
			return n.parent.Children[i+1:]
		}
	}
	return nil
}

func (n *Node) setAttr(key, val string) {
	key = strings.ToLower(key)
	n.Attrs[key] = val
	switch key {
	case "id":
		n.ID = val
	case "class":
		n.Classes = splitClasses(val)
	}
}

func splitClasses(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range strings.Fields(s) {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
