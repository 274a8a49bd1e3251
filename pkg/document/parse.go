package document

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RectAttr carries "x,y,width,height" on elements annotated by a
// rendering fetcher.
const RectAttr = "data-pw-rect"

// Parse reads an HTML page into a Document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromSelection(doc.Selection, opts...), nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// FromSelection converts the first node of a goquery selection, such as a
// colly HTMLElement's DOM, into a Document.
func FromSelection(sel *goquery.Selection, opts ...Option) *Document {
	d := &Document{byRaw: map[*html.Node]*Node{}}
	for _, opt := range opts {
		opt(d)
	}
	if sel == nil || len(sel.Nodes) == 0 {
		return d
	}
	top := sel.Nodes[0]
	if top.Type == html.DocumentNode {
		top = firstElement(top)
	}
	if top == nil {
		return d
	}
	d.Root = d.convert(top, nil)
	return d
}

func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (d *Document) convert(h *html.Node, parent *Node) *Node {
	n := &Node{
		Tag:    strings.ToLower(h.Data),
		Attrs:  make(map[string]string, len(h.Attr)),
		parent: parent,
		raw:    h,
	}
	for _, a := range h.Attr {
		n.setAttr(a.Key, a.Val)
	}
	if v, ok := n.Attrs[RectAttr]; ok {
		n.Rect = parseRect(v)
	}

	var own, all strings.Builder
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			own.WriteString(c.Data)
			all.WriteString(c.Data)
		case html.ElementNode:
			if skipped[strings.ToLower(c.Data)] {
				continue
			}
			child := d.convert(c, n)
			n.Children = append(n.Children, child)
			all.WriteString(" ")
			all.WriteString(child.TextContent)
			all.WriteString(" ")
		}
	}
	n.Text = collapseSpace(own.String())
	n.TextContent = collapseSpace(all.String())
	d.index(n)
	return n
}

func parseRect(v string) *Rect {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return nil
	}
	var f [4]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		f[i] = x
	}
	return &Rect{X: f[0], Y: f[1], Width: f[2], Height: f[3]}
}
