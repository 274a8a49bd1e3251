package resolver

import (
	"regexp"

	"github.com/geniass/pricewatch/pkg/document"
)

// savingsPattern matches a percent-off badge directly followed by the price
// it applies to, e.g. "-25% $449.99" or "40% off $89.00".
var savingsPattern = regexp.MustCompile(`(?i)(?:-\s*\d{1,2}\s*%|\b\d{1,2}\s*%\s*off)\s*(?:now\s*)?[$€£]?\s*(\d[\d.,]*\d)`)

type extraction struct {
	doc    *document.Document
	rng    Range
	out    []*Candidate
	seen   map[*document.Node]bool
	struck map[*document.Node]bool
	order  int
}

func (x *extraction) add(c *Candidate) {
	c.order = x.order
	x.order++
	x.out = append(x.out, c)
}

// fromNode parses a node's text into a candidate if it is a plausible price.
func (x *extraction) fromNode(n *document.Node, tier Tier, sel string) *Candidate {
	v, ok := ParsePrice(n.TextContent)
	if !ok || !x.rng.Contains(v) {
		return nil
	}
	return &Candidate{
		Value:    v,
		RawText:  n.TextContent,
		Tier:     tier,
		Strategy: StrategySelector,
		Selector: sel,
		Node:     n,
	}
}

// first returns the first plausible match across list, in selector order.
func (x *extraction) first(scope *document.Node, tier Tier, list document.SelectorList) bool {
	for _, s := range list {
		for _, n := range x.doc.Select(scope, s) {
			if c := x.fromNode(n, tier, s.Source); c != nil {
				x.add(c)
				return true
			}
		}
	}
	return false
}

// ExtractCandidates scans the page tier by tier and returns the candidates of
// the first tier that produced any. Only the generic off-screen tier keeps
// every match; the others stop at their first plausible one.
func (r *Resolver) ExtractCandidates(doc *document.Document, priceArea *document.Node, rng Range) []*Candidate {
	if doc == nil || doc.Root == nil {
		return nil
	}
	if priceArea == nil {
		priceArea = doc.Root
	}
	x := &extraction{doc: doc, rng: rng, seen: map[*document.Node]bool{}}
	x.struck = doc.SelectAll(doc.Root, r.sel.struck)

	if x.first(doc.Root, TierCoreDisplay, r.sel.coreDisplay) {
		return x.out
	}
	if x.first(doc.Root, TierPurchaseBox, r.sel.purchaseBox) {
		return x.out
	}
	r.offscreen(x, priceArea)
	if len(x.out) > 0 {
		return x.out
	}
	r.composite(x, priceArea)
	return x.out
}

func (r *Resolver) offscreen(x *extraction, area *document.Node) {
	for _, s := range r.sel.offscreen {
		for _, n := range x.doc.Select(area, s) {
			if x.seen[n] {
				continue
			}
			x.seen[n] = true
			if isStruck(n, x.struck) {
				continue
			}
			if c := x.fromNode(n, TierGenericOffscreen, s.Source); c != nil {
				x.add(c)
			}
		}
	}
	x.savings(area)
}

// savings adds a candidate for every innermost node whose text carries a
// percent-off badge followed by a price, unless it is struck through.
func (x *extraction) savings(n *document.Node) bool {
	if !savingsPattern.MatchString(n.TextContent) {
		return false
	}
	inner := false
	for _, c := range n.Children {
		if x.savings(c) {
			inner = true
		}
	}
	if inner || isStruck(n, x.struck) {
		return true
	}
	m := savingsPattern.FindStringSubmatch(n.TextContent)
	v, ok := ParsePrice(m[1])
	if ok && x.rng.Contains(v) {
		x.add(&Candidate{
			Value:    v,
			RawText:  m[0],
			Tier:     TierGenericOffscreen,
			Strategy: StrategySavingsPattern,
			Node:     n,
		})
	}
	return true
}

// composite rebuilds a price from whole and fraction digit nodes, skipping
// any that sit inside a struck-through presentation.
func (r *Resolver) composite(x *extraction, area *document.Node) {
	fractions := x.doc.SelectAll(area, r.sel.fraction)

	for _, s := range r.sel.whole {
		for _, whole := range x.doc.Select(area, s) {
			if isStruck(whole, x.struck) {
				continue
			}
			fracText := ""
			for _, sib := range whole.NextSiblings() {
				if fractions[sib] {
					fracText = sib.TextContent
					break
				}
			}
			v, ok := parseComposite(whole.TextContent, fracText)
			if !ok || !x.rng.Contains(v) {
				continue
			}
			x.add(&Candidate{
				Value:    v,
				RawText:  whole.TextContent + fracText,
				Tier:     TierCompositeWholeFraction,
				Strategy: StrategyComposite,
				Selector: s.Source,
				Node:     whole,
			})
			return
		}
	}
}

func isStruck(n *document.Node, struck map[*document.Node]bool) bool {
	if struck[n] {
		return true
	}
	for _, a := range n.Ancestors(0) {
		if struck[a] {
			return true
		}
	}
	return false
}
