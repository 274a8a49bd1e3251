package resolver

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/geniass/pricewatch/pkg/document"
)

const (
	bonusPriceContainer = 3
	bonusPurchaseIntent = 2
	penaltySecondary    = -4
	bonusUpperLeft      = 2
	bonusSavingsPattern = 2
)

var (
	purchaseIntent = regexp.MustCompile(`(?i)\b(?:current price|add to cart|buy now)\b`)
	secondaryPrice = regexp.MustCompile(`(?i)\b(?:list price|was|typical price|msrp|shipping|tax)\b`)
)

// Score computes the candidate's confidence from its tier and surroundings
// and stores it on the candidate. The same context always scores the same.
func (r *Resolver) Score(doc *document.Document, c *Candidate) int {
	score := c.Tier.BaseScore()
	if c.Node == nil {
		c.Score = score
		return score
	}

	if priceContainer(c.Node.Ancestors(r.cfg.AncestorDepth)) {
		score += bonusPriceContainer
	}

	context := r.contextText(c.Node)
	if purchaseIntent.MatchString(context) {
		score += bonusPurchaseIntent
	}
	if secondaryPrice.MatchString(context) {
		score += penaltySecondary
	}

	if upperLeft(doc, c.Node) {
		score += bonusUpperLeft
	}
	if c.Strategy == StrategySavingsPattern {
		score += bonusSavingsPattern
	}

	c.Score = score
	return score
}

// contextText is the text of the widest enclosing element, within the
// ancestor bound, that is still short enough to describe just this price.
func (r *Resolver) contextText(n *document.Node) string {
	text := n.TextContent
	for _, a := range n.Ancestors(r.cfg.AncestorDepth) {
		if utf8.RuneCountInString(a.TextContent) > r.cfg.ContextChars {
			break
		}
		text = a.TextContent
	}
	return text
}

func priceContainer(ancestors []*document.Node) bool {
	for _, a := range ancestors {
		if marksPrice(a.ID) {
			return true
		}
		for _, c := range a.Classes {
			if marksPrice(c) {
				return true
			}
		}
	}
	return false
}

func marksPrice(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "price") ||
		strings.Contains(name, "buybox") ||
		strings.Contains(name, "buy-box") ||
		strings.Contains(name, "buy_box")
}

func upperLeft(doc *document.Document, n *document.Node) bool {
	if doc == nil || doc.Viewport == nil || n.Rect == nil {
		return false
	}
	x, y := n.Rect.Center()
	return x >= 0 && y >= 0 && x < doc.Viewport.Width/2 && y < doc.Viewport.Height/2
}
