package resolver

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/geniass/pricewatch/pkg/document"
)

// Tier is a priority class of extraction strategy. Lower values are
// trusted more.
type Tier int

const (
	TierCoreDisplay Tier = iota + 1
	TierPurchaseBox
	TierGenericOffscreen
	TierCompositeWholeFraction
)

func (t Tier) String() string {
	switch t {
	case TierCoreDisplay:
		return "core-display"
	case TierPurchaseBox:
		return "purchase-box"
	case TierGenericOffscreen:
		return "generic-offscreen"
	case TierCompositeWholeFraction:
		return "composite-whole-fraction"
	default:
		return "unknown"
	}
}

// BaseScore is the score a candidate starts from before context adjustments.
func (t Tier) BaseScore() int {
	switch t {
	case TierCoreDisplay:
		return 10
	case TierPurchaseBox:
		return 8
	case TierGenericOffscreen:
		return 5
	case TierCompositeWholeFraction:
		return 3
	default:
		return 0
	}
}

const (
	StrategySelector       = "selector"
	StrategySavingsPattern = "savings-pattern"
	StrategyComposite      = "whole-fraction"
)

// Candidate is a parsed price value and where it came from.
type Candidate struct {
	Value    decimal.Decimal
	RawText  string
	Tier     Tier
	Strategy string
	Selector string
	Node     *document.Node
	Score    int

	order int
}

// Source describes the winning strategy for auditing.
func (c *Candidate) Source() string {
	if c.Strategy == StrategySavingsPattern {
		return c.Tier.String() + "/" + c.Strategy
	}
	return c.Tier.String()
}

var numberToken = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)

// ParsePrice reads the first number in text as a price. The last separator
// is the decimal point when one or two digits follow it ("12.5" is 12.50);
// every other separator groups thousands. A missing fraction reads as ".00".
func ParsePrice(text string) (decimal.Decimal, bool) {
	token := numberToken.FindString(text)
	if token == "" {
		return decimal.Zero, false
	}
	whole, frac := token, "00"
	if i := strings.LastIndexAny(token, ".,"); i >= 0 && len(token)-i-1 <= 2 {
		whole, frac = token[:i], token[i+1:]
		if len(frac) == 1 {
			frac += "0"
		}
	}
	whole = digitsOnly(whole)
	if whole == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(whole + "." + frac)
	if err != nil {
		return decimal.Zero, false
	}
	return v.Round(2), true
}

// parseComposite joins a whole-digits node and a fraction-digits node.
func parseComposite(wholeText, fracText string) (decimal.Decimal, bool) {
	token := numberToken.FindString(wholeText)
	whole := digitsOnly(token)
	if whole == "" {
		return decimal.Zero, false
	}
	frac := digitsOnly(fracText)
	switch {
	case len(frac) > 2:
		frac = frac[:2]
	case len(frac) < 2:
		frac += strings.Repeat("0", 2-len(frac))
	}
	v, err := decimal.NewFromString(whole + "." + frac)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
