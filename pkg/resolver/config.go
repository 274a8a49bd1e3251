package resolver

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Range is the closed interval a parsed price must fall in to be
// considered at all.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// NewRange builds a Range from plain numbers, as read from configuration.
func NewRange(min, max float64) Range {
	return Range{Min: decimal.NewFromFloat(min), Max: decimal.NewFromFloat(max)}
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v decimal.Decimal) bool {
	return !v.LessThan(r.Min) && !v.GreaterThan(r.Max)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Min.StringFixed(2), r.Max.StringFixed(2))
}

// Selectors holds the CSS selector lists each stage searches. Lists are in
// priority order.
type Selectors struct {
	PriceArea   []string
	CoreDisplay []string
	PurchaseBox []string
	Offscreen   []string
	Whole       []string
	Fraction    []string

	// Struck marks containers presenting a superseded price; Strikethrough
	// selects the price-bearing nodes the sale detector reads.
	Struck        []string
	Strikethrough []string

	PurchaseAffordance []string
	RedirectAffordance []string
	PurchaseContainer  []string
}

// Config tunes a Resolver.
type Config struct {
	Default    Range
	Categories map[string]Range

	AncestorDepth int
	ContextChars  int
	// MinElements is the content element count below which a document is
	// malformed; 0 turns the check off.
	MinElements int

	UnavailablePhrases []string
	Selectors          Selectors
}

// DefaultConfig returns the configuration used when nothing is overridden.
// The selector sets follow the markup of the large marketplaces the
// tracker was first written against.
func DefaultConfig() Config {
	return Config{
		Default: NewRange(1, 50000),
		Categories: map[string]Range{
			"gpu":       NewRange(100, 5000),
			"cpu":       NewRange(50, 2000),
			"accessory": NewRange(1, 500),
		},
		AncestorDepth: 5,
		ContextChars:  160,
		MinElements:   3,
		UnavailablePhrases: []string{
			"currently unavailable",
			"out of stock",
			"sold out",
			"temporarily unavailable",
		},
		Selectors: Selectors{
			PriceArea: []string{"#centerCol", "#ppd", "#dp-container", "main"},
			CoreDisplay: []string{
				".priceToPay .a-offscreen",
				"#corePriceDisplay_desktop_feature_div .a-price:not(.a-text-price) .a-offscreen",
				"#corePrice_feature_div .a-price:not(.a-text-price) .a-offscreen",
				"#corePrice_desktop .a-price:not(.a-text-price) .a-offscreen",
				"#apex_desktop .a-price:not(.a-text-price) .a-offscreen",
			},
			PurchaseBox: []string{
				"#buybox .a-price:not(.a-text-price) .a-offscreen",
				"#desktop_buybox .a-price:not(.a-text-price) .a-offscreen",
				"#price_inside_buybox",
				"#newBuyBoxPrice",
			},
			Offscreen: []string{".a-offscreen", ".sr-only", ".visually-hidden"},
			Whole:     []string{".a-price-whole"},
			Fraction:  []string{".a-price-fraction"},
			Struck: []string{
				".a-text-price",
				"[data-a-strike=true]",
				".basisPrice",
				".priceBlockStrikePriceString",
				"s", "del", "strike",
			},
			Strikethrough: []string{
				".a-text-price .a-offscreen",
				".a-text-price",
				"[data-a-strike=true] .a-offscreen",
				".basisPrice .a-offscreen",
				"#listPrice",
				".priceBlockStrikePriceString",
				"s", "del", "strike",
			},
			PurchaseAffordance: []string{
				"#add-to-cart-button",
				"input[name='submit.add-to-cart']",
				"#buy-now-button",
				"[data-action=add-to-cart]",
			},
			RedirectAffordance: []string{
				"#buybox-see-all-buying-choices",
				"#aod-ingress-link",
				"a[href*='/gp/offer-listing/']",
				".see-all-buying-options",
			},
			PurchaseContainer: []string{"#buybox", "#desktop_buybox", "#addToCart", ".buy-box"},
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if err := validateRange("default", c.Default); err != nil {
		return err
	}
	for name, r := range c.Categories {
		if err := validateRange(name, r); err != nil {
			return err
		}
	}
	if c.AncestorDepth <= 0 {
		return fmt.Errorf("ancestor depth must be positive, got %d", c.AncestorDepth)
	}
	if c.ContextChars <= 0 {
		return fmt.Errorf("context chars must be positive, got %d", c.ContextChars)
	}
	if c.MinElements < 0 {
		return fmt.Errorf("min elements must not be negative, got %d", c.MinElements)
	}
	return nil
}

func validateRange(name string, r Range) error {
	if r.Min.IsNegative() || r.Max.LessThan(r.Min) {
		return fmt.Errorf("invalid plausibility range for %q: %s", name, r)
	}
	return nil
}

// Range returns the plausibility range for a product category. Unknown
// and empty categories fall back to the default range.
func (c Config) Range(category string) Range {
	if r, ok := c.Categories[strings.ToLower(category)]; ok {
		return r
	}
	return c.Default
}
