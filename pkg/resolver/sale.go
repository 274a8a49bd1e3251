package resolver

import (
	"github.com/shopspring/decimal"

	"github.com/geniass/pricewatch/pkg/document"
)

// Sale is the base/sale pair derived for a winning price.
type Sale struct {
	Base   decimal.Decimal
	Sale   decimal.Decimal
	OnSale bool
}

// DetectSale looks for struck-through prices in the price area. The largest
// plausible one above the winner becomes the base price.
func (r *Resolver) DetectSale(doc *document.Document, priceArea *document.Node, winner *Candidate, rng Range) Sale {
	if winner == nil {
		return Sale{}
	}
	sale := Sale{Base: winner.Value, Sale: winner.Value}
	if priceArea == nil && doc != nil {
		priceArea = doc.Root
	}

	for _, s := range r.sel.strikethrough {
		for _, n := range doc.Select(priceArea, s) {
			v, ok := ParsePrice(n.TextContent)
			if !ok || !rng.Contains(v) || !v.GreaterThan(winner.Value) {
				continue
			}
			if v.GreaterThan(sale.Base) {
				sale.Base = v
				sale.OnSale = true
			}
		}
	}
	return sale
}
