// Package resolver determines a product page's current price, sale state and
// availability from its document tree.
//
// A Resolver holds compiled, read-only configuration only; it performs no
// I/O and is safe for concurrent use by many passes.
package resolver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/document"
)

type selectorSets struct {
	priceArea     document.SelectorList
	coreDisplay   document.SelectorList
	purchaseBox   document.SelectorList
	offscreen     document.SelectorList
	whole         document.SelectorList
	fraction      document.SelectorList
	struck        document.SelectorList
	strikethrough document.SelectorList
	purchase      document.SelectorList
	redirect      document.SelectorList
	container     document.SelectorList
}

// Resolver runs resolution passes.
type Resolver struct {
	cfg    Config
	sel    selectorSets
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New validates cfg and compiles its selectors.
func New(cfg Config, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver config: %w", err)
	}

	r := &Resolver{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	s := cfg.Selectors
	lists := []struct {
		dst *document.SelectorList
		src []string
	}{
		{&r.sel.priceArea, s.PriceArea},
		{&r.sel.coreDisplay, s.CoreDisplay},
		{&r.sel.purchaseBox, s.PurchaseBox},
		{&r.sel.offscreen, s.Offscreen},
		{&r.sel.whole, s.Whole},
		{&r.sel.fraction, s.Fraction},
		{&r.sel.struck, s.Struck},
		{&r.sel.strikethrough, s.Strikethrough},
		{&r.sel.purchase, s.PurchaseAffordance},
		{&r.sel.redirect, s.RedirectAffordance},
		{&r.sel.container, s.PurchaseContainer},
	}
	for _, l := range lists {
		compiled, err := document.CompileList(l.src)
		if err != nil {
			return nil, err
		}
		*l.dst = compiled
	}
	return r, nil
}

// Config returns the configuration the resolver was built with.
func (r *Resolver) Config() Config {
	return r.cfg
}

// PriceArea returns the region of the page the lower tiers and the sale
// detector search. It falls back to the document root.
func (r *Resolver) PriceArea(doc *document.Document) *document.Node {
	if doc == nil {
		return nil
	}
	if n := doc.First(doc.Root, r.sel.priceArea); n != nil {
		return n
	}
	return doc.Root
}

// sparse reports whether doc carries too little structure to evaluate.
func (r *Resolver) sparse(doc *document.Document) bool {
	return doc == nil || doc.Root == nil || doc.Len() < r.cfg.MinElements
}

// Resolve runs one full pass. It never fails: problems are reported through
// the Success, Failure and Availability fields of the result.
func (r *Resolver) Resolve(doc *document.Document, category string) Result {
	res := Result{Category: category}
	res.Availability, res.AvailabilityReasons = r.ClassifyAvailability(doc)

	log := r.logger
	if doc != nil {
		log = log.With(zap.String("url", doc.URL))
	}

	if r.sparse(doc) {
		res.Failure = FailureMalformedDocument
		log.Debug("document too sparse to resolve", zap.Int("elements", doc.Len()))
		return res
	}

	rng := r.cfg.Range(category)
	area := r.PriceArea(doc)
	candidates := r.ExtractCandidates(doc, area, rng)
	for _, c := range candidates {
		r.Score(doc, c)
	}

	winner := Select(candidates)
	if winner == nil {
		res.Failure = FailureNoCandidate
		log.Debug("no price candidate", zap.Stringer("range", rng))
		return res
	}

	sale := r.DetectSale(doc, area, winner, rng)
	current, base := winner.Value, sale.Base
	res.CurrentPrice = &current
	res.BasePrice = &base
	res.IsOnSale = sale.OnSale
	if sale.OnSale {
		s := sale.Sale
		res.SalePrice = &s
	}
	res.PriceSource = winner.Source()
	res.Success = true

	log.Debug("price resolved",
		zap.String("price", current.StringFixed(2)),
		zap.String("source", res.PriceSource),
		zap.String("selector", winner.Selector),
		zap.Int("score", winner.Score),
		zap.Int("candidates", len(candidates)),
		zap.Bool("on_sale", sale.OnSale),
	)
	return res
}
