// Package web renders the tracked products as static HTML report pages.
package web

import (
	"embed"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/geniass/pricewatch/pkg/resolver"
	"github.com/geniass/pricewatch/pkg/store"
)

//go:embed templates
var templatesFs embed.FS

var funcs = template.FuncMap{
	"price": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "-"
		}
		return d.Decimal.StringFixed(2)
	},
	"percent": func(d decimal.Decimal) string {
		return d.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
	},
	"when": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
}

type BaseContext struct {
	PathPrefix string
}

type HomeContext struct {
	BaseContext
	LastUpdated time.Time
	Total       int
	Deals       int
	Unavailable int
}

type DealzContext struct {
	BaseContext
	Title       string
	LastUpdated time.Time
	Products    []store.Product
	// ShowDiscount adds the discount column.
	ShowDiscount bool
}

type ProductContext struct {
	BaseContext
	Product store.Product
	History []store.Observation
}

func (c DealzContext) FormattedLastUpdated() string {
	return c.LastUpdated.UTC().Format("2006-01-02T15:04:05 MST")
}

func (c HomeContext) FormattedLastUpdated() string {
	return c.LastUpdated.UTC().Format("2006-01-02T15:04:05 MST")
}

func RenderHome(w io.Writer, c HomeContext) error {
	return render(w, "index.html.tpl", c)
}

func RenderDealz(w io.Writer, c DealzContext) error {
	return render(w, "dealz.html.tpl", c)
}

func RenderProduct(w io.Writer, c ProductContext) error {
	return render(w, "product.html.tpl", c)
}

func render(w io.Writer, name string, data any) error {
	t, err := template.New(name).Funcs(funcs).ParseFS(templatesFs, "templates/"+name)
	if err != nil {
		return err
	}
	t, err = t.ParseFS(templatesFs, "templates/common/*")
	if err != nil {
		return err
	}
	return t.Execute(w, data)
}

// Deals returns the products whose latest observation is a sale, largest
// discount first.
func Deals(ps []store.Product) []store.Product {
	var out []store.Product
	for _, p := range ps {
		if p.Latest != nil && p.Latest.IsOnSale {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Latest.Discount().GreaterThan(out[j].Latest.Discount())
	})
	return out
}

// Unavailable returns the products last seen as not purchasable.
func Unavailable(ps []store.Product) []store.Product {
	var out []store.Product
	for _, p := range ps {
		if p.Latest != nil && p.Latest.Availability == resolver.Unavailable {
			out = append(out, p)
		}
	}
	return out
}

// LastUpdated is the time of the newest observation across ps.
func LastUpdated(ps []store.Product) time.Time {
	var last time.Time
	for _, p := range ps {
		if p.Latest != nil && p.Latest.At.After(last) {
			last = p.Latest.At
		}
	}
	return last
}
