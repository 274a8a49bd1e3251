// Package store keeps tracked products and the history of resolution
// passes run against them.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/geniass/pricewatch/pkg/resolver"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
)

var safeIDReplaceRegex = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// Product is a page being tracked. Latest is filled by Products and
// Product from the most recent observation.
type Product struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	URL      string `json:"url" db:"url"`
	Category string `json:"category" db:"category"`

	Latest *Observation `json:"-" db:"-"`
}

// Observation is one resolution pass as persisted.
type Observation struct {
	At           time.Time             `json:"at"`
	CurrentPrice decimal.NullDecimal   `json:"current_price"`
	BasePrice    decimal.NullDecimal   `json:"base_price"`
	SalePrice    decimal.NullDecimal   `json:"sale_price"`
	IsOnSale     bool                  `json:"is_on_sale"`
	Availability resolver.Availability `json:"availability"`
	Reasons      []string              `json:"availability_reasons"`
	PriceSource  string                `json:"price_source,omitempty"`
	Success      bool                  `json:"success"`
	Failure      resolver.Failure      `json:"failure,omitempty"`
}

func NewObservation(res resolver.Result, at time.Time) Observation {
	return Observation{
		At:           at.UTC(),
		CurrentPrice: nullable(res.CurrentPrice),
		BasePrice:    nullable(res.BasePrice),
		SalePrice:    nullable(res.SalePrice),
		IsOnSale:     res.IsOnSale,
		Availability: res.Availability,
		Reasons:      append([]string{}, res.AvailabilityReasons...),
		PriceSource:  res.PriceSource,
		Success:      res.Success,
		Failure:      res.Failure,
	}
}

// Discount is the saving as a fraction of the base price.
func (o Observation) Discount() decimal.Decimal {
	if !o.IsOnSale || !o.BasePrice.Valid || !o.SalePrice.Valid || o.BasePrice.Decimal.IsZero() {
		return decimal.Zero
	}
	return o.BasePrice.Decimal.Sub(o.SalePrice.Decimal).Div(o.BasePrice.Decimal)
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

type Store interface {
	// AddProduct registers p, deriving the ID from the name when empty.
	AddProduct(ctx context.Context, p Product) (Product, error)
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id string) (Product, error)
	// SaveResult appends res to the product's history.
	SaveResult(ctx context.Context, p Product, res resolver.Result, at time.Time) error
	// History returns observations oldest first.
	History(ctx context.Context, id string) ([]Observation, error)
	Close() error
}

// Open returns the store for driver: "file" and "sqlite" take a path,
// "postgres" a connection string.
func Open(driver, source string) (Store, error) {
	switch driver {
	case "file":
		return NewFileStore(source)
	case "sqlite":
		return OpenSQLite(source)
	case "postgres":
		return OpenPostgres(source)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// ProductID turns a product name into a filesystem and URL safe ID.
func ProductID(name string) string {
	id := safeIDReplaceRegex.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(id, "-")
}

func prepare(p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.URL = strings.TrimSpace(p.URL)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if p.ID == "" {
		p.ID = ProductID(p.Name)
	} else {
		p.ID = ProductID(p.ID)
	}
	if p.ID == "" {
		return p, errors.New("product needs a name or ID")
	}
	if p.URL == "" {
		return p, fmt.Errorf("product %q has no URL", p.ID)
	}
	p.Latest = nil
	return p, nil
}
