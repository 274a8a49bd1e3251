package resolver

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Failure names why a pass produced no price.
type Failure string

const (
	FailureNone              Failure = ""
	FailureNoCandidate       Failure = "no-candidate"
	FailureMalformedDocument Failure = "malformed-document"
)

// Result is the outcome of one resolution pass.
type Result struct {
	CurrentPrice *decimal.Decimal
	// BasePrice equals CurrentPrice unless the product is on sale.
	BasePrice *decimal.Decimal
	IsOnSale  bool
	// SalePrice is set only when IsOnSale.
	SalePrice   *decimal.Decimal
	PriceSource string

	Availability        Availability
	AvailabilityReasons []string

	Success  bool
	Failure  Failure
	Category string
}

// Discount returns the saving as a fraction of the base price, or zero.
func (r Result) Discount() decimal.Decimal {
	if !r.IsOnSale || r.BasePrice == nil || r.SalePrice == nil || r.BasePrice.IsZero() {
		return decimal.Zero
	}
	return r.BasePrice.Sub(*r.SalePrice).Div(*r.BasePrice)
}

type resultJSON struct {
	CurrentPrice        *string      `json:"current_price"`
	BasePrice           *string      `json:"base_price"`
	IsOnSale            bool         `json:"is_on_sale"`
	SalePrice           *string      `json:"sale_price"`
	PriceSource         string       `json:"price_source,omitempty"`
	Availability        Availability `json:"availability"`
	AvailabilityReasons []string     `json:"availability_reasons"`
	Success             bool         `json:"success"`
	Failure             Failure      `json:"failure,omitempty"`
	Category            string       `json:"category,omitempty"`
}

// MarshalJSON writes prices with exactly two fractional digits.
func (r Result) MarshalJSON() ([]byte, error) {
	reasons := r.AvailabilityReasons
	if reasons == nil {
		reasons = []string{}
	}
	return json.Marshal(resultJSON{
		CurrentPrice:        fixed(r.CurrentPrice),
		BasePrice:           fixed(r.BasePrice),
		IsOnSale:            r.IsOnSale,
		SalePrice:           fixed(r.SalePrice),
		PriceSource:         r.PriceSource,
		Availability:        r.Availability,
		AvailabilityReasons: reasons,
		Success:             r.Success,
		Failure:             r.Failure,
		Category:            r.Category,
	})
}

func fixed(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}
