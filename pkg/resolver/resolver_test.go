package resolver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniass/pricewatch/pkg/document"
)

func TestResolve_CleanPage(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	res := r.Resolve(parse(t, page(cleanCenter, buybox)), "")

	require.True(t, res.Success)
	require.NotNil(t, res.CurrentPrice)
	assert.Equal(t, "859.00", res.CurrentPrice.StringFixed(2))
	assert.Equal(t, "859.00", res.BasePrice.StringFixed(2))
	assert.False(t, res.IsOnSale)
	assert.Nil(t, res.SalePrice)
	assert.Equal(t, Available, res.Availability)
	assert.Equal(t, "core-display", res.PriceSource)
	assert.Equal(t, FailureNone, res.Failure)
}

func TestResolve_SalePage(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	res := r.Resolve(parse(t, page(saleCenter, buybox)), "gpu")

	require.True(t, res.Success)
	require.True(t, res.IsOnSale)
	assert.Equal(t, "749.00", res.BasePrice.StringFixed(2))
	assert.Equal(t, "449.99", res.SalePrice.StringFixed(2))
	assert.Equal(t, "449.99", res.CurrentPrice.StringFixed(2))
	assert.True(t, res.BasePrice.GreaterThan(*res.SalePrice))
	assert.True(t, res.SalePrice.Equal(*res.CurrentPrice))
	assert.Equal(t, "0.40", res.Discount().StringFixed(2))
}

func TestResolve_UnavailablePage(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	res := r.Resolve(parse(t, page("", unavailableRight)), "")

	assert.Equal(t, Unavailable, res.Availability)
	assert.Contains(t, res.AvailabilityReasons, ReasonUnavailableText)
	assert.Contains(t, res.AvailabilityReasons, ReasonNoPurchaseAffordance)

	// no price on the page, which is reported separately from availability
	assert.False(t, res.Success)
	assert.Equal(t, FailureNoCandidate, res.Failure)
}

func TestResolve_EmptyDocument(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)

	for name, doc := range map[string]*document.Document{
		"nil":        nil,
		"empty html": parse(t, ""),
		"no root":    document.New(nil),
		"error page": parse(t, "<html><body><p>Service Unavailable</p></body></html>"),
	} {
		res := r.Resolve(doc, "gpu")
		assert.False(t, res.Success, name)
		assert.Nil(t, res.CurrentPrice, name)
		assert.Equal(t, Unknown, res.Availability, name)
		assert.Equal(t, []string{ReasonSparseDocument}, res.AvailabilityReasons, name)
		assert.Equal(t, FailureMalformedDocument, res.Failure, name)
	}
}

func TestResolve_TierShortCircuit(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	doc := parse(t, page(carouselCenter, buybox))

	cands := r.ExtractCandidates(doc, r.PriceArea(doc), r.Config().Range("gpu"))
	require.Len(t, cands, 1)
	assert.Equal(t, TierCoreDisplay, cands[0].Tier)

	res := r.Resolve(doc, "gpu")
	require.True(t, res.Success)
	assert.Equal(t, "799.00", res.CurrentPrice.StringFixed(2))
	assert.Equal(t, "core-display", res.PriceSource)
}

func TestResolve_PlausibilityFloor(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	markup := page(`<div id="corePrice_feature_div"><span class="a-price"><span class="a-offscreen">$19.99</span></span></div>`, buybox)

	res := r.Resolve(parse(t, markup), "gpu")
	assert.False(t, res.Success)
	assert.Nil(t, res.CurrentPrice)
	assert.Equal(t, FailureNoCandidate, res.Failure)
	assert.Equal(t, Available, res.Availability)

	res = r.Resolve(parse(t, markup), "accessory")
	require.True(t, res.Success)
	assert.Equal(t, "19.99", res.CurrentPrice.StringFixed(2))
}

func TestResolve_CustomCategoryRange(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Categories = map[string]Range{"monitor": NewRange(1000, 3000)}
	r, err := New(cfg)
	require.NoError(t, err)

	res := r.Resolve(parse(t, page(cleanCenter, buybox)), "Monitor")
	assert.False(t, res.Success)

	res = r.Resolve(parse(t, page(cleanCenter, buybox)), "gpu")
	assert.True(t, res.Success, "categories not configured use the default range")
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	for _, markup := range []string{
		page(cleanCenter, buybox),
		page(saleCenter, redirectOnlyRight),
		page(offscreenCenter, bothAffordancesRight),
		page(savingsCenter, ""),
	} {
		first, err := json.Marshal(r.Resolve(parse(t, markup), "gpu"))
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := json.Marshal(r.Resolve(parse(t, markup), "gpu"))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(again))
		}
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	out, err := json.Marshal(r.Resolve(parse(t, page(saleCenter, buybox)), "gpu"))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"current_price": "449.99",
		"base_price": "749.00",
		"is_on_sale": true,
		"sale_price": "449.99",
		"price_source": "core-display",
		"availability": "available",
		"availability_reasons": [],
		"success": true,
		"category": "gpu"
	}`, string(out))
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Selectors.CoreDisplay = []string{"div["}
	_, err := New(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Categories["gpu"] = NewRange(5000, 100)
	_, err = New(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.AncestorDepth = 0
	_, err = New(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.MinElements = -1
	_, err = New(cfg)
	require.ErrorContains(t, err, "min elements")
}
