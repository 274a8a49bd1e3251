package resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geniass/pricewatch/pkg/document"
)

// description pads a price area past the context window so that sibling
// blocks do not share context.
const description = `<div class="product-description"><p>Triple fan cooling and a reinforced
backplate keep the card quiet under sustained load. Dual BIOS, four display outputs and
a factory overclock make it a strong pick for high refresh rate gaming at 1440p and 4K.</p></div>`

const buybox = `<div id="buybox">
  <span id="availability">In Stock</span>
  <input id="add-to-cart-button" name="submit.add-to-cart" type="submit" value="Add to Cart">
</div>`

func page(center, right string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Product</title></head>
<body>
  <div id="dp-container">
    <div id="centerCol">
      <h1 id="title">GeForce RTX 4080 16GB</h1>
      %s
      %s
    </div>
    <div id="rightCol">%s</div>
  </div>
</body>
</html>`, description, center, right)
}

const cleanCenter = `<div id="corePriceDisplay_desktop_feature_div">
  <span class="a-price priceToPay"><span class="a-offscreen">$859.00</span><span aria-hidden="true">$859.00</span></span>
</div>`

const saleCenter = `<div id="corePriceDisplay_desktop_feature_div">
  <span class="savingsPercentage">-40%</span>
  <span class="a-price priceToPay"><span class="a-offscreen">$449.99</span></span>
  <div class="basisPrice">List Price:
    <span class="a-price a-text-price" data-a-strike="true"><span class="a-offscreen">$749.00</span></span>
  </div>
</div>`

// carouselCenter has a core-display price plus related-item prices that
// only the generic off-screen tier would pick up.
const carouselCenter = `<div id="corePrice_feature_div">
  <span class="a-price"><span class="a-offscreen">$799.00</span></span>
</div>
<div class="a-carousel">
  <div class="a-carousel-card"><span class="a-price"><span class="a-offscreen">$469.99</span></span> Add to Cart</div>
  <div class="a-carousel-card"><span class="a-price"><span class="a-offscreen">$589.41</span></span> Buy now</div>
</div>`

// offscreenCenter has no trusted tier; the list price and the shipping
// cost must lose to the plain price.
const offscreenCenter = `<div class="listing">
  <span class="label">List Price:</span>
  <span class="a-price"><span class="a-offscreen">$649.99</span></span>
</div>
<div class="current">
  <span class="a-price"><span class="a-offscreen">$529.99</span></span>
</div>
<div class="delivery-row"><span class="a-offscreen">$12.99</span> shipping</div>`

// struckOfferCenter has no trusted tier; its list price is an off-screen
// node inside a struck-through price.
const struckOfferCenter = `<div class="offer">
  <span class="a-price a-text-price" data-a-strike="true"><span class="a-offscreen">$749.00</span></span>
  <span class="a-price"><span class="a-offscreen">$449.99</span></span>
</div>`

const compositeCenter = `<span class="a-price a-text-price" data-a-strike="true"><span class="a-price-whole">1,499.</span><span class="a-price-fraction">00</span></span>
<span class="a-price"><span class="a-price-symbol">$</span><span class="a-price-whole">1,299<span class="a-price-decimal">.</span></span><span class="a-price-fraction">99</span></span>`

const savingsCenter = `<div class="deal"><span class="badge">-25%</span> <span class="amount">$449.99</span></div>
<div class="carousel"><span class="a-offscreen">$89.99</span></div>`

const unavailableRight = `<div id="buybox">
  <div id="availability">Currently unavailable.</div>
  <span>We don't know when or if this item will be back in stock.</span>
</div>`

const redirectOnlyRight = `<div id="buybox">
  <a id="buybox-see-all-buying-choices" href="/gp/offer-listing/B0X">See All Buying Options</a>
</div>`

const bothAffordancesRight = `<div id="buybox">
  <input id="add-to-cart-button" name="submit.add-to-cart" type="submit" value="Add to Cart">
  <a id="buybox-see-all-buying-choices" href="/gp/offer-listing/B0X">See All Buying Options</a>
</div>`

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	r, err := New(DefaultConfig())
	require.NoError(t, err)
	return r
}

func parse(t *testing.T, markup string, opts ...document.Option) *document.Document {
	t.Helper()

	doc, err := document.ParseString(markup, opts...)
	require.NoError(t, err)
	return doc
}
