package ioformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
)

func TestProductsReader_Parse(t *testing.T) {
	doc := `
shop: ah
category: dairy
products:
  - brand: Campina
    description: Halfvolle melk
    weight: 1000ml
    sku: "12345"
    gtin: "8710400123455"
    labels:
      - "halfvolle melk"
    prices:
      - 1.19
      - 1.29
  - brand: Campina
    type: yogurt
    prices:
      minimum: 0.89
      maximum: 1.39
    bonuses:
      - "2 voor"
`
	products, err := NewProductsReader("products.yaml").Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "ah", first.ShopKey)
	assert.Equal(t, "dairy", first.Category)
	assert.Equal(t, "Campina", first.Brand)
	require.NotNil(t, first.Weight)
	assert.True(t, first.Weight.Equal(mustQuantity(t, "1000ml")))
	assert.Equal(t, "12345", first.SKU)
	require.False(t, first.GTIN.IsZero())
	require.Len(t, first.Labels, 1)
	assert.Equal(t, "halfvolle melk", first.Labels[0].Pattern)
	require.Len(t, first.Prices, 2)
	assert.Empty(t, first.Prices[0].Indicator)
	assert.True(t, first.Prices[0].Value.Equal(measure.MustPrice("1.19")))

	second := products[1]
	assert.Equal(t, "dairy", second.Category, "category falls back to the shared header")
	assert.Equal(t, "yogurt", second.Type)
	require.Len(t, second.Prices, 2)
	assert.Equal(t, models.IndicatorMinimum, second.Prices[0].Indicator)
	assert.Equal(t, models.IndicatorMaximum, second.Prices[1].Indicator)
	require.Len(t, second.Discounts, 1)
	assert.Equal(t, "2 voor", second.Discounts[0].Pattern)
}

func TestProductsReader_Parse_MissingShop(t *testing.T) {
	doc := `products: []`
	_, err := NewProductsReader("products.yaml").Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func TestProductsReader_Parse_MalformedPrices(t *testing.T) {
	doc := `
shop: ah
products:
  - brand: Campina
    prices: "not a list or mapping"
`
	_, err := NewProductsReader("products.yaml").Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func mustQuantity(t *testing.T, text string) measure.Quantity {
	t.Helper()
	q, err := measure.ParseQuantity(text)
	require.NoError(t, err)
	return q
}

func TestProductsWriter_Serialize_RoundTrip(t *testing.T) {
	weight := mustQuantity(t, "500g")
	products := []*models.Product{
		{
			ShopKey:     "ah",
			Category:    "dairy",
			Brand:       "Campina",
			Description: "Halfvolle melk",
			Weight:      &weight,
			SKU:         "999",
			Labels:      []*models.LabelMatch{{Pattern: "melk"}},
			Prices:      []*models.PriceMatch{{Value: measure.MustPrice("1.09")}},
		},
	}
	var buf strings.Builder
	require.NoError(t, (&ProductsWriter{Models: products}).Serialize(&buf))

	parsed, err := NewProductsReader("products.yaml").Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "ah", parsed[0].ShopKey)
	assert.Equal(t, "Campina", parsed[0].Brand)
	require.NotNil(t, parsed[0].Weight)
	assert.True(t, parsed[0].Weight.Equal(weight))
	require.Len(t, parsed[0].Prices, 1)
	assert.True(t, parsed[0].Prices[0].Value.Equal(measure.MustPrice("1.09")))
}

func TestProductsWriter_Serialize_RejectsMixedShops(t *testing.T) {
	products := []*models.Product{
		{ShopKey: "ah"},
		{ShopKey: "jumbo"},
	}
	var buf strings.Builder
	err := (&ProductsWriter{Models: products}).Serialize(&buf)
	require.Error(t, err)
}

func TestEncodePriceMatchers_RejectsMixedIndicators(t *testing.T) {
	prices := []*models.PriceMatch{
		{Value: measure.MustPrice("1.00")},
		{Value: measure.MustPrice("2.00"), Indicator: models.IndicatorMinimum},
	}
	_, err := encodePriceMatchers(prices)
	require.Error(t, err)
}
