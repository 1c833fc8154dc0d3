package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
)

func mustQuantity(t *testing.T, text string) measure.Quantity {
	t.Helper()
	q, err := measure.ParseQuantity(text)
	require.NoError(t, err)
	return q
}

func itemWithPrice(label, quantity, price string, t *testing.T) *models.ProductItem {
	return &models.ProductItem{
		Label:    label,
		Quantity: mustQuantity(t, quantity),
		Price:    measure.MustPrice(price),
	}
}

func TestMatch_LabelGate(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Labels:  []*models.LabelMatch{{Pattern: "halfvolle melk"}},
	}
	item := itemWithPrice("halfvolle melk", "1", "1.19", t)
	assert.True(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))

	other := itemWithPrice("volle melk", "1", "1.19", t)
	assert.False(t, m.Match(candidate, other, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_WrongShopNeverMatches(t *testing.T) {
	m := New()
	candidate := &models.Product{ShopKey: "ah", Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	item := itemWithPrice("melk", "1", "1.19", t)
	assert.False(t, m.Match(candidate, item, ItemContext{ShopKey: "jumbo", ReceiptYear: 2024}))
}

func TestMatch_NoMatchersNeverMatches(t *testing.T) {
	m := New()
	candidate := &models.Product{ShopKey: "ah"}
	item := itemWithPrice("melk", "1", "1.19", t)
	assert.False(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_ExactPriceScoresTwoAndPasses(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Prices:  []*models.PriceMatch{{Value: measure.MustPrice("1.19")}},
	}
	item := itemWithPrice("melk", "1", "1.19", t)
	assert.True(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_PriceBandMinimumMaximum(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Prices: []*models.PriceMatch{
			{Indicator: models.IndicatorMinimum, Value: measure.MustPrice("0.89")},
			{Indicator: models.IndicatorMaximum, Value: measure.MustPrice("1.39")},
		},
	}
	inBand := itemWithPrice("yoghurt", "1", "1.10", t)
	assert.True(t, m.Match(candidate, inBand, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))

	tooCheap := itemWithPrice("yoghurt", "1", "0.50", t)
	assert.False(t, m.Match(candidate, tooCheap, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))

	tooExpensive := itemWithPrice("yoghurt", "1", "2.00", t)
	assert.False(t, m.Match(candidate, tooExpensive, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_SingleBandBoundAloneIsInsufficient(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Prices:  []*models.PriceMatch{{Indicator: models.IndicatorMinimum, Value: measure.MustPrice("0.89")}},
	}
	item := itemWithPrice("yoghurt", "1", "1.10", t)
	assert.False(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_YearIndexedPrice(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Prices: []*models.PriceMatch{
			{Indicator: "2023", Value: measure.MustPrice("1.09")},
			{Indicator: "2024", Value: measure.MustPrice("1.19")},
		},
	}
	item2024 := itemWithPrice("melk", "1", "1.19", t)
	assert.True(t, m.Match(candidate, item2024, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))

	item2023 := itemWithPrice("melk", "1", "1.09", t)
	assert.True(t, m.Match(candidate, item2023, ItemContext{ShopKey: "ah", ReceiptYear: 2023}))

	wrongYearPrice := itemWithPrice("melk", "1", "1.09", t)
	assert.False(t, m.Match(candidate, wrongYearPrice, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_UnitPricedWeighedItem(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Prices:  []*models.PriceMatch{{Indicator: "kg", Value: measure.MustPrice("8.00")}},
	}
	item := itemWithPrice("kaas", "500g", "4.00", t)
	assert.True(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))

	wrongWeight := itemWithPrice("kaas", "250g", "4.00", t)
	assert.False(t, m.Match(candidate, wrongWeight, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_UnitIndicatorRejectsDimensionlessItem(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey: "ah",
		Prices:  []*models.PriceMatch{{Indicator: "kg", Value: measure.MustPrice("8.00")}},
	}
	item := itemWithPrice("kaas", "1", "8.00", t)
	assert.False(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}

func TestMatch_DiscountGate(t *testing.T) {
	m := New()
	candidate := &models.Product{
		ShopKey:   "ah",
		Labels:    []*models.LabelMatch{{Pattern: "brood"}},
		Discounts: []*models.DiscountMatch{{Pattern: "2 voor"}},
	}
	item := itemWithPrice("brood", "1", "2.50", t)

	withMatchingDiscount := ItemContext{
		ShopKey: "ah", ReceiptYear: 2024,
		Discounts: []*models.Discount{{Label: "2 voor"}},
	}
	assert.True(t, m.Match(candidate, item, withMatchingDiscount))

	withUnrelatedDiscount := ItemContext{
		ShopKey: "ah", ReceiptYear: 2024,
		Discounts: []*models.Discount{{Label: "3 voor 2"}},
	}
	assert.False(t, m.Match(candidate, item, withUnrelatedDiscount))

	withoutDiscounts := ItemContext{ShopKey: "ah", ReceiptYear: 2024}
	assert.False(t, m.Match(candidate, item, withoutDiscounts))
}

func TestMatch_DiscountAwareModeOffToleratesUndiscountedItem(t *testing.T) {
	m := New()
	m.Discounts = false
	candidate := &models.Product{
		ShopKey:   "ah",
		Labels:    []*models.LabelMatch{{Pattern: "brood"}},
		Discounts: []*models.DiscountMatch{{Pattern: "2 voor"}},
	}
	item := itemWithPrice("brood", "1", "2.50", t)
	assert.True(t, m.Match(candidate, item, ItemContext{ShopKey: "ah", ReceiptYear: 2024}))
}
