// Package matching implements the product matcher: the predicate that
// decides whether a receipt item refers to a piece of product metadata,
// candidate enumeration, duplicate-candidate resolution, and the
// uniqueness index that guards against registering the same metadata
// twice. Grounded in original_source/rechu/matcher/product.py and in
// the teacher's internal/services/matching/product_matcher.go shape
// (a stateful matcher type holding a mode flag and a lazily-filled map),
// generalized from the teacher's fuzzy trigram scoring to the
// deterministic gated scoring this catalog requires.
package matching

import (
	"github.com/rechu/catalog/internal/models"
)

// ItemContext carries the receipt-derived facts Match needs about a
// ProductItem that the item itself doesn't carry by back-reference: its
// shop, the receipt year (for year-indexed price matchers), and the
// discounts attached to it. Kept explicit instead of a live Receipt
// pointer on ProductItem, the same parent-owned-vector rationale as
// Design Note "Generic ↔ range back-references".
type ItemContext struct {
	ShopKey     string
	ReceiptYear int
	Discounts   []*models.Discount
}

// Matcher holds the one piece of runtime state the match predicate and
// specificity ranking consult: whether discount matchers participate
// ("discount-aware mode"). Toggling it between calls never corrupts the
// uniqueness map, since the map's keys don't depend on this flag.
type Matcher struct {
	Discounts  bool
	uniqueness *Map
}

// New constructs a Matcher in discount-aware mode, matching
// ProductMatcher.__init__'s default `self.discounts = True`.
func New() *Matcher {
	return &Matcher{Discounts: true, uniqueness: newMap()}
}

// Match implements §4.3's match predicate: candidate.shop == item's shop,
// at least one matcher family present, then the label/price/discount
// gates in sequence.
func (m *Matcher) Match(candidate *models.Product, item *models.ProductItem, ctx ItemContext) bool {
	if candidate.ShopKey != ctx.ShopKey || !candidate.HasMatchers() {
		return false
	}
	if !matchLabel(candidate, item) {
		return false
	}
	if !m.matchPrices(candidate, item, ctx.ReceiptYear) {
		return false
	}
	return m.matchDiscount(candidate, ctx.Discounts)
}

func matchLabel(candidate *models.Product, item *models.ProductItem) bool {
	if len(candidate.Labels) == 0 {
		return true
	}
	for _, label := range candidate.Labels {
		if label.Matches(item.Label) {
			return true
		}
	}
	return false
}

// matchPrices sums each price matcher's score (see matchPriceScore) and
// requires a total of at least 2 when any price matcher exists. No price
// matcher at all is vacuously acceptable.
func (m *Matcher) matchPrices(candidate *models.Product, item *models.ProductItem, receiptYear int) bool {
	if len(candidate.Prices) == 0 {
		return true
	}
	score := 0
	for _, price := range candidate.Prices {
		score += matchPriceScore(price, item, receiptYear)
	}
	return score >= 2
}

// matchPriceScore scores a single price matcher against an item, per
// original_source/rechu/matcher/product.py's _match_price. An item whose
// quantity carries a physical unit (a weighed/volumed item) can only be
// satisfied by a unit-named indicator; every other indicator family
// (minimum/maximum/year/absent) applies only to dimensionless (counted)
// items, where the matcher's value is interpreted as a per-item price.
func matchPriceScore(price *models.PriceMatch, item *models.ProductItem, receiptYear int) int {
	if !item.Quantity.IsDimensionless() {
		unit, ok := price.IsUnit()
		if !ok {
			return 0
		}
		magnitude, err := item.Quantity.In(unit)
		if err != nil {
			return 0
		}
		if price.Value.Mul(magnitude).Equal(item.Price) {
			return 2
		}
		return 0
	}

	matchPrice := price.Value.Mul(item.Quantity.Amount)
	switch price.Indicator {
	case models.IndicatorMinimum:
		if matchPrice.LessOrEqual(item.Price) {
			return 1
		}
	case models.IndicatorMaximum:
		if matchPrice.GreaterOrEqual(item.Price) {
			return 1
		}
	default:
		year, isYear := price.IsYear()
		dateMatches := price.Indicator == "" || (isYear && year == receiptYear)
		if dateMatches && matchPrice.Equal(item.Price) {
			return 2
		}
	}
	return 0
}

// matchDiscount implements the discount gate: vacuously true with no
// discount matchers, or when discount-aware mode is off and the item has
// no observed discounts; otherwise at least one discount matcher must
// match one of the item's discount labels.
func (m *Matcher) matchDiscount(candidate *models.Product, itemDiscounts []*models.Discount) bool {
	if len(candidate.Discounts) == 0 {
		return true
	}
	if !m.Discounts && len(itemDiscounts) == 0 {
		return true
	}
	for _, discountMatcher := range candidate.Discounts {
		for _, discount := range itemDiscounts {
			if discountMatcher.Matches(discount.Label) {
				return true
			}
		}
	}
	return false
}
