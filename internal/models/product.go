package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/rechu/catalog/internal/measure"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

// Product is shop-scoped metadata that a receipt ProductItem can resolve
// to. A generic Product owns an ordered range of sub-Products that
// inherit its fields unless overridden (Design Note "Generic ↔ range
// back-references": the member stores only GenericID, never a live
// pointer back to its parent).
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	ShopKey  string `bun:"shop_key,notnull" json:"shop_key"`
	GenericID *int64 `bun:"generic_id" json:"generic_id,omitempty"`

	Brand        string          `bun:"brand" json:"brand,omitempty"`
	Description  string          `bun:"description" json:"description,omitempty"`
	Category     string          `bun:"category" json:"category,omitempty"`
	Type         string          `bun:"type" json:"type,omitempty"`
	PortionCount int             `bun:"portion_count" json:"portion_count,omitempty"`
	Weight       *measure.Quantity `bun:"weight" json:"weight,omitempty"`
	Volume       *measure.Quantity `bun:"volume" json:"volume,omitempty"`
	Alcohol      *measure.Quantity `bun:"alcohol" json:"alcohol,omitempty"`

	SKU  string      `bun:"sku" json:"sku,omitempty"`
	GTIN measure.GTIN `bun:"gtin" json:"gtin,omitempty"`

	Labels    []*LabelMatch    `bun:"rel:has-many,join:id=product_id" json:"labels,omitempty"`
	Prices    []*PriceMatch    `bun:"rel:has-many,join:id=product_id" json:"prices,omitempty"`
	Discounts []*DiscountMatch `bun:"rel:has-many,join:id=product_id" json:"discounts,omitempty"`

	Range []*Product `bun:"rel:has-many,join:id=generic_id" json:"range,omitempty"`
}

func (p *Product) TableName() string { return "products" }

// IsGeneric reports whether p owns a range.
func (p *Product) IsGeneric() bool { return len(p.Range) > 0 }

// IsRangeMember reports whether p is owned by a generic.
func (p *Product) IsRangeMember() bool { return p.GenericID != nil }

// HasMatchers reports whether p has at least one matcher in any family.
func (p *Product) HasMatchers() bool {
	return len(p.Labels) > 0 || len(p.Prices) > 0 || len(p.Discounts) > 0
}

// MatcherIdentityKey builds the (shop, sorted labels, sorted prices,
// sorted discounts) tuple used for matcher-identity duplicate detection
// (§3 invariant 4, §4.3's uniqueness index "match" key). ok is false when
// the product has no matchers at all, in which case the key does not
// participate in uniqueness checks.
func (p *Product) MatcherIdentityKey() (key string, ok bool) {
	if !p.HasMatchers() {
		return "", false
	}
	labelKeys := sortedKeys(derefSlice(p.Labels))
	priceKeys := sortedKeys(derefSlice(p.Prices))
	discountKeys := sortedKeys(derefSlice(p.Discounts))
	return p.ShopKey + "\x1e" + joinKeys(labelKeys) + "\x1e" + joinKeys(priceKeys) + "\x1e" + joinKeys(discountKeys), true
}

// SKUKey returns the (shop, sku) uniqueness key when SKU is non-empty.
func (p *Product) SKUKey() (string, bool) {
	if p.SKU == "" {
		return "", false
	}
	return p.ShopKey + "\x1e" + p.SKU, true
}

// GTINKey returns the (shop, gtin) uniqueness key when GTIN is set.
func (p *Product) GTINKey() (string, bool) {
	if p.GTIN.IsZero() {
		return "", false
	}
	return p.ShopKey + "\x1e" + p.GTIN.String(), true
}

func derefSlice[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}

// ValidateIdentity enforces §3 invariants 2-3 (range depth, SKU/GTIN
// uniqueness) against the sibling set a product belongs to (its
// generic's range, or, for a generic, its own range). Invariant 1 (the
// generic back-reference) is not checked here. Invariant 4 (matcher-identity uniqueness) is enforced by the
// matching package's uniqueness index, which spans the whole corpus
// rather than one generic's siblings.
func (p *Product) ValidateIdentity(siblings []*Product) error {
	if p.IsRangeMember() && p.IsGeneric() {
		return apperrors.Validation("range depth is exactly one: range members may not themselves have a range")
	}
	skuKey, hasSKU := p.SKUKey()
	gtinKey, hasGTIN := p.GTINKey()
	for _, other := range siblings {
		if other == p || (p.ID != 0 && other.ID == p.ID) {
			continue
		}
		if hasSKU {
			if otherKey, ok := other.SKUKey(); ok && otherKey == skuKey {
				return apperrors.DuplicateIdentity("duplicate SKU within generic/range set")
			}
		}
		if hasGTIN {
			if otherKey, ok := other.GTINKey(); ok && otherKey == gtinKey {
				return apperrors.DuplicateIdentity("duplicate GTIN within generic/range set")
			}
		}
	}
	return nil
}

// Merge applies §4.2's entity-level merge semantics, reporting whether
// the call changed p. Splitting (assigning or clearing GenericID) is
// never performed here — merge alone never changes generic/range
// topology.
func (p *Product) Merge(incoming *Product, override bool) (bool, error) {
	if p.ShopKey != incoming.ShopKey {
		return false, apperrors.Validation("cannot merge products from different shops")
	}
	changed := false
	changed = mergeString(&p.Brand, incoming.Brand, override) || changed
	changed = mergeString(&p.Description, incoming.Description, override) || changed
	changed = mergeString(&p.Category, incoming.Category, override) || changed
	changed = mergeString(&p.Type, incoming.Type, override) || changed
	changed = mergeString(&p.SKU, incoming.SKU, override) || changed

	if incoming.PortionCount != 0 && (override || p.PortionCount == 0) && p.PortionCount != incoming.PortionCount {
		p.PortionCount = incoming.PortionCount
		changed = true
	}
	if !incoming.GTIN.IsZero() && (override || p.GTIN.IsZero()) && !p.GTIN.Equal(incoming.GTIN) {
		p.GTIN = incoming.GTIN
		changed = true
	}
	if mergeQuantityPtr(&p.Weight, incoming.Weight, override) {
		changed = true
	}
	if mergeQuantityPtr(&p.Volume, incoming.Volume, override) {
		changed = true
	}
	if mergeQuantityPtr(&p.Alcohol, incoming.Alcohol, override) {
		changed = true
	}

	labelsChanged, err := mergeLabels(&p.Labels, incoming.Labels)
	if err != nil {
		return changed, err
	}
	pricesChanged, err := mergePrices(&p.Prices, incoming.Prices, time.Now())
	if err != nil {
		return changed, err
	}
	discountsChanged := mergeDiscounts(&p.Discounts, incoming.Discounts)

	changed = changed || labelsChanged || pricesChanged || discountsChanged

	if rangeChanged, err := mergeRange(p, incoming); err != nil {
		return changed, err
	} else if rangeChanged {
		changed = true
	}

	return changed, nil
}

func mergeQuantityPtr(self **measure.Quantity, incoming *measure.Quantity, override bool) bool {
	if incoming == nil {
		return false
	}
	if *self == nil {
		*self = incoming
		return true
	}
	if override && !(*self).Equal(*incoming) {
		*self = incoming
		return true
	}
	return false
}

// mergeLabels unions by pattern text; duplicates (same Key) are skipped,
// new entries appended preserving incoming order.
func mergeLabels(self *[]*LabelMatch, incoming []*LabelMatch) (bool, error) {
	existing := make(map[string]bool, len(*self))
	for _, m := range *self {
		existing[m.Key()] = true
	}
	changed := false
	for _, m := range incoming {
		if existing[m.Key()] {
			continue
		}
		existing[m.Key()] = true
		m.Position = len(*self)
		*self = append(*self, m)
		changed = true
	}
	return changed, nil
}

// mergePrices unions by Key (indicator plus value): an incoming price is
// appended unless one with the same indicator and value already exists,
// so a null indicator stays distinct from any named indicator and
// several prices may share one indicator. It does not check whether
// plain (unindicated) and indicator-bearing prices are mixed. Each
// incoming price's year indicator is checked against now before the
// union, and minimum ≤ maximum is checked on the merged set.
func mergePrices(self *[]*PriceMatch, incoming []*PriceMatch, now time.Time) (bool, error) {
	existing := make(map[string]bool, len(*self))
	for _, m := range *self {
		existing[m.Key()] = true
	}
	changed := false
	for _, m := range incoming {
		if err := m.validateYear(now); err != nil {
			return changed, err
		}
		if existing[m.Key()] {
			continue
		}
		existing[m.Key()] = true
		m.Position = len(*self)
		*self = append(*self, m)
		changed = true
	}
	if err := validatePriceBand(*self); err != nil {
		return changed, err
	}
	return changed, nil
}

func validatePriceBand(prices []*PriceMatch) error {
	var min, max *measure.Price
	for _, m := range prices {
		switch m.Indicator {
		case IndicatorMinimum:
			v := m.Value
			min = &v
		case IndicatorMaximum:
			v := m.Value
			max = &v
		}
	}
	if min != nil && max != nil && min.GreaterThan(*max) {
		return apperrors.Validation("price matcher minimum exceeds maximum")
	}
	return nil
}

func mergeDiscounts(self *[]*DiscountMatch, incoming []*DiscountMatch) bool {
	existing := make(map[string]bool, len(*self))
	for _, m := range *self {
		existing[m.Key()] = true
	}
	changed := false
	for _, m := range incoming {
		if existing[m.Key()] {
			continue
		}
		existing[m.Key()] = true
		m.Position = len(*self)
		*self = append(*self, m)
		changed = true
	}
	return changed
}

// mergeRange merges a generic's range members by identifier (SKU, GTIN)
// or matcher-identity; unknown incoming range members are appended.
func mergeRange(self *Product, incoming *Product) (bool, error) {
	if len(incoming.Range) == 0 {
		return false, nil
	}
	changed := false
	for _, incomingMember := range incoming.Range {
		existing := findRangeMatch(self.Range, incomingMember)
		if existing == nil {
			self.Range = append(self.Range, incomingMember)
			changed = true
			continue
		}
		memberChanged, err := existing.Merge(incomingMember, true)
		if err != nil {
			return changed, err
		}
		changed = changed || memberChanged
	}
	return changed, nil
}

func findRangeMatch(candidates []*Product, target *Product) *Product {
	if skuKey, ok := target.SKUKey(); ok {
		for _, c := range candidates {
			if k, ok := c.SKUKey(); ok && k == skuKey {
				return c
			}
		}
	}
	if gtinKey, ok := target.GTINKey(); ok {
		for _, c := range candidates {
			if k, ok := c.GTINKey(); ok && k == gtinKey {
				return c
			}
		}
	}
	if matchKey, ok := target.MatcherIdentityKey(); ok {
		for _, c := range candidates {
			if k, ok := c.MatcherIdentityKey(); ok && k == matchKey {
				return c
			}
		}
	}
	return nil
}
