package models

import (
	"regexp"

	"github.com/uptrace/bun"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// Shop is identified by a short key and carries the discount-indicator
// patterns used to split a receipt item's opaque discount marker into
// semantic pieces. Mirrors original_source/rechu/models/shop.py.
type Shop struct {
	bun.BaseModel `bun:"table:shops,alias:sh"`

	Key                string   `bun:"key,pk" json:"key"`
	Name               string   `bun:"name,notnull" json:"name"`
	Website            string   `bun:"website" json:"website,omitempty"`
	ProductURLTemplate string   `bun:"product_url_template" json:"product_url_template,omitempty"`
	Wikidata           string   `bun:"wikidata" json:"wikidata,omitempty"`
	DiscountIndicators []string `bun:"discount_indicators,array" json:"discount_indicators,omitempty"`
}

const maxShopKeyLength = 32

// Validate enforces the shop key length invariant from §3.
func (s *Shop) Validate() error {
	if s.Key == "" {
		return apperrors.Validation("shop key must not be empty")
	}
	if len(s.Key) > maxShopKeyLength {
		return apperrors.Validation("shop key exceeds maximum length")
	}
	return nil
}

// SplitDiscountIndicators runs the shop's discount-indicator patterns
// against an item's opaque discount marker and returns the matched
// substrings, used to derive ProductItem.DiscountIndicators.
func (s *Shop) SplitDiscountIndicators(marker string) []string {
	if marker == "" {
		return nil
	}
	var pieces []string
	for _, pattern := range s.DiscountIndicators {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		pieces = append(pieces, re.FindAllString(marker, -1)...)
	}
	return pieces
}

// Merge applies incoming attribute values onto s following §4.2's simple
// attribute merge rule, and reports whether s changed. Shop keys must
// match; merging two shops with different keys is a caller error.
func (s *Shop) Merge(incoming *Shop, override bool) (bool, error) {
	if s.Key != incoming.Key {
		return false, apperrors.Validation("cannot merge shops with different keys")
	}
	changed := false
	changed = mergeString(&s.Name, incoming.Name, override) || changed
	changed = mergeString(&s.Website, incoming.Website, override) || changed
	changed = mergeString(&s.ProductURLTemplate, incoming.ProductURLTemplate, override) || changed
	changed = mergeString(&s.Wikidata, incoming.Wikidata, override) || changed
	if len(incoming.DiscountIndicators) > 0 && (override || len(s.DiscountIndicators) == 0) {
		if !stringSlicesEqual(s.DiscountIndicators, incoming.DiscountIndicators) {
			s.DiscountIndicators = incoming.DiscountIndicators
			changed = true
		}
	}
	return changed, nil
}

func mergeString(self *string, incoming string, override bool) bool {
	if incoming == "" {
		return false
	}
	if *self == incoming {
		return false
	}
	if override || *self == "" {
		*self = incoming
		return true
	}
	return false
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
