package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
)

func TestSpecificity_MoreFamiliesWins(t *testing.T) {
	labelOnly := &models.Product{Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	labelAndPrice := &models.Product{
		Labels: []*models.LabelMatch{{Pattern: "melk"}},
		Prices: []*models.PriceMatch{{Value: measure.MustPrice("1.19")}},
	}
	assert.True(t, moreSpecific(labelAndPrice, labelOnly, true))
	assert.False(t, moreSpecific(labelOnly, labelAndPrice, true))
}

func TestSpecificity_FewerFieldsWinsTie(t *testing.T) {
	oneLabel := &models.Product{Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	twoLabels := &models.Product{Labels: []*models.LabelMatch{{Pattern: "melk"}, {Pattern: "halfvolle melk"}}}
	assert.True(t, moreSpecific(oneLabel, twoLabels, true))
}

func TestSpecificity_DiscountsIgnoredWhenModeOff(t *testing.T) {
	withDiscount := &models.Product{
		Labels:    []*models.LabelMatch{{Pattern: "melk"}},
		Discounts: []*models.DiscountMatch{{Pattern: "2 voor"}},
	}
	withoutDiscount := &models.Product{Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	assert.True(t, moreSpecific(withDiscount, withoutDiscount, true))
	assert.False(t, moreSpecific(withDiscount, withoutDiscount, false))
}

func TestSelectDuplicate_SameID(t *testing.T) {
	m := New()
	p := &models.Product{ID: 5, ShopKey: "ah"}
	q := &models.Product{ID: 5, ShopKey: "ah"}
	assert.Same(t, p, m.SelectDuplicate(p, q))
}

func TestSelectDuplicate_GenericBeatsLessSpecificMember(t *testing.T) {
	m := New()
	generic := &models.Product{
		ID:     1,
		Labels: []*models.LabelMatch{{Pattern: "melk"}},
		Prices: []*models.PriceMatch{{Value: measure.MustPrice("1.19")}},
	}
	genericID := int64(1)
	member := &models.Product{ID: 2, GenericID: &genericID, Labels: []*models.LabelMatch{{Pattern: "melk"}}}

	m.AddMap(generic)
	assert.Same(t, generic, m.SelectDuplicate(generic, member))
}

func TestSelectDuplicate_MemberBeatsLessSpecificGeneric(t *testing.T) {
	m := New()
	generic := &models.Product{ID: 1, Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	genericID := int64(1)
	member := &models.Product{
		ID:        2,
		GenericID: &genericID,
		Labels:    []*models.LabelMatch{{Pattern: "melk"}},
		Prices:    []*models.PriceMatch{{Value: measure.MustPrice("1.19")}},
	}
	m.AddMap(generic)
	assert.Same(t, member, m.SelectDuplicate(generic, member))
}

func TestSelectDuplicate_SharedGenericWins(t *testing.T) {
	m := New()
	genericID := int64(1)
	generic := &models.Product{ID: genericID, Labels: []*models.LabelMatch{{Pattern: "zuivel"}}}
	memberA := &models.Product{ID: 2, GenericID: &genericID}
	memberB := &models.Product{ID: 3, GenericID: &genericID}
	m.AddMap(generic)

	assert.Same(t, generic, m.SelectDuplicate(memberA, memberB))
}

func TestFilterDuplicateCandidates_LastWinnerPerItem(t *testing.T) {
	m := New()
	item1 := &models.ProductItem{Label: "melk"}
	item2 := &models.ProductItem{Label: "brood"}
	one := &models.Product{ID: 1, ShopKey: "ah"}
	two := &models.Product{ID: 1, ShopKey: "ah"}
	three := &models.Product{ID: 1, ShopKey: "ah"}
	four := &models.Product{ID: 4, ShopKey: "ah"}

	result := m.FilterDuplicateCandidates([]Candidate{
		{Item: item1, Product: two},
		{Item: item1, Product: one},
		{Item: item1, Product: three},
		{Item: item2, Product: four},
	})

	assert.Len(t, result, 2)
	assert.Equal(t, item1, result[0].Item)
	assert.Equal(t, item2, result[1].Item)
}

// TestFilterDuplicateCandidates_AmbiguousItemIsDropped mirrors
// tests/matcher/base.py's test_filter_duplicate_candidates exactly:
// [(two,one),(three,one),(four,two)] -> [(four,two)]. Item "one" gets two
// distinct, unrelated candidates (two, three); select_duplicate(two,
// three) has no identity or generic relation to fall back on and
// returns nil, so "one" must be dropped rather than matched to either.
func TestFilterDuplicateCandidates_AmbiguousItemIsDropped(t *testing.T) {
	m := New()
	one := &models.ProductItem{Label: "one"}
	two := &models.ProductItem{Label: "two"}
	candidateTwo := &models.Product{ID: 2, ShopKey: "ah"}
	candidateThree := &models.Product{ID: 3, ShopKey: "ah"}
	candidateFour := &models.Product{ID: 4, ShopKey: "ah"}

	result := m.FilterDuplicateCandidates([]Candidate{
		{Item: one, Product: candidateTwo},
		{Item: one, Product: candidateThree},
		{Item: two, Product: candidateFour},
	})

	require.Len(t, result, 1)
	assert.Equal(t, two, result[0].Item)
	assert.Same(t, candidateFour, result[0].Product)
}
