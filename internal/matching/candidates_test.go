package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
)

func TestReceiptContext_AssociatesDiscountsWithTheirItems(t *testing.T) {
	item1 := &models.ProductItem{Label: "melk"}
	item2 := &models.ProductItem{Label: "brood", DiscountIndicator: "B"}
	receipt := &models.Receipt{
		ShopKey: "ah",
		Items:   []*models.ProductItem{item1, item2},
		Discounts: []*models.Discount{
			{Label: "bonus brood", Items: []*models.ProductItem{item2}},
		},
	}

	contexts := receiptContext(receipt)
	assert.Empty(t, contexts[item1].Discounts)
	require.Len(t, contexts[item2].Discounts, 1)
	assert.Equal(t, "bonus brood", contexts[item2].Discounts[0].Label)
}

func TestFindCandidates_ProposesAgainstPoolAndRangeMembers(t *testing.T) {
	m := New()
	genericID := int64(1)
	generic := &models.Product{
		ID:      genericID,
		ShopKey: "ah",
		Labels:  []*models.LabelMatch{{Pattern: "melk"}},
		Range: []*models.Product{
			{ID: 2, ShopKey: "ah", GenericID: &genericID, Labels: []*models.LabelMatch{{Pattern: "halfvolle melk"}}},
		},
	}

	item := &models.ProductItem{Label: "halfvolle melk", Quantity: mustQuantity(t, "1"), Price: measure.MustPrice("1.19")}
	receipt := &models.Receipt{ShopKey: "ah", Items: []*models.ProductItem{item}}

	candidates := m.FindCandidates(receipt, []*models.Product{generic}, nil, false)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(2), candidates[0].Product.ID)
}

func TestFindCandidates_OnlyUnmatchedSkipsResolvedItems(t *testing.T) {
	m := New()
	resolvedID := int64(99)
	resolved := &models.ProductItem{Label: "melk", ProductID: &resolvedID, Quantity: mustQuantity(t, "1"), Price: measure.MustPrice("1.19")}
	unresolved := &models.ProductItem{Label: "brood", Quantity: mustQuantity(t, "1"), Price: measure.MustPrice("2.50")}
	receipt := &models.Receipt{ShopKey: "ah", Items: []*models.ProductItem{resolved, unresolved}}

	pool := []*models.Product{
		{ID: 1, ShopKey: "ah", Labels: []*models.LabelMatch{{Pattern: "melk"}}},
		{ID: 2, ShopKey: "ah", Labels: []*models.LabelMatch{{Pattern: "brood"}}},
	}

	candidates := m.FindCandidates(receipt, pool, nil, true)
	require.Len(t, candidates, 1)
	assert.Equal(t, "brood", candidates[0].Item.Label)
}

func TestFindCandidates_SharedGenericResolvedWithoutFillingMap(t *testing.T) {
	m := New()
	genericID := int64(1)
	memberA := &models.Product{ID: 2, ShopKey: "ah", GenericID: &genericID, Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	memberB := &models.Product{ID: 3, ShopKey: "ah", GenericID: &genericID, Labels: []*models.LabelMatch{{Pattern: "melk"}}}
	generic := &models.Product{ID: genericID, ShopKey: "ah", Range: []*models.Product{memberA, memberB}}

	item := &models.ProductItem{Label: "melk", Quantity: mustQuantity(t, "1"), Price: measure.MustPrice("1.19")}
	receipt := &models.Receipt{ShopKey: "ah", Items: []*models.ProductItem{item}}

	// No call to m.FillMap/m.AddMap here: the shared-generic resolution
	// must work purely from having walked the pool via FindCandidates.
	candidates := m.FindCandidates(receipt, []*models.Product{generic}, nil, false)
	require.Len(t, candidates, 1)
	assert.Same(t, generic, candidates[0].Product)
}

func TestFindCandidates_ExtraProductsProposedForEveryItem(t *testing.T) {
	m := New()
	extra := &models.Product{ID: 7, ShopKey: "ah", Labels: []*models.LabelMatch{{Pattern: "statiegeld"}}}
	item1 := &models.ProductItem{Label: "statiegeld", Quantity: mustQuantity(t, "1"), Price: measure.MustPrice("0.15")}
	item2 := &models.ProductItem{Label: "statiegeld", Quantity: mustQuantity(t, "1"), Price: measure.MustPrice("0.15")}
	receipt := &models.Receipt{ShopKey: "ah", Items: []*models.ProductItem{item1, item2}}

	candidates := m.FindCandidates(receipt, nil, []*models.Product{extra}, false)
	require.Len(t, candidates, 2)
}
