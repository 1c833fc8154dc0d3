package matching

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/rechu/catalog/internal/models"
)

// receiptContext derives the per-item ItemContext values that an item
// doesn't carry directly: its receipt's shop and year, and the
// discounts (if any) that were matched to it while the receipt was
// parsed. Built once per receipt rather than once per item.
func receiptContext(receipt *models.Receipt) map[*models.ProductItem]ItemContext {
	discountsByItem := make(map[*models.ProductItem][]*models.Discount)
	for _, discount := range receipt.Discounts {
		for _, item := range discount.Items {
			discountsByItem[item] = append(discountsByItem[item], discount)
		}
	}

	contexts := make(map[*models.ProductItem]ItemContext, len(receipt.Items))
	for _, item := range receipt.Items {
		contexts[item] = ItemContext{
			ShopKey:     receipt.ShopKey,
			ReceiptYear: receipt.Date.Year(),
			Discounts:   discountsByItem[item],
		}
	}
	return contexts
}

// propose walks candidate and, if it is a generic, its range members,
// yielding every (candidate-or-member, item) pair that satisfies Match.
// Mirrors _propose/_propose_extra's recursion into product.range.
//
// A generic candidate is registered in the uniqueness map's id index
// here, regardless of whether it itself matches: two of its range
// members can each independently satisfy Match and later need
// SelectDuplicate to resolve their shared parent (§4.3's "shared
// generic" tie-break), and FindCandidates never calls Fill to populate
// that index from this pool — propose is the only place that sees both
// the generic and its members together, so it is where that id has to
// be recorded.
func (m *Matcher) propose(candidate *models.Product, item *models.ProductItem, ctx ItemContext) []Candidate {
	if len(candidate.Range) > 0 {
		m.uniqueness.registerGeneric(candidate)
	}

	var out []Candidate
	if m.Match(candidate, item, ctx) {
		out = append(out, Candidate{Item: item, Product: candidate})
	}
	for _, member := range candidate.Range {
		if m.Match(member, item, ctx) {
			out = append(out, Candidate{Item: item, Product: member})
		}
	}
	return out
}

// FindCandidates proposes every (item, product) pair from receipt's
// items against pool that satisfies Match, deduplicated through
// FilterDuplicateCandidates. extra is an additional set of products
// considered for every item regardless of pool membership (generics
// proposed via find_map, per _propose_extra), with their own range
// members also walked. Within one item, an extra product is skipped only
// when the same pointer already appeared earlier in extra; a product
// present in both pool and extra is proposed twice, and
// FilterDuplicateCandidates collapses that pointer-identical pair.
//
// onlyUnmatched restricts consideration to items that don't already
// carry a ProductID, matching the source's distinction between a full
// rematch and an incremental one.
func (m *Matcher) FindCandidates(receipt *models.Receipt, pool []*models.Product, extra []*models.Product, onlyUnmatched bool) []Candidate {
	contexts := receiptContext(receipt)

	var candidates []Candidate
	for _, item := range receipt.Items {
		if onlyUnmatched && item.ProductID != nil {
			continue
		}
		ctx := contexts[item]
		seenExtra := make(map[*models.Product]bool, len(extra))
		for _, candidate := range pool {
			candidates = append(candidates, m.propose(candidate, item, ctx)...)
		}
		for _, candidate := range extra {
			if seenExtra[candidate] {
				continue
			}
			seenExtra[candidate] = true
			candidates = append(candidates, m.propose(candidate, item, ctx)...)
		}
	}
	return m.FilterDuplicateCandidates(candidates)
}

// candidatePoolQuery narrows the set of products a relational backend
// needs to load before proposing them: it filters by shop only, and
// LoadCandidatePool then drops products that carry no matcher and have
// no range. The query cannot narrow further than the shop — label regex
// matching, unit-scaled price comparison, and discount-label matching
// all require Go-side evaluation (§4.3's note that SQL cannot express
// unit-scaled price comparison exactly), so every row this query returns
// still goes through propose/Match before being accepted.
func candidatePoolQuery(db bun.IDB, shopKey string) *bun.SelectQuery {
	return db.NewSelect().
		Model((*models.Product)(nil)).
		Relation("Labels").
		Relation("Prices").
		Relation("Discounts").
		Relation("Range.Labels").
		Relation("Range.Prices").
		Relation("Range.Discounts").
		Where("p.shop_key = ?", shopKey).
		Order("p.generic_id ASC", "p.id ASC")
}

// LoadCandidatePool fetches the relational candidate pool for a shop:
// every matcher-bearing product and its range members, preloaded so
// FindCandidates never issues a query per item. Dirty (unflushed)
// receipts never call this — their items only exist in memory, so
// FindCandidates is given the in-memory pool directly instead. db is
// bun.IDB so this runs the same whether called against a plain
// connection or a store session's open transaction.
func LoadCandidatePool(ctx context.Context, db bun.IDB, shopKey string) ([]*models.Product, error) {
	var products []*models.Product
	if err := candidatePoolQuery(db, shopKey).Scan(ctx, &products); err != nil {
		return nil, err
	}
	filtered := products[:0]
	for _, p := range products {
		if p.HasMatchers() || p.IsGeneric() {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}
