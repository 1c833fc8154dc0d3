package matching

import "github.com/rechu/catalog/internal/models"

// Candidate pairs a matched Product with the ProductItem it was matched
// against, the unit FindCandidates and FilterDuplicateCandidates work
// over (mirroring the (item, product) tuples the source's find_candidates
// generator yields).
type Candidate struct {
	Item    *models.ProductItem
	Product *models.Product
}

// specificity scores how precisely a product's matchers pin down an
// item, per original_source/rechu/matcher/product.py's _get_specificity:
// the count of matcher families present (more is more specific), and,
// as a tie-break, the negated count of matcher fields across those
// families (fewer fields per family is more specific — a single literal
// label beats three alternative labels). Discount matchers only count
// when discountsMode is enabled.
func specificity(p *models.Product, discountsMode bool) (families int, negFields int) {
	fields := 0
	if len(p.Labels) > 0 {
		families++
		fields += len(p.Labels)
	}
	if len(p.Prices) > 0 {
		families++
		fields += len(p.Prices)
	}
	if discountsMode && len(p.Discounts) > 0 {
		families++
		fields += len(p.Discounts)
	}
	return families, -fields
}

// moreSpecific reports whether a's specificity tuple outranks b's:
// higher family count wins, falling back to the negated field count.
func moreSpecific(a, b *models.Product, discountsMode bool) bool {
	aFamilies, aFields := specificity(a, discountsMode)
	bFamilies, bFields := specificity(b, discountsMode)
	if aFamilies != bFamilies {
		return aFamilies > bFamilies
	}
	return aFields > bFields
}

// selectGeneric picks between a generic and one of its own range members
// by specificity, the generic winning ties — per _select_generic.
func selectGeneric(generic, member *models.Product, discountsMode bool) *models.Product {
	if moreSpecific(member, generic, discountsMode) {
		return member
	}
	return generic
}

// SelectDuplicate decides which of two candidate Products wins when both
// matched the same item, per original_source's ProductMatcher.
// select_duplicate override. Returns nil when neither should be
// preferred over the other (the base Matcher's fallback: identical
// candidates collapse to either one, otherwise no decision is possible
// from identity alone).
func (m *Matcher) SelectDuplicate(candidate, duplicate *models.Product) *models.Product {
	if candidate.ID != 0 && candidate.ID == duplicate.ID {
		return candidate
	}

	// candidate and duplicate are distinct range members of the same
	// generic: per matcher/product.py:91-93 the generic itself wins,
	// resolved here by id rather than a live back-reference (Design Note
	// "Generic ↔ range back-references" — a member only stores
	// GenericID). byID is kept current for every generic propose has
	// seen, not only ones explicitly Fill/Add-ed, so this resolves
	// during find_candidates too, not just when merging into a filled
	// uniqueness index.
	if candidate.GenericID != nil && duplicate.GenericID != nil && *candidate.GenericID == *duplicate.GenericID {
		if generic, ok := m.uniqueness.byID[*candidate.GenericID]; ok {
			return generic
		}
	}

	if duplicate.GenericID != nil && candidate.ID != 0 && *duplicate.GenericID == candidate.ID {
		return selectGeneric(candidate, duplicate, m.Discounts)
	}
	if candidate.GenericID != nil && duplicate.ID != 0 && *candidate.GenericID == duplicate.ID {
		return selectGeneric(duplicate, candidate, m.Discounts)
	}

	// candidate and duplicate are not necessarily the same generic's
	// members (the cases above already handled that); this is the base
	// Matcher's last resort — only pointer-identical candidates collapse,
	// and it must stay last so the generic-specific branches above get a
	// chance first.
	if candidate == duplicate {
		return candidate
	}
	return nil
}

// FilterDuplicateCandidates reduces a candidate stream to at most one
// Product per ProductItem, resolving ties via SelectDuplicate as each
// new candidate for an already-seen item arrives. Mirrors the base
// Matcher's filter_duplicate_candidates, proven by
// tests/matcher/base.py's test_filter_duplicate_candidates:
// `[(two,one),(three,one),(four,two)] -> [(four,two)]`. SelectDuplicate's
// verdict — including nil, meaning the two candidates are irreconcilable
// — unconditionally overwrites the running winner; once an item's winner
// is nil it stays nil (SelectDuplicate is never called again for that
// item), and any item whose final winner is nil is dropped entirely
// rather than matched ambiguously.
func (m *Matcher) FilterDuplicateCandidates(candidates []Candidate) []Candidate {
	order := make([]*models.ProductItem, 0, len(candidates))
	winners := make(map[*models.ProductItem]*models.Product)

	for _, c := range candidates {
		current, seen := winners[c.Item]
		if !seen {
			order = append(order, c.Item)
			winners[c.Item] = c.Product
			continue
		}
		if current == nil || current == c.Product {
			continue
		}
		winners[c.Item] = m.SelectDuplicate(current, c.Product)
	}

	result := make([]Candidate, 0, len(order))
	for _, item := range order {
		if winner := winners[item]; winner != nil {
			result = append(result, Candidate{Item: item, Product: winner})
		}
	}
	return result
}
