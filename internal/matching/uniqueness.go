package matching

import (
	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
)

// KeyKind names one of the three uniqueness families a Product can be
// looked up by, mirroring original_source/rechu/matcher/product.py's
// MapKey enum.
type KeyKind int

const (
	KeyMatch KeyKind = iota
	KeySKU
	KeyGTIN
)

// PriceKey is the (indicator, value) pair carried by a Key of kind
// KeyMatch, mirroring a price matcher's identity.
type PriceKey struct {
	Indicator string
	Value     measure.Price
}

// Key identifies a product via one of its three uniqueness families.
// Unlike the source's hashable tuple, which doubles as the literal map
// storage key, Key is a typed reconstruction aid: Map.Find uses it to
// build a stub Product and look that up the normal way, then returns
// the stub itself on a miss (original_source's find_map contract).
type Key struct {
	Kind      KeyKind
	Shop      string
	Labels    []string
	Prices    []PriceKey
	Discounts []string
	SKU       string
	GTIN      string
}

// Map is the lazily-filled uniqueness index: every Product's matcher-
// identity, SKU, and GTIN keys point back to it, so duplicate detection
// is three constant-time lookups regardless of which identifier a
// caller has in hand. Grounded on §4.3's uniqueness index and
// original_source's ProductMatcher._map.
type Map struct {
	entries map[string]*models.Product
	byID    map[int64]*models.Product
}

func newMap() *Map {
	return &Map{entries: make(map[string]*models.Product), byID: make(map[int64]*models.Product)}
}

// keysFor returns the namespaced storage keys present for a product
// (zero to three, one per family with a defined value).
func keysFor(p *models.Product) []string {
	var keys []string
	if key, ok := p.MatcherIdentityKey(); ok {
		keys = append(keys, "match\x00"+key)
	}
	if key, ok := p.SKUKey(); ok {
		keys = append(keys, "sku\x00"+key)
	}
	if key, ok := p.GTINKey(); ok {
		keys = append(keys, "gtin\x00"+key)
	}
	return keys
}

// Clear empties the map, dropping every registered product.
func (m *Map) Clear() {
	m.entries = make(map[string]*models.Product)
	m.byID = make(map[int64]*models.Product)
}

// Fill registers every product across the given shards, as if built
// fresh from an Inventory's full contents.
func (m *Map) Fill(shards ...[]*models.Product) {
	for _, shard := range shards {
		for _, product := range shard {
			m.Add(product)
		}
	}
}

// registerGeneric records candidate under its id in byID without
// touching the uniqueness keys in entries. Add/Fill already do this as
// part of building the index from an inventory; registerGeneric exists
// for callers like propose that only need the id pointing somewhere so
// a shared generic can be resolved later, without registering the
// candidate as "present in this inventory" the way Add does.
func (m *Map) registerGeneric(candidate *models.Product) {
	if candidate.ID != 0 {
		m.byID[candidate.ID] = candidate
	}
}

// Add inserts every one of candidate's uniqueness keys, then recurses
// into its range members (a generic's members are indexed in the same
// map as the generic itself). A key collision is never overwritten.
// Add reports whether at least one of candidate's own keys (not its
// range members') was newly inserted — a call where every key already
// points elsewhere returns false, matching §4.3's "collisions must not
// overwrite (they return false)".
func (m *Map) Add(candidate *models.Product) bool {
	added := false
	for _, key := range keysFor(candidate) {
		if _, exists := m.entries[key]; exists {
			continue
		}
		m.entries[key] = candidate
		added = true
	}
	if candidate.ID != 0 {
		m.byID[candidate.ID] = candidate
	}
	for _, member := range candidate.Range {
		m.Add(member)
	}
	return added
}

// Discard removes every one of candidate's uniqueness keys, recursing
// into its range members, and reports whether anything was removed.
func (m *Map) Discard(candidate *models.Product) bool {
	removed := false
	for _, key := range keysFor(candidate) {
		if _, exists := m.entries[key]; exists {
			delete(m.entries, key)
			removed = true
		}
	}
	if candidate.ID != 0 {
		delete(m.byID, candidate.ID)
	}
	for _, member := range candidate.Range {
		if m.Discard(member) {
			removed = true
		}
	}
	return removed
}

// Check returns the first product already registered under any of
// candidate's keys, or nil. A candidate with no keys of its own (a
// generic with no direct matchers/sku/gtin) falls back to checking its
// range members; on a hit, returns the generic that owns the matched
// member rather than the member.
func (m *Map) Check(candidate *models.Product) *models.Product {
	keys := keysFor(candidate)
	if len(keys) > 0 {
		for _, key := range keys {
			if existing, ok := m.entries[key]; ok {
				return existing
			}
		}
		return nil
	}

	for _, member := range candidate.Range {
		for _, key := range keysFor(member) {
			existing, ok := m.entries[key]
			if !ok {
				continue
			}
			if existing.GenericID != nil {
				if generic, ok := m.byID[*existing.GenericID]; ok {
					return generic
				}
			}
			return candidate
		}
	}
	return nil
}

// Find looks up the map entry matching key, or constructs a stub
// Product carrying only the fields key describes.
func (m *Map) Find(key Key) *models.Product {
	stub := keyToProduct(key)
	if found := m.Check(stub); found != nil {
		return found
	}
	return stub
}

func keyToProduct(key Key) *models.Product {
	product := &models.Product{ShopKey: key.Shop}
	switch key.Kind {
	case KeyMatch:
		for i, label := range key.Labels {
			product.Labels = append(product.Labels, &models.LabelMatch{Pattern: label, Position: i})
		}
		for i, price := range key.Prices {
			product.Prices = append(product.Prices, &models.PriceMatch{Indicator: price.Indicator, Value: price.Value, Position: i})
		}
		for i, label := range key.Discounts {
			product.Discounts = append(product.Discounts, &models.DiscountMatch{Pattern: label, Position: i})
		}
	case KeySKU:
		product.SKU = key.SKU
	case KeyGTIN:
		if gtin, err := measure.NewGTIN(key.GTIN); err == nil {
			product.GTIN = gtin
		}
	}
	return product
}

// AddMap, DiscardMap, CheckMap and FindMap expose the Matcher's own
// uniqueness index, mirroring ProductMatcher's instance-level
// add_map/discard_map/check_map/find_map.
func (m *Matcher) AddMap(candidate *models.Product) bool     { return m.uniqueness.Add(candidate) }
func (m *Matcher) DiscardMap(candidate *models.Product) bool { return m.uniqueness.Discard(candidate) }

func (m *Matcher) CheckMap(candidate *models.Product) *models.Product {
	return m.uniqueness.Check(candidate)
}

func (m *Matcher) FindMap(key Key) *models.Product     { return m.uniqueness.Find(key) }
func (m *Matcher) ClearMap()                           { m.uniqueness.Clear() }
func (m *Matcher) FillMap(shards ...[]*models.Product) { m.uniqueness.Fill(shards...) }
