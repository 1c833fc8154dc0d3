package inventory

import "context"

// StoreQuerier is the store-backed half of §4.2's `select` operation:
// enumerate distinct selector tuples when the caller gives none, then
// load the entities matching each selector. Implemented by
// internal/store's repositories; kept here as an interface so this
// package never imports the store or bun directly.
type StoreQuerier[T any] interface {
	// DistinctSelectors enumerates the distinct tuples of fields'
	// values present in the store, used when select is called with no
	// selectors of its own.
	DistinctSelectors(ctx context.Context, fields []string) ([]Selector, error)
	// BySelector loads every entity matching sel's field values
	// (an empty Selector matches everything, the degenerate
	// zero-field-template case).
	BySelector(ctx context.Context, sel Selector) ([]T, error)
}

// Select loads every entity from the store matching any of selectors,
// grouped by resolved shard path. With no selectors and no template
// fields, the whole store is loaded under the single degenerate shard.
// With no selectors but at least one field, the distinct selector
// tuples are enumerated from the store first. Mirrors
// Products.select/Shops.select.
func Select[T any](ctx context.Context, q StoreQuerier[T], template *Template, dataPath string, selectors []Selector) (Inventory[T], error) {
	fields := template.Fields()
	switch {
	case len(fields) == 0:
		selectors = []Selector{{}}
	case len(selectors) == 0:
		resolved, err := q.DistinctSelectors(ctx, fields)
		if err != nil {
			return nil, err
		}
		selectors = resolved
	}

	inv := make(Inventory[T])
	for _, sel := range selectors {
		items, err := q.BySelector(ctx, sel)
		if err != nil {
			return nil, err
		}
		inv[ResolvePath(dataPath, template, sel)] = items
	}
	return inv, nil
}
