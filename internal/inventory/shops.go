package inventory

import (
	"context"
	"path/filepath"

	"github.com/rechu/catalog/internal/ioformat"
	"github.com/rechu/catalog/internal/models"
	"github.com/rechu/catalog/internal/settings"
)

// Shops is an Inventory of shop metadata. The `data.shops` setting
// names a single file with no field placeholders, so every Shop lands
// in the same degenerate shard — Design Note none, just §6's "a
// template with zero fields yields a single degenerate shard" applied
// directly. Grounded on
// original_source/rechu/inventory/shops.py's Shops class.
type Shops = Inventory[*models.Shop]

// shopsPath resolves the single shops shard path from settings.
func shopsPath(cfg settings.DataConfig) string {
	abs, err := filepath.Abs(filepath.Join(cfg.Path, cfg.Shops))
	if err != nil {
		return filepath.Join(cfg.Path, cfg.Shops)
	}
	return abs
}

// SpreadShops places every shop into the single shops shard.
func SpreadShops(shopList []*models.Shop, cfg settings.DataConfig) Shops {
	return Shops{shopsPath(cfg): shopList}
}

// SelectShops loads every shop from the store. The shops inventory has
// no shard fields to select by, so SelectShops takes no selectors and
// always calls q.BySelector with the single empty selector.
func SelectShops(ctx context.Context, q StoreQuerier[*models.Shop], cfg settings.DataConfig) (Shops, error) {
	items, err := q.BySelector(ctx, Selector{})
	if err != nil {
		return nil, err
	}
	return Shops{shopsPath(cfg): items}, nil
}

// ReadShops parses the single shops shard file, logging and returning
// an empty inventory (not an error) if it fails to parse — matching
// Shops.read's try/except around ShopsReader.
func ReadShops(cfg settings.DataConfig, onError ShardLogger) Shops {
	path := shopsPath(cfg)
	shopList, err := ioformat.NewShopsReader(path).Read()
	if err != nil {
		if onError != nil {
			onError(path, err)
		}
		return Shops{path: nil}
	}
	return Shops{path: shopList}
}

// WriteShops persists the shops shard.
func WriteShops(inv Shops) error {
	return Write(inv, func(path string, shopList []*models.Shop) error {
		return ioformat.NewShopsWriter(path, shopList, nil).Write()
	})
}

func cloneShop(s *models.Shop) *models.Shop {
	clone := *s
	clone.DiscountIndicators = append([]string(nil), s.DiscountIndicators...)
	return &clone
}

// MergeShops implements §4.2's merge_update for shops, keyed by Key —
// the only identifying field a Shop has. Mirrors
// original_source/rechu/inventory/shops.py's merge_update, generalized
// to actually merge attributes (the source's own implementation is an
// unfinished `# TODO: Merge` that never calls Shop.merge; this
// catalog's Shop.Merge is fully implemented, so the generalized
// three-way merge here exercises it).
func MergeShops(self, other Shops, update, onlyNew bool) (Shops, error) {
	find := func(existing []*models.Shop, incoming *models.Shop) (*models.Shop, bool) {
		for _, s := range existing {
			if s.Key == incoming.Key {
				return s, true
			}
		}
		return nil, false
	}
	merge := func(existing, incoming *models.Shop, override bool) (bool, error) {
		return existing.Merge(incoming, override)
	}
	return MergeUpdate(self, other, find, merge, cloneShop, update, onlyNew)
}

// FindShop looks up a shop by key within a shard, or builds a stub
// carrying only the key when absent. Mirrors Shops.find.
func FindShop(shard []*models.Shop, key string) *models.Shop {
	return Find(shard, key,
		func(s *models.Shop) string { return s.Key },
		func(key string) *models.Shop { return &models.Shop{Key: key} },
	)
}
