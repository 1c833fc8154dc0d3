package inventory

import (
	"context"

	"github.com/rechu/catalog/internal/ioformat"
	"github.com/rechu/catalog/internal/matching"
	"github.com/rechu/catalog/internal/models"
	"github.com/rechu/catalog/internal/settings"
)

// Products is an Inventory of product metadata, sharded by the fields
// the `data.products` filename template references (typically just
// shop, sometimes also category/type). Grounded on
// original_source/rechu/inventory/products.py's Products class.
type Products = Inventory[*models.Product]

// ProductGroup extracts the selector fields Products sharding can
// reference from a single Product: every scalar attribute the filename
// template grammar (§6) is allowed to name.
func ProductGroup(fields []string) func(*models.Product) Selector {
	return func(p *models.Product) Selector {
		sel := make(Selector, len(fields))
		for _, field := range fields {
			sel[field] = productField(p, field)
		}
		return sel
	}
}

func productField(p *models.Product, field string) string {
	switch field {
	case "shop":
		return p.ShopKey
	case "category":
		return p.Category
	case "type":
		return p.Type
	case "brand":
		return p.Brand
	default:
		return ""
	}
}

// SpreadProducts groups models by the shard fields the products
// template references, rooted at dataPath.
func SpreadProducts(modelsList []*models.Product, template *Template, dataPath string) Products {
	return Spread(modelsList, template, dataPath, ProductGroup(template.Fields()))
}

// SelectProducts loads products from the store grouped by shard,
// narrowing via selectors when given.
func SelectProducts(ctx context.Context, q StoreQuerier[*models.Product], template *Template, dataPath string, selectors []Selector) (Products, error) {
	return Select(ctx, q, template, dataPath, selectors)
}

// ReadProducts scans dataPath for files matching template and parses
// each with a ProductsReader, logging and skipping any that fail.
func ReadProducts(dataPath string, template *Template, onError ShardLogger) (Products, error) {
	return Read[*models.Product](dataPath, template, func(path string) ([]*models.Product, error) {
		return ioformat.NewProductsReader(path).Read()
	}, onError)
}

// WriteProducts persists every changed shard back via ProductsWriter.
func WriteProducts(inv Products) error {
	return Write(inv, func(path string, products []*models.Product) error {
		return ioformat.NewProductsWriter(path, products, nil).Write()
	})
}

// cloneProduct returns a copy of p suitable for MergeUpdate's
// update=false path: its own scalar fields are copied, its matcher/
// range slices get fresh backing arrays, and each range member is
// cloned in turn. Merge only appends to the matcher slices, so matcher
// elements are shared with the original; it merges into existing range
// members in place, so those are not.
func cloneProduct(p *models.Product) *models.Product {
	clone := *p
	clone.Labels = append([]*models.LabelMatch(nil), p.Labels...)
	clone.Prices = append([]*models.PriceMatch(nil), p.Prices...)
	clone.Discounts = append([]*models.DiscountMatch(nil), p.Discounts...)
	clone.Range = append([]*models.Product(nil), p.Range...)
	for i, member := range clone.Range {
		clone.Range[i] = cloneProduct(member)
	}
	return &clone
}

// MergeProducts implements §4.2's merge_update for products: the
// uniqueness index (matching.Map) stands in for the per-inventory
// match index the algorithm calls for, built once from self across all
// shards (not just the shard currently being merged), matching
// original_source/rechu/inventory/products.py's
// `matcher.fill_map(self)` called before the per-path loop.
func MergeProducts(self, other Products, update, onlyNew bool) (Products, error) {
	index := matching.New()
	var shards [][]*models.Product
	for _, shard := range self {
		shards = append(shards, shard)
	}
	index.FillMap(shards...)

	find := func(_ []*models.Product, incoming *models.Product) (*models.Product, bool) {
		if existing := index.CheckMap(incoming); existing != nil {
			return existing, true
		}
		return nil, false
	}
	merge := func(existing, incoming *models.Product, override bool) (bool, error) {
		return existing.Merge(incoming, override)
	}
	return MergeUpdate(self, other, find, merge, cloneProduct, update, onlyNew)
}

// FindProduct looks up a product by SKU within a shard, or builds a
// stub carrying only the shop and SKU when absent — mirroring the
// generic find(key, update_map?) operation for the product case, used
// by interactive creation flows to resolve a partially-known product
// reference without first querying the store.
func FindProduct(shard []*models.Product, shopKey, sku string) *models.Product {
	return Find(shard, shopKey+"\x1e"+sku,
		func(p *models.Product) string {
			if p.SKU == "" {
				return ""
			}
			return p.ShopKey + "\x1e" + p.SKU
		},
		func(string) *models.Product {
			return &models.Product{ShopKey: shopKey, SKU: sku}
		},
	)
}

// ProductsTemplate parses the `data.products` filename template from
// settings.
func ProductsTemplate(cfg settings.DataConfig) (*Template, error) {
	return ParseTemplate(cfg.Products)
}
