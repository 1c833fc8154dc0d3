package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/rechu/catalog/internal/inventory"
	"github.com/rechu/catalog/internal/models"
	"github.com/rechu/catalog/internal/repositories/base"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

// ShopRepository is the relational half of the Shops inventory: it
// implements inventory.StoreQuerier[*models.Shop] atop the generic
// base.Repository, mirroring the teacher's
// internal/repositories/store_repository.go wrapping pattern.
type ShopRepository struct {
	base *base.Repository[models.Shop]
}

func NewShopRepository(db bun.IDB) *ShopRepository {
	return &ShopRepository{base: base.NewRepository[models.Shop](db, "sh.key")}
}

// DistinctSelectors is trivial for shops: the shops shard has no
// template fields (§6's degenerate single-shard case), so there is
// exactly one selector regardless of what fields callers ask about.
func (r *ShopRepository) DistinctSelectors(context.Context, []string) ([]inventory.Selector, error) {
	return []inventory.Selector{{}}, nil
}

// BySelector ignores sel (shops are never sharded) and loads every shop.
func (r *ShopRepository) BySelector(ctx context.Context, _ inventory.Selector) ([]*models.Shop, error) {
	return r.base.GetAll(ctx, base.WithOrderClause[models.Shop]("sh.key ASC"))
}

func (r *ShopRepository) GetByKey(ctx context.Context, key string) (*models.Shop, error) {
	return r.base.GetByID(ctx, key)
}

func (r *ShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	return r.base.Create(ctx, shop)
}

func (r *ShopRepository) Update(ctx context.Context, shop *models.Shop) error {
	return r.base.Update(ctx, shop)
}

func (r *ShopRepository) Delete(ctx context.Context, key string) error {
	return r.base.DeleteByID(ctx, key)
}

// productColumn maps an inventory shard field name to the products
// table column it shards by. Kept in lock-step with
// internal/inventory/products.go's productField switch.
func productColumn(field string) (string, bool) {
	switch field {
	case "shop":
		return "shop_key", true
	case "category":
		return "category", true
	case "type":
		return "type", true
	case "brand":
		return "brand", true
	default:
		return "", false
	}
}

// ProductRepository implements inventory.StoreQuerier[*models.Product]
// and exposes the relation-preloaded candidate-pool query
// (candidatePoolQuery's counterpart) plus plain CRUD, mirroring
// internal/repositories/product_master_repository.go's shape.
type ProductRepository struct {
	db   bun.IDB
	base *base.Repository[models.Product]
}

func NewProductRepository(db bun.IDB) *ProductRepository {
	return &ProductRepository{db: db, base: base.NewRepository[models.Product](db, "p.id")}
}

type productSelectorRow struct {
	Shop     string `bun:"shop_key"`
	Category string `bun:"category"`
	Type     string `bun:"type"`
	Brand    string `bun:"brand"`
}

// DistinctSelectors enumerates the distinct tuples of fields' values
// present in the products table, used by select() when called with no
// selectors — mirrors Products.select's store-side distinct-tuple
// enumeration.
func (r *ProductRepository) DistinctSelectors(ctx context.Context, fields []string) ([]inventory.Selector, error) {
	if len(fields) == 0 {
		return []inventory.Selector{{}}, nil
	}
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		column, ok := productColumn(field)
		if !ok {
			return nil, apperrors.ValidationF("unknown product shard field %q", field)
		}
		columns = append(columns, column)
	}

	var rows []productSelectorRow
	query := r.db.NewSelect().
		TableExpr("products AS p").
		ColumnExpr(columnExprList(columns))
	for _, column := range columns {
		query = query.Group(column)
	}
	if err := query.Scan(ctx, &rows); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	selectors := make([]inventory.Selector, 0, len(rows))
	for _, row := range rows {
		sel := make(inventory.Selector, len(fields))
		for _, field := range fields {
			switch field {
			case "shop":
				sel["shop"] = row.Shop
			case "category":
				sel["category"] = row.Category
			case "type":
				sel["type"] = row.Type
			case "brand":
				sel["brand"] = row.Brand
			}
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

func columnExprList(columns []string) string {
	expr := ""
	for i, column := range columns {
		if i > 0 {
			expr += ", "
		}
		expr += column
	}
	return expr
}

// BySelector loads every product matching sel's field values, with the
// same relation set candidatePoolQuery preloads.
func (r *ProductRepository) BySelector(ctx context.Context, sel inventory.Selector) ([]*models.Product, error) {
	var products []*models.Product
	query := r.db.NewSelect().
		Model(&products).
		Relation("Labels").
		Relation("Prices").
		Relation("Discounts").
		Relation("Range.Labels").
		Relation("Range.Prices").
		Relation("Range.Discounts").
		Order("p.generic_id ASC", "p.id ASC")

	for field, value := range sel {
		column, ok := productColumn(field)
		if !ok {
			return nil, apperrors.ValidationF("unknown product shard field %q", field)
		}
		query = query.Where(fmt.Sprintf("p.%s = ?", column), value)
	}

	if err := query.Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return []*models.Product{}, nil
		}
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	return r.base.GetByID(ctx, id)
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.base.Create(ctx, product)
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.base.Update(ctx, product)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return r.base.DeleteByID(ctx, id)
}

// ReceiptRepository is a plain CRUD wrapper, not an inventory.StoreQuerier
// implementation: receipts are persisted to the store but are not
// file-sharded the way Shops/Products are (§4.2 scopes the inventory
// engine to those two types only).
type ReceiptRepository struct {
	db   bun.IDB
	base *base.Repository[models.Receipt]
}

func NewReceiptRepository(db bun.IDB) *ReceiptRepository {
	return &ReceiptRepository{db: db, base: base.NewRepository[models.Receipt](db, "r.filename")}
}

func (r *ReceiptRepository) GetByFilename(ctx context.Context, filename string) (*models.Receipt, error) {
	return r.base.GetByID(ctx, filename, base.WithQuery[models.Receipt](func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Items").Relation("Discounts").Relation("Discounts.Items")
	}))
}

func (r *ReceiptRepository) ByShop(ctx context.Context, shopKey string) ([]*models.Receipt, error) {
	var receipts []*models.Receipt
	err := r.db.NewSelect().
		Model(&receipts).
		Relation("Items").
		Relation("Discounts").
		Where("r.shop_key = ?", shopKey).
		Order("r.date ASC").
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return []*models.Receipt{}, nil
		}
		return nil, err
	}
	return receipts, nil
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.base.Create(ctx, receipt)
}

func (r *ReceiptRepository) Update(ctx context.Context, receipt *models.Receipt) error {
	return r.base.Update(ctx, receipt)
}

func (r *ReceiptRepository) Delete(ctx context.Context, filename string) error {
	return r.base.DeleteByID(ctx, filename)
}
