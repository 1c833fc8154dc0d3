package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rechu/catalog/internal/measure"
)

// Receipt is identified by its filename, a short derived token. It
// exclusively owns its items and discounts (cascade on delete).
// Mirrors original_source/rechu/models/receipt.py.
type Receipt struct {
	bun.BaseModel `bun:"table:receipts,alias:r"`

	Filename  string    `bun:"filename,pk" json:"filename"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	ShopKey   string    `bun:"shop_key,notnull" json:"shop_key"`

	Items     []*ProductItem `bun:"rel:has-many,join:filename=receipt_filename" json:"items,omitempty"`
	Discounts []*Discount    `bun:"rel:has-many,join:filename=receipt_filename" json:"discounts,omitempty"`
}

func (r *Receipt) TableName() string { return "receipts" }

// NewReceiptFilename derives a short token identity when a caller doesn't
// supply one, matching the teacher's uuid.New() usage throughout
// internal/services.
func NewReceiptFilename() string {
	return uuid.New().String()[:8]
}

// TotalPrice sums item prices and discount decreases (supplemented
// feature, grounded in original_source/rechu/models/receipt.py's
// total_price property — named in the spec's Testable Properties
// scenario 1 but not spelled out as an operation).
func (r *Receipt) TotalPrice() measure.Price {
	total := measure.ZeroPrice
	for _, item := range r.Items {
		total = total.Add(item.Price)
	}
	for _, discount := range r.Discounts {
		total = total.Add(discount.PriceDecrease)
	}
	return total
}

// ProductItem is a receipt line item. Identity: opaque integer id,
// shop-scoped through its receipt.
type ProductItem struct {
	bun.BaseModel `bun:"table:product_items,alias:pi"`

	ID               int64            `bun:"id,pk,autoincrement" json:"id"`
	ReceiptFilename  string           `bun:"receipt_filename,notnull" json:"receipt_filename"`
	Quantity         measure.Quantity `bun:"quantity,notnull" json:"quantity"`
	Label            string           `bun:"label,notnull" json:"label"`
	Price            measure.Price    `bun:"price,notnull" json:"price"`
	DiscountIndicator string          `bun:"discount_indicator" json:"discount_indicator,omitempty"`
	ProductID        *int64           `bun:"product_id" json:"product_id,omitempty"`
	Position         int              `bun:"position,notnull" json:"position"`
}

func (i *ProductItem) TableName() string { return "product_items" }

// Amount is the numeric magnitude of Quantity.
func (i *ProductItem) Amount() float64 {
	f, _ := i.Quantity.Amount.Float64()
	return f
}

// Unit is the normalized unit of Quantity, or the dimensionless Zero unit.
func (i *ProductItem) Unit() measure.Unit { return i.Quantity.Unit }

// DiscountIndicators splits DiscountIndicator via the item's shop's
// indicator patterns.
func (i *ProductItem) DiscountIndicators(shop *Shop) []string {
	return shop.SplitDiscountIndicators(i.DiscountIndicator)
}

// Discount belongs to a receipt and applies, via an ordered many-to-many
// link, to a set of ProductItems.
type Discount struct {
	bun.BaseModel `bun:"table:discounts,alias:d"`

	ID              int64         `bun:"id,pk,autoincrement" json:"id"`
	ReceiptFilename string        `bun:"receipt_filename,notnull" json:"receipt_filename"`
	Label           string        `bun:"label,notnull" json:"label"`
	PriceDecrease   measure.Price `bun:"price_decrease,notnull" json:"price_decrease"`
	Position        int           `bun:"position,notnull" json:"position"`

	Items []*ProductItem `bun:"m2m:discount_items,join:Discount=ProductItem" json:"items,omitempty"`
}

func (d *Discount) TableName() string { return "discounts" }

// DiscountItem is the many-to-many join row between a Discount and the
// ProductItems it applies to, preserving application order. Grounded in
// original_source/rechu/models/receipt.py's DiscountItems association
// table (supplemented feature — see DESIGN.md).
type DiscountItem struct {
	bun.BaseModel `bun:"table:discount_items,alias:di"`

	DiscountID    int64 `bun:"discount_id,pk" json:"discount_id"`
	ProductItemID int64 `bun:"product_item_id,pk" json:"product_item_id"`
	Position      int   `bun:"position,notnull" json:"position"`
}

func (DiscountItem) TableName() string { return "discount_items" }
