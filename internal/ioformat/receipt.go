package ioformat

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

const receiptDateLayout = "2006-01-02"

// receiptDocument is the top-level shape of a receipt file: a date, a
// shop key, an ordered list of item tuples, and an ordered list of
// discount ("bonus") tuples, grounded in
// original_source/rechu/io/receipt.py's ReceiptReader.parse.
type receiptDocument struct {
	Date     string          `yaml:"date"`
	Shop     string          `yaml:"shop"`
	Products [][]string      `yaml:"products"`
	Bonus    [][]string      `yaml:"bonus,omitempty"`
}

// ReceiptReader reads a single receipt file, grounded in
// original_source/rechu/io/receipt.py's ReceiptReader. Filename and
// Updated are supplied by the caller (the filesystem path and the file's
// mtime) rather than read from the document body.
type ReceiptReader struct {
	Path    string
	Updated time.Time
}

func NewReceiptReader(path string, updated time.Time) *ReceiptReader {
	return &ReceiptReader{Path: path, Updated: updated}
}

func (r *ReceiptReader) Read() ([]*models.Receipt, error) {
	file, err := os.Open(r.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.Parse(file)
}

func (r *ReceiptReader) Parse(reader io.Reader) ([]*models.Receipt, error) {
	var doc receiptDocument
	if err := yaml.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeMalformedContainer,
			"receipt file does not contain a mapping")
	}
	if doc.Date == "" || doc.Shop == "" {
		return nil, apperrors.MissingField("receipt file is missing required field 'date' or 'shop'")
	}
	date, err := time.Parse(receiptDateLayout, doc.Date)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "invalid receipt date")
	}

	receipt := &models.Receipt{
		Filename:  filepath.Base(r.Path),
		UpdatedAt: r.Updated,
		Date:      date,
		ShopKey:   doc.Shop,
	}

	for position, item := range doc.Products {
		if len(item) < 3 {
			return nil, apperrors.MissingField("receipt product item requires quantity, label and price")
		}
		quantity, err := measure.ParseQuantity(item[0])
		if err != nil {
			return nil, err
		}
		price, err := measure.NewPrice(item[2])
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "invalid receipt item price")
		}
		productItem := &models.ProductItem{
			ReceiptFilename: receipt.Filename,
			Quantity:        quantity,
			Label:           item[1],
			Price:           price,
			Position:        position,
		}
		if len(item) > 3 {
			productItem.DiscountIndicator = item[3]
		}
		receipt.Items = append(receipt.Items, productItem)
	}

	for position, entry := range doc.Bonus {
		if len(entry) < 2 {
			return nil, apperrors.MissingField("receipt discount requires a label and a price decrease")
		}
		priceDecrease, err := measure.NewPrice(entry[1])
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "invalid receipt discount price")
		}
		discount := &models.Discount{
			ReceiptFilename: receipt.Filename,
			Label:           entry[0],
			PriceDecrease:   priceDecrease,
			Position:        position,
		}
		discount.Items = matchDiscountItems(entry[2:], receipt.Items)
		receipt.Discounts = append(receipt.Discounts, discount)
	}

	return []*models.Receipt{receipt}, nil
}

// matchDiscountItems greedily consumes receipt items in position order,
// matching each discount item-label against the next unconsumed item
// whose discount indicator is set and whose label matches, per
// original_source/rechu/io/receipt.py's ReceiptReader._discount.
func matchDiscountItems(labels []string, items []*models.ProductItem) []*models.ProductItem {
	matched := make([]*models.ProductItem, 0, len(labels))
	seen := 0
	for _, label := range labels {
		for index, item := range items[seen:] {
			if item.DiscountIndicator != "" && item.Label == label {
				matched = append(matched, item)
				seen += index + 1
				break
			}
		}
	}
	return matched
}

// ReceiptWriter writes a single receipt file, grounded in the inverse of
// original_source/rechu/io/receipt.py's ReceiptReader: item positions and
// discount item associations round-trip verbatim (§5's ordering guarantee).
type ReceiptWriter struct {
	Path    string
	Model   *models.Receipt
	Updated *time.Time
}

func NewReceiptWriter(path string, receipt *models.Receipt, updated *time.Time) *ReceiptWriter {
	return &ReceiptWriter{Path: path, Model: receipt, Updated: updated}
}

func (w *ReceiptWriter) Write() error {
	file, err := os.Create(w.Path)
	if err != nil {
		return err
	}
	if serr := w.Serialize(file); serr != nil {
		file.Close()
		return serr
	}
	if err := file.Close(); err != nil {
		return err
	}
	return setMTime(w.Path, w.Updated)
}

func (w *ReceiptWriter) Serialize(writer io.Writer) error {
	doc := receiptDocument{
		Date: w.Model.Date.Format(receiptDateLayout),
		Shop: w.Model.ShopKey,
	}
	for _, item := range w.Model.Items {
		row := []string{item.Quantity.Spelling(), item.Label, item.Price.String()}
		if item.DiscountIndicator != "" {
			row = append(row, item.DiscountIndicator)
		}
		doc.Products = append(doc.Products, row)
	}
	for _, discount := range w.Model.Discounts {
		row := []string{discount.Label, discount.PriceDecrease.String()}
		for _, item := range discount.Items {
			row = append(row, item.Label)
		}
		doc.Bonus = append(doc.Bonus, row)
	}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(doc)
}
