package ioformat

import (
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rechu/catalog/internal/measure"
	"github.com/rechu/catalog/internal/models"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

// productsDocument is the top-level shape of a product shard file,
// grounded in original_source/rechu/io/products.py's ProductsReader.parse:
// a shared shop (and optionally category/type) header plus a products list.
type productsDocument struct {
	Shop     string        `yaml:"shop"`
	Category string        `yaml:"category,omitempty"`
	Type     string        `yaml:"type,omitempty"`
	Products []productMeta `yaml:"products"`
}

type productMeta struct {
	Brand       string    `yaml:"brand,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Category    string    `yaml:"category,omitempty"`
	Type        string    `yaml:"type,omitempty"`
	Portions    int       `yaml:"portions,omitempty"`
	Weight      string    `yaml:"weight,omitempty"`
	Volume      string    `yaml:"volume,omitempty"`
	Alcohol     string    `yaml:"alcohol,omitempty"`
	SKU         string    `yaml:"sku,omitempty"`
	GTIN        string    `yaml:"gtin,omitempty"`
	Labels      []string  `yaml:"labels,omitempty"`
	Prices      yaml.Node `yaml:"prices,omitempty"`
	Bonuses     []string  `yaml:"bonuses,omitempty"`
}

// ProductsReader reads a products shard file, grounded in
// original_source/rechu/io/products.py's ProductsReader.
type ProductsReader struct {
	Path    string
	Updated time.Time
}

func NewProductsReader(path string) *ProductsReader {
	return &ProductsReader{Path: path}
}

func (r *ProductsReader) Read() ([]*models.Product, error) {
	file, err := os.Open(r.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.Parse(file)
}

func (r *ProductsReader) Parse(reader io.Reader) ([]*models.Product, error) {
	var doc productsDocument
	if err := yaml.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeMalformedContainer,
			"products file does not contain a mapping")
	}
	if doc.Shop == "" {
		return nil, apperrors.MissingField("products file is missing required field 'shop'")
	}

	products := make([]*models.Product, 0, len(doc.Products))
	for _, meta := range doc.Products {
		product, err := r.buildProduct(doc, meta)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *ProductsReader) buildProduct(doc productsDocument, meta productMeta) (*models.Product, error) {
	product := &models.Product{
		ShopKey:      doc.Shop,
		Brand:        meta.Brand,
		Description:  meta.Description,
		Category:     firstNonEmpty(meta.Category, doc.Category),
		Type:         firstNonEmpty(meta.Type, doc.Type),
		PortionCount: meta.Portions,
		SKU:          meta.SKU,
	}

	if meta.Weight != "" {
		quantity, err := measure.ParseQuantity(meta.Weight)
		if err != nil {
			return nil, err
		}
		product.Weight = &quantity
	}
	if meta.Volume != "" {
		quantity, err := measure.ParseQuantity(meta.Volume)
		if err != nil {
			return nil, err
		}
		product.Volume = &quantity
	}
	if meta.Alcohol != "" {
		quantity, err := measure.ParseQuantity(meta.Alcohol)
		if err != nil {
			return nil, err
		}
		product.Alcohol = &quantity
	}
	if meta.GTIN != "" {
		gtin, err := measure.NewGTIN(meta.GTIN)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "invalid gtin")
		}
		product.GTIN = gtin
	}

	for i, name := range meta.Labels {
		product.Labels = append(product.Labels, &models.LabelMatch{Pattern: name, Position: i})
	}
	prices, err := parsePriceMatchers(meta.Prices)
	if err != nil {
		return nil, err
	}
	product.Prices = prices
	for i, label := range meta.Bonuses {
		product.Discounts = append(product.Discounts, &models.DiscountMatch{Pattern: label, Position: i})
	}

	return product, nil
}

// parsePriceMatchers decodes the polymorphic "prices" field: either a
// plain sequence of unindicated prices, or a mapping of indicator name to
// price, per original_source/rechu/io/products.py's ProductsReader.parse.
func parsePriceMatchers(node yaml.Node) ([]*models.PriceMatch, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		matchers := make([]*models.PriceMatch, 0, len(node.Content))
		for i, child := range node.Content {
			value, err := decodePrice(child)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, &models.PriceMatch{Value: value, Position: i})
		}
		return matchers, nil
	case yaml.MappingNode:
		matchers := make([]*models.PriceMatch, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			indicator := node.Content[i].Value
			value, err := decodePrice(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, &models.PriceMatch{Value: value, Indicator: indicator, Position: i / 2})
		}
		return matchers, nil
	default:
		return nil, apperrors.TypeConversion("product price matcher is neither a list nor a mapping")
	}
}

func decodePrice(node *yaml.Node) (measure.Price, error) {
	var raw string
	if err := node.Decode(&raw); err != nil {
		var f float64
		if ferr := node.Decode(&f); ferr != nil {
			return measure.Price{}, apperrors.TypeConversion("price matcher value is not numeric")
		}
		price, err := measure.NewPrice(f)
		if err != nil {
			return measure.Price{}, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "invalid price matcher value")
		}
		return price, nil
	}
	price, err := measure.NewPrice(raw)
	if err != nil {
		return measure.Price{}, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "invalid price matcher value")
	}
	return price, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ProductsWriter writes a products shard file, grounded in
// original_source/rechu/io/products.py's ProductsWriter. All Models must
// share a shop; writing a heterogeneous batch fails with a Validation
// error rather than silently choosing one.
type ProductsWriter struct {
	Path    string
	Models  []*models.Product
	Updated *time.Time
}

func NewProductsWriter(path string, models []*models.Product, updated *time.Time) *ProductsWriter {
	return &ProductsWriter{Path: path, Models: models, Updated: updated}
}

func (w *ProductsWriter) Write() error {
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

func (w *ProductsWriter) Serialize(writer io.Writer) error {
	doc, err := w.buildDocument()
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(doc)
}

func (w *ProductsWriter) buildDocument() (*productsDocument, error) {
	doc := &productsDocument{}
	shops := map[string]bool{}
	categories := map[string]bool{}
	types := map[string]bool{}
	for _, product := range w.Models {
		shops[product.ShopKey] = true
		categories[product.Category] = true
		types[product.Type] = true
	}
	if len(shops) > 1 {
		return nil, apperrors.Validation("not all products are from the same shop")
	}
	for shop := range shops {
		doc.Shop = shop
	}
	skipCategory := len(categories) == 1
	skipType := len(types) == 1
	if skipCategory {
		for c := range categories {
			doc.Category = c
		}
	}
	if skipType {
		for t := range types {
			doc.Type = t
		}
	}

	for _, product := range w.Models {
		meta := productMeta{
			Brand:       product.Brand,
			Description: product.Description,
			Portions:    product.PortionCount,
			SKU:         product.SKU,
		}
		if !skipCategory {
			meta.Category = product.Category
		}
		if !skipType {
			meta.Type = product.Type
		}
		if product.Weight != nil {
			meta.Weight = product.Weight.Spelling()
		}
		if product.Volume != nil {
			meta.Volume = product.Volume.Spelling()
		}
		if product.Alcohol != nil {
			meta.Alcohol = product.Alcohol.Spelling()
		}
		if !product.GTIN.IsZero() {
			meta.GTIN = product.GTIN.String()
		}
		for _, label := range product.Labels {
			meta.Labels = append(meta.Labels, label.Pattern)
		}
		for _, discount := range product.Discounts {
			meta.Bonuses = append(meta.Bonuses, discount.Pattern)
		}
		priceNode, err := encodePriceMatchers(product.Prices)
		if err != nil {
			return nil, err
		}
		if priceNode != nil {
			meta.Prices = *priceNode
		}
		doc.Products = append(doc.Products, meta)
	}
	return doc, nil
}

// encodePriceMatchers mirrors ProductsWriter._get_prices: an indicator on
// any price forces the whole list to serialize as a mapping, and mixing
// indicator-bearing and unindicated prices is rejected.
func encodePriceMatchers(prices []*models.PriceMatch) (*yaml.Node, error) {
	if len(prices) == 0 {
		return nil, nil
	}
	var plain []*models.PriceMatch
	var indicated []*models.PriceMatch
	for _, p := range prices {
		if p.Indicator == "" {
			plain = append(plain, p)
		} else {
			indicated = append(indicated, p)
		}
	}
	if len(indicated) > 0 {
		if len(plain) > 0 {
			return nil, apperrors.Validation("not all price matchers have indicators")
		}
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, p := range indicated {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: p.Indicator},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: p.Value.String()})
		}
		return node, nil
	}
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, p := range plain {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: p.Value.String()})
	}
	return node, nil
}
