package ioformat

import (
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rechu/catalog/internal/models"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

// shopDocument is one entry of a shops shard file (a plain top-level
// list), grounded in original_source/rechu/io/shops.py's _Shop TypedDict.
// The "products" YAML key maps to ProductURLTemplate, preserving the
// original's field name even though it reads as a template, not a list.
type shopDocument struct {
	Key                string   `yaml:"key"`
	Name               string   `yaml:"name,omitempty"`
	Website            string   `yaml:"website,omitempty"`
	Products           string   `yaml:"products,omitempty"`
	Wikidata           string   `yaml:"wikidata,omitempty"`
	DiscountIndicators []string `yaml:"discount_indicators,omitempty"`
}

// ShopsReader reads the single shops shard file, grounded in
// original_source/rechu/io/shops.py's ShopsReader.
type ShopsReader struct {
	Path string
}

func NewShopsReader(path string) *ShopsReader {
	return &ShopsReader{Path: path}
}

func (r *ShopsReader) Read() ([]*models.Shop, error) {
	file, err := os.Open(r.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.Parse(file)
}

func (r *ShopsReader) Parse(reader io.Reader) ([]*models.Shop, error) {
	var docs []shopDocument
	if err := yaml.NewDecoder(reader).Decode(&docs); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeMalformedContainer,
			"shops file does not contain an array")
	}

	shops := make([]*models.Shop, 0, len(docs))
	for _, doc := range docs {
		if doc.Key == "" {
			return nil, apperrors.MissingField("shop entry is missing required field 'key'")
		}
		shops = append(shops, &models.Shop{
			Key:                doc.Key,
			Name:               doc.Name,
			Website:            doc.Website,
			ProductURLTemplate: doc.Products,
			Wikidata:           doc.Wikidata,
			DiscountIndicators: doc.DiscountIndicators,
		})
	}
	return shops, nil
}

// ShopsWriter writes the single shops shard file, grounded in
// original_source/rechu/io/shops.py's ShopsWriter.
type ShopsWriter struct {
	Path    string
	Models  []*models.Shop
	Updated *time.Time
}

func NewShopsWriter(path string, models []*models.Shop, updated *time.Time) *ShopsWriter {
	return &ShopsWriter{Path: path, Models: models, Updated: updated}
}

func (w *ShopsWriter) Write() error {
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

func (w *ShopsWriter) Serialize(writer io.Writer) error {
	docs := make([]shopDocument, 0, len(w.Models))
	for _, shop := range w.Models {
		docs = append(docs, shopDocument{
			Key:                shop.Key,
			Name:               shop.Name,
			Website:            shop.Website,
			Products:           shop.ProductURLTemplate,
			Wikidata:           shop.Wikidata,
			DiscountIndicators: shop.DiscountIndicators,
		})
	}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(docs)
}
