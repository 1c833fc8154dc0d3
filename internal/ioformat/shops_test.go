package ioformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/models"
)

func TestShopsReader_Parse(t *testing.T) {
	doc := `
- key: ah
  name: Albert Heijn
  website: https://ah.nl
  products: "https://ah.nl/producten/product/{sku}"
  discount_indicators:
    - "BONUS"
- key: jumbo
  name: Jumbo
`
	shops, err := NewShopsReader("shops.yaml").Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, shops, 2)

	assert.Equal(t, "ah", shops[0].Key)
	assert.Equal(t, "Albert Heijn", shops[0].Name)
	assert.Equal(t, "https://ah.nl/producten/product/{sku}", shops[0].ProductURLTemplate)
	assert.Equal(t, []string{"BONUS"}, shops[0].DiscountIndicators)

	assert.Equal(t, "jumbo", shops[1].Key)
	assert.Empty(t, shops[1].ProductURLTemplate)
}

func TestShopsReader_Parse_MissingKey(t *testing.T) {
	doc := `
- name: No Key Shop
`
	_, err := NewShopsReader("shops.yaml").Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func TestShopsReader_Parse_NotAList(t *testing.T) {
	doc := `key: ah`
	_, err := NewShopsReader("shops.yaml").Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func TestShopsWriter_Serialize_RoundTrip(t *testing.T) {
	shops := []*models.Shop{
		{
			Key:                "ah",
			Name:               "Albert Heijn",
			ProductURLTemplate: "https://ah.nl/producten/product/{sku}",
			DiscountIndicators: []string{"BONUS"},
		},
	}
	var buf strings.Builder
	require.NoError(t, (&ShopsWriter{Models: shops}).Serialize(&buf))

	parsed, err := NewShopsReader("shops.yaml").Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, shops[0].Key, parsed[0].Key)
	assert.Equal(t, shops[0].ProductURLTemplate, parsed[0].ProductURLTemplate)
	assert.Equal(t, shops[0].DiscountIndicators, parsed[0].DiscountIndicators)
}
