package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/models"
	"github.com/rechu/catalog/internal/settings"
)

func TestSpreadShopsDegenerateShard(t *testing.T) {
	cfg := settings.DataConfig{Path: "/data", Shops: "shops.yml"}
	ah := &models.Shop{Key: "ah", Name: "Albert Heijn"}
	jumbo := &models.Shop{Key: "jumbo", Name: "Jumbo"}

	inv := SpreadShops([]*models.Shop{ah, jumbo}, cfg)
	require.Len(t, inv, 1, "shops has no shard fields, every shop lands in one shard")
	path := shopsPath(cfg)
	assert.ElementsMatch(t, []*models.Shop{ah, jumbo}, inv[path])
}

func TestReadWriteShopsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := settings.DataConfig{Path: dir, Shops: "shops.yml"}

	inv := Shops{shopsPath(cfg): {{
		Key:                "ah",
		Name:               "Albert Heijn",
		DiscountIndicators: []string{`\d+% korting`},
	}}}
	require.NoError(t, WriteShops(inv))

	read := ReadShops(cfg, nil)
	path := shopsPath(cfg)
	require.Contains(t, read, path)
	require.Len(t, read[path], 1)
	assert.Equal(t, "Albert Heijn", read[path][0].Name)
	assert.Equal(t, []string{`\d+% korting`}, read[path][0].DiscountIndicators)
}

func TestReadShopsReportsParseFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := settings.DataConfig{Path: dir, Shops: "missing.yml"}

	var errs []string
	inv := ReadShops(cfg, func(path string, err error) {
		errs = append(errs, path)
	})
	assert.Len(t, errs, 1)
	assert.Contains(t, inv, shopsPath(cfg))
	assert.Empty(t, inv[shopsPath(cfg)])
}

func TestMergeShopsAppliesShopMerge(t *testing.T) {
	cfg := settings.DataConfig{Path: "/data", Shops: "shops.yml"}
	path := shopsPath(cfg)

	ah := &models.Shop{Key: "ah", Name: "Albert Heijn"}
	self := Shops{path: {ah}}
	other := Shops{path: {{Key: "ah", Website: "https://ah.nl"}}}

	result, err := MergeShops(self, other, true, false)
	require.NoError(t, err)
	require.Contains(t, result, path)
	assert.Equal(t, "https://ah.nl", ah.Website, "existing shop merged in place")
}

func TestMergeShopsNoOverlapAppendsNewShop(t *testing.T) {
	cfg := settings.DataConfig{Path: "/data", Shops: "shops.yml"}
	path := shopsPath(cfg)

	self := Shops{path: {{Key: "ah", Name: "Albert Heijn"}}}
	other := Shops{path: {{Key: "jumbo", Name: "Jumbo"}}}

	result, err := MergeShops(self, other, true, false)
	require.NoError(t, err)
	require.Len(t, result[path], 2)
	assert.Len(t, self[path], 2, "update=true appends the new shop to self")
}

func TestFindShopBuildsStubWhenMissing(t *testing.T) {
	shard := []*models.Shop{{Key: "ah", Name: "Albert Heijn"}}

	found := FindShop(shard, "ah")
	assert.Same(t, shard[0], found)

	stub := FindShop(shard, "unknown")
	assert.Equal(t, "unknown", stub.Key)
	assert.Empty(t, stub.Name)
}

type stubShopQuerier struct {
	shops []*models.Shop
	err   error
}

func (q *stubShopQuerier) DistinctSelectors(ctx context.Context, fields []string) ([]Selector, error) {
	return nil, nil
}

func (q *stubShopQuerier) BySelector(ctx context.Context, sel Selector) ([]*models.Shop, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.shops, nil
}

func TestSelectShopsQueriesWithEmptySelector(t *testing.T) {
	cfg := settings.DataConfig{Path: "/data", Shops: "shops.yml"}
	q := &stubShopQuerier{shops: []*models.Shop{{Key: "ah"}}}

	inv, err := SelectShops(context.Background(), q, cfg)
	require.NoError(t, err)
	path := shopsPath(cfg)
	require.Contains(t, inv, path)
	assert.Len(t, inv[path], 1)
}
