package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rechu/catalog/internal/models"
)

func TestProductRepositoryDistinctSelectorsGroupsByShop(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sess, err := s.Open(ctx)
	require.NoError(t, err)
	defer sess.Close(nil)

	repo := NewProductRepository(sess.DB())
	require.NoError(t, repo.Create(ctx, &models.Product{ShopKey: "ah", SKU: "a"}))
	require.NoError(t, repo.Create(ctx, &models.Product{ShopKey: "ah", SKU: "b"}))
	require.NoError(t, repo.Create(ctx, &models.Product{ShopKey: "jumbo", SKU: "c"}))

	selectors, err := repo.DistinctSelectors(ctx, []string{"shop"})
	require.NoError(t, err)
	var shops []string
	for _, sel := range selectors {
		shops = append(shops, sel["shop"])
	}
	assert.ElementsMatch(t, []string{"ah", "jumbo"}, shops)
}

func TestProductRepositoryDistinctSelectorsRejectsUnknownField(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sess, err := s.Open(ctx)
	require.NoError(t, err)
	defer sess.Close(nil)

	_, err = NewProductRepository(sess.DB()).DistinctSelectors(ctx, []string{"unknown"})
	assert.Error(t, err)
}

func TestProductRepositoryBySelectorFiltersByShop(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sess, err := s.Open(ctx)
	require.NoError(t, err)
	defer sess.Close(nil)

	repo := NewProductRepository(sess.DB())
	require.NoError(t, repo.Create(ctx, &models.Product{ShopKey: "ah", SKU: "a"}))
	require.NoError(t, repo.Create(ctx, &models.Product{ShopKey: "jumbo", SKU: "c"}))

	products, err := repo.BySelector(ctx, map[string]string{"shop": "ah"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "a", products[0].SKU)
}

func TestShopRepositoryCRUD(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sess, err := s.Open(ctx)
	require.NoError(t, err)
	defer sess.Close(nil)

	repo := NewShopRepository(sess.DB())
	require.NoError(t, repo.Create(ctx, &models.Shop{Key: "ah", Name: "Albert Heijn"}))

	got, err := repo.GetByKey(ctx, "ah")
	require.NoError(t, err)
	assert.Equal(t, "Albert Heijn", got.Name)

	got.Website = "https://ah.nl"
	require.NoError(t, repo.Update(ctx, got))

	refetched, err := repo.GetByKey(ctx, "ah")
	require.NoError(t, err)
	assert.Equal(t, "https://ah.nl", refetched.Website)

	require.NoError(t, repo.Delete(ctx, "ah"))
	_, err = repo.GetByKey(ctx, "ah")
	assert.Error(t, err)
}
