package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

type fakeSource struct {
	catalog *domain.Catalog
	err     error
	calls   int
}

func (f *fakeSource) FetchCatalog(context.Context) (*domain.Catalog, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c := *f.catalog
	return &c, nil
}

func TestCatalogUC_CachesUntilTTL(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{catalog: &domain.Catalog{Products: sampleProducts()}}
	uc := &CatalogUC{Source: src, TTL: time.Minute, Now: func() time.Time { return now }}
	ctx := context.Background()

	_, err := uc.Query(ctx, domain.QueryParams{})
	require.NoError(t, err)
	_, err = uc.Query(ctx, domain.QueryParams{Category: domain.CategoryDeals})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	_, err = uc.Query(ctx, domain.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	uc.Invalidate()
	_, err = uc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestCatalogUC_FetchErrorIsReturnedAndRetried(t *testing.T) {
	src := &fakeSource{err: domain.ErrNetworkUnavailable}
	uc := &CatalogUC{Source: src, TTL: time.Hour}
	ctx := context.Background()

	_, err := uc.Query(ctx, domain.QueryParams{})
	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)

	src.err = nil
	src.catalog = &domain.Catalog{Products: sampleProducts()}
	res, err := uc.Query(ctx, domain.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)
}

func TestCatalogUC_Get(t *testing.T) {
	uc := &CatalogUC{Source: &fakeSource{catalog: &domain.Catalog{Products: sampleProducts()}}}
	ctx := context.Background()

	p, err := uc.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Pixel 8", p.Name)

	_, err = uc.Get(ctx, "77")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Get(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCatalogUC_DealsFeaturedCategoriesRelated(t *testing.T) {
	src := &fakeSource{catalog: &domain.Catalog{Products: sampleProducts()}}
	uc := &CatalogUC{Source: src}
	ctx := context.Background()

	deals, err := uc.Deals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductID{"4", "3", "10"}, ids(deals))

	featured, err := uc.Featured(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductID{"2"}, ids(featured))

	cats, err := uc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessories", "smartphones"}, cats)

	src.catalog.Categories = []string{"Smartphones", "Accessories", "Wearables"}
	uc.Invalidate()
	cats, err = uc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Smartphones", "Accessories", "Wearables"}, cats)

	galaxy, err := uc.Get(ctx, "3")
	require.NoError(t, err)
	related, err := uc.Related(ctx, *galaxy, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductID{"1", "2"}, ids(related))
}

func TestCatalogUC_EmptyCatalog(t *testing.T) {
	uc := &CatalogUC{Source: &fakeSource{catalog: &domain.Catalog{}}}
	deals, err := uc.Deals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deals)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
