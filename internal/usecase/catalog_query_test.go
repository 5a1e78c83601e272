package usecase

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

func sampleProducts() []domain.Product {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Product{
		{ID: "3", Name: "Galaxy S24", Brand: "Samsung", Category: "smartphones", Price: 899, Discount: 10, Rating: 4.7, InStock: true, Featured: true, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "1", Name: "iPhone 15", Brand: "Apple", Category: "smartphones", Price: 999, Rating: 4.8, InStock: true, CreatedAt: base.Add(1 * time.Hour)},
		{ID: "10", Name: "MagSafe Charger", Brand: "apple", Category: "Accessories", Price: 39, Discount: 5, Rating: 4.2, InStock: true, CreatedAt: base.Add(10 * time.Hour)},
		{ID: "2", Name: "Pixel 8", Brand: "Google", Category: "smartphones", Price: 699, Rating: 4.5, InStock: false, Featured: true, CreatedAt: base.Add(2 * time.Hour), Description: "Tensor G3 chip"},
		{ID: "4", Name: "Galaxy Buds", Brand: "Samsung", Category: "accessories", Price: 199, Discount: 25, Rating: 4.2, InStock: true, CreatedAt: base.Add(4 * time.Hour)},
	}
}

func ids(list []domain.Product) []domain.ProductID {
	out := make([]domain.ProductID, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestQuery_DefaultSortsByNumericID(t *testing.T) {
	res := Query(sampleProducts(), domain.QueryParams{})
	assert.Equal(t, []domain.ProductID{"1", "2", "3", "4", "10"}, ids(res.Page))
	assert.Equal(t, 5, res.TotalCount)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, domain.DefaultPageSize, res.PageSize)
}

func TestQuery_DealsKeepsOnlyDiscounted(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Price: 10, Discount: 0},
		{ID: "2", Price: 20, Discount: 50},
	}
	res := Query(products, domain.QueryParams{Category: domain.CategoryDeals})
	assert.Equal(t, []domain.ProductID{"2"}, ids(res.Page))
	assert.Equal(t, 1, res.TotalCount)
}

func TestQuery_CategoryFilters(t *testing.T) {
	tests := []struct {
		name     string
		category domain.CategoryFilter
		want     []domain.ProductID
	}{
		{"featured", domain.CategoryFeatured, []domain.ProductID{"2", "3"}},
		{"named category is case insensitive", "ACCESSORIES", []domain.ProductID{"4", "10"}},
		{"new orders by recency", domain.CategoryNew, []domain.ProductID{"10", "4", "3", "2", "1"}},
		{"unknown category", "tablets", []domain.ProductID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Query(sampleProducts(), domain.QueryParams{Category: tt.category})
			assert.Equal(t, tt.want, ids(res.Page))
		})
	}
}

func TestQuery_BrandAndSearch(t *testing.T) {
	res := Query(sampleProducts(), domain.QueryParams{Brand: "APPLE"})
	assert.Equal(t, []domain.ProductID{"1", "10"}, ids(res.Page))

	res = Query(sampleProducts(), domain.QueryParams{Search: "  galaxy "})
	assert.Equal(t, []domain.ProductID{"3", "4"}, ids(res.Page))

	res = Query(sampleProducts(), domain.QueryParams{Search: "tensor"})
	assert.Equal(t, []domain.ProductID{"2"}, ids(res.Page), "description is searchable")

	res = Query(sampleProducts(), domain.QueryParams{Search: "ACCESS"})
	assert.Equal(t, []domain.ProductID{"4", "10"}, ids(res.Page), "category is searchable")
}

func TestQuery_EmptySearchIsNoop(t *testing.T) {
	for _, key := range []domain.SortKey{domain.SortDefault, domain.SortPriceLow, domain.SortRating, domain.SortNameDesc} {
		withEmpty := Query(sampleProducts(), domain.QueryParams{Sort: key, Search: "   "})
		without := Query(sampleProducts(), domain.QueryParams{Sort: key})
		assert.Equal(t, without, withEmpty)
	}
}

func TestQuery_SortKeys(t *testing.T) {
	tests := []struct {
		key  domain.SortKey
		want []domain.ProductID
	}{
		{domain.SortPriceLow, []domain.ProductID{"10", "4", "2", "3", "1"}},
		{domain.SortPriceHigh, []domain.ProductID{"1", "3", "2", "4", "10"}},
		{domain.SortRating, []domain.ProductID{"1", "3", "2", "4", "10"}},
		{domain.SortDiscount, []domain.ProductID{"4", "3", "10", "1", "2"}},
		{domain.SortNewest, []domain.ProductID{"10", "4", "3", "2", "1"}},
		{domain.SortNameAsc, []domain.ProductID{"4", "3", "1", "10", "2"}},
		{domain.SortNameDesc, []domain.ProductID{"2", "10", "1", "3", "4"}},
		{"bogus", []domain.ProductID{"1", "2", "3", "4", "10"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			res := Query(sampleProducts(), domain.QueryParams{Sort: tt.key})
			assert.Equal(t, tt.want, ids(res.Page))
		})
	}
}

func TestQuery_SortIsIdempotent(t *testing.T) {
	for _, key := range []domain.SortKey{domain.SortPriceLow, domain.SortRating, domain.SortDiscount, domain.SortNameAsc} {
		first := Query(sampleProducts(), domain.QueryParams{Sort: key})
		second := Query(first.Page, domain.QueryParams{Sort: key})
		assert.Equal(t, ids(first.Page), ids(second.Page), key)
	}
}

func TestQuery_FacetsBeforeSearch(t *testing.T) {
	res := Query(sampleProducts(), domain.QueryParams{Category: "smartphones", Search: "pixel"})
	assert.Equal(t, []string{"all", "Apple", "Google", "Samsung"}, res.Brands)
	assert.Equal(t, []string{"smartphones"}, res.Categories)
	assert.Equal(t, 1, res.TotalCount)

	res = Query(sampleProducts(), domain.QueryParams{})
	assert.Equal(t, []string{"all", "Apple", "Google", "Samsung"}, res.Brands, "brands deduplicated case-insensitively")
	assert.Equal(t, []string{"Accessories", "smartphones"}, res.Categories)
}

func TestQuery_Pagination(t *testing.T) {
	products := make([]domain.Product, 0, 21)
	for i := 1; i <= 21; i++ {
		products = append(products, domain.Product{ID: domain.ProductID(fmt.Sprint(i)), Price: float64(i)})
	}

	seen := 0
	for page := 1; page <= 4; page++ {
		res := Query(products, domain.QueryParams{Page: page})
		require.LessOrEqual(t, len(res.Page), domain.DefaultPageSize)
		assert.Equal(t, 21, res.TotalCount)
		assert.Equal(t, 3, res.TotalPages)
		seen += len(res.Page)
	}
	assert.Equal(t, 21, seen)

	last := Query(products, domain.QueryParams{Page: 3})
	assert.Equal(t, []domain.ProductID{"17", "18", "19", "20", "21"}, ids(last.Page))

	beyond := Query(products, domain.QueryParams{Page: 9})
	assert.Empty(t, beyond.Page)
	assert.NotNil(t, beyond.Page)

	zero := Query(products, domain.QueryParams{Page: 0, PageSize: 5})
	assert.Equal(t, 1, zero.PageNumber)
	assert.Len(t, zero.Page, 5)
}

func TestQuery_HugePageNumbersYieldEmptyPage(t *testing.T) {
	for _, p := range []domain.QueryParams{
		{Page: math.MaxInt},
		{Page: 1<<61 + 1},
		{Page: math.MaxInt, PageSize: math.MaxInt},
		{Page: 2, PageSize: math.MaxInt},
	} {
		var res domain.QueryResult
		require.NotPanics(t, func() { res = Query(sampleProducts(), p) }, "page %d size %d", p.Page, p.PageSize)
		assert.Empty(t, res.Page, "page %d size %d", p.Page, p.PageSize)
		assert.Equal(t, 5, res.TotalCount)
	}

	res := Query(sampleProducts(), domain.QueryParams{PageSize: math.MaxInt})
	assert.Len(t, res.Page, 5)
	assert.Equal(t, 1, res.TotalPages)
}

func TestQuery_EmptyInput(t *testing.T) {
	res := Query(nil, domain.QueryParams{Category: domain.CategoryDeals, Search: "x"})
	assert.Empty(t, res.Page)
	assert.Equal(t, 0, res.TotalCount)
	assert.Equal(t, []string{"all"}, res.Brands)
	assert.Empty(t, res.Categories)
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	products := sampleProducts()
	before := ids(products)
	Query(products, domain.QueryParams{Sort: domain.SortPriceHigh, Search: "a"})
	assert.Equal(t, before, ids(products))
}

func TestQueryParams_FilterChangesResetPage(t *testing.T) {
	q := domain.QueryParams{Page: 4}
	assert.Equal(t, 1, q.WithCategory(domain.CategoryDeals).Page)
	assert.Equal(t, 1, q.WithBrand("Apple").Page)
	assert.Equal(t, 1, q.WithSearch("pixel").Page)
	assert.Equal(t, 1, q.WithSort(domain.SortRating).Page)
	assert.Equal(t, 7, q.WithPage(7).Page)
}

func TestParseSortKeyAndCategory(t *testing.T) {
	assert.Equal(t, domain.SortPriceLow, ParseSortKey("price_asc"))
	assert.Equal(t, domain.SortPriceHigh, ParseSortKey("Price-High"))
	assert.Equal(t, domain.SortDefault, ParseSortKey(""))
	assert.Equal(t, domain.CategoryAll, ParseCategory(" "))
	assert.Equal(t, domain.CategoryFilter("smartphones"), ParseCategory("Smartphones"))
}
