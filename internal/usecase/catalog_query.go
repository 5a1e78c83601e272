package usecase

import (
	"sort"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
)

// Query filtra, ordena y pagina un set de productos en memoria. Es una
// función pura: mismos productos y mismos parámetros dan el mismo resultado.
//
// Las facetas (marcas y categorías) se calculan después de los filtros de
// categoría y marca y antes de la búsqueda por texto.
func Query(products []domain.Product, p domain.QueryParams) domain.QueryResult {
	p = normalizeParams(p)

	filtered := make([]domain.Product, 0, len(products))
	for _, pr := range products {
		if matchCategory(pr, p.Category) && matchBrand(pr, p.Brand) {
			filtered = append(filtered, pr)
		}
	}

	res := domain.QueryResult{PageNumber: p.Page, PageSize: p.PageSize}
	res.Brands, res.Categories = facets(filtered)

	if term := strings.ToLower(strings.TrimSpace(p.Search)); term != "" {
		kept := filtered[:0]
		for _, pr := range filtered {
			if matchSearch(pr, term) {
				kept = append(kept, pr)
			}
		}
		filtered = kept
	}

	sortProducts(filtered, effectiveSort(p))

	n := len(filtered)
	res.TotalCount = n
	res.TotalPages = n / p.PageSize
	if n%p.PageSize != 0 {
		res.TotalPages++
	}
	// se compara contra TotalPages antes de multiplicar: page y pageSize
	// vienen del pedido y el producto puede desbordar
	if p.Page > res.TotalPages {
		res.Page = []domain.Product{}
		return res
	}
	start := (p.Page - 1) * p.PageSize
	end := n
	if n-start > p.PageSize {
		end = start + p.PageSize
	}
	res.Page = append([]domain.Product{}, filtered[start:end]...)
	return res
}

func normalizeParams(p domain.QueryParams) domain.QueryParams {
	if p.Category == "" {
		p.Category = domain.CategoryAll
	}
	if strings.TrimSpace(p.Brand) == "" {
		p.Brand = domain.BrandAll
	}
	if p.Sort == "" {
		p.Sort = domain.SortDefault
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = domain.DefaultPageSize
	}
	return p
}

func effectiveSort(p domain.QueryParams) domain.SortKey {
	if p.Category == domain.CategoryNew && p.Sort == domain.SortDefault {
		return domain.SortNewest
	}
	return p.Sort
}

func matchCategory(p domain.Product, c domain.CategoryFilter) bool {
	switch c {
	case domain.CategoryAll, domain.CategoryNew:
		return true
	case domain.CategoryDeals:
		return p.Discount > 0
	case domain.CategoryFeatured:
		return p.Featured
	}
	return strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(string(c)))
}

func matchBrand(p domain.Product, brand string) bool {
	if strings.EqualFold(brand, domain.BrandAll) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(p.Brand), strings.TrimSpace(brand))
}

func matchSearch(p domain.Product, term string) bool {
	for _, field := range []string{p.Name, p.Brand, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func facets(list []domain.Product) (brands, categories []string) {
	brands = append([]string{domain.BrandAll}, distinct(list, func(p domain.Product) string { return p.Brand })...)
	categories = distinct(list, func(p domain.Product) string { return p.Category })
	return brands, categories
}

func distinct(list []domain.Product, field func(domain.Product) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range list {
		v := strings.TrimSpace(field(p))
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// sortProducts parte siempre del orden por id ascendente para que los
// empates se resuelvan de forma determinística.
func sortProducts(list []domain.Product, key domain.SortKey) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID.Less(list[j].ID) })
	var less func(a, b domain.Product) bool
	switch key {
	case domain.SortPriceLow:
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case domain.SortPriceHigh:
		less = func(a, b domain.Product) bool { return a.Price > b.Price }
	case domain.SortRating:
		less = func(a, b domain.Product) bool { return a.Rating > b.Rating }
	case domain.SortDiscount:
		less = func(a, b domain.Product) bool { return a.Discount > b.Discount }
	case domain.SortNewest:
		less = func(a, b domain.Product) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return b.ID.Less(a.ID)
		}
	case domain.SortNameAsc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case domain.SortNameDesc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	default:
		return
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}

// ParseSortKey tolera los alias que usa el front (price_asc, price_desc).
func ParseSortKey(s string) domain.SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price-low", "price_asc":
		return domain.SortPriceLow
	case "price-high", "price_desc":
		return domain.SortPriceHigh
	case "rating":
		return domain.SortRating
	case "discount":
		return domain.SortDiscount
	case "newest":
		return domain.SortNewest
	case "name-asc", "name":
		return domain.SortNameAsc
	case "name-desc":
		return domain.SortNameDesc
	}
	return domain.SortDefault
}

func ParseCategory(s string) domain.CategoryFilter {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return domain.CategoryAll
	}
	return domain.CategoryFilter(v)
}
