package domain

type CategoryFilter string

const (
	CategoryAll      CategoryFilter = "all"
	CategoryDeals    CategoryFilter = "deals"
	CategoryFeatured CategoryFilter = "featured"
	CategoryNew      CategoryFilter = "new"
)

type SortKey string

const (
	SortDefault   SortKey = "default"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortDiscount  SortKey = "discount"
	SortNewest    SortKey = "newest"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

const (
	BrandAll        = "all"
	DefaultPageSize = 8
	// MaxPageSize limita el pageSize que llega por HTTP.
	MaxPageSize = 100
)

type QueryParams struct {
	Category CategoryFilter `json:"category"`
	Brand    string         `json:"brand"`
	Search   string         `json:"search"`
	Sort     SortKey        `json:"sort"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// WithCategory, WithBrand, WithSearch y WithSort devuelven una copia con el
// filtro cambiado y la página reiniciada a 1.
func (q QueryParams) WithCategory(c CategoryFilter) QueryParams {
	q.Category = c
	q.Page = 1
	return q
}

func (q QueryParams) WithBrand(b string) QueryParams {
	q.Brand = b
	q.Page = 1
	return q
}

func (q QueryParams) WithSearch(s string) QueryParams {
	q.Search = s
	q.Page = 1
	return q
}

func (q QueryParams) WithSort(s SortKey) QueryParams {
	q.Sort = s
	q.Page = 1
	return q
}

func (q QueryParams) WithPage(page int) QueryParams {
	q.Page = page
	return q
}

type QueryResult struct {
	Page       []Product `json:"page"`
	TotalCount int       `json:"totalCount"`
	TotalPages int       `json:"totalPages"`
	PageNumber int       `json:"pageNumber"`
	PageSize   int       `json:"pageSize"`
	Brands     []string  `json:"brands"`
	Categories []string  `json:"categories"`
}
