package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// CatalogUC cachea el set de productos de la fuente y responde consultas
// sobre ese snapshot. Si el refresco falla se devuelve el error: el
// reintento lo dispara el próximo pedido.
type CatalogUC struct {
	Source domain.CatalogSource
	TTL    time.Duration
	Now    func() time.Time

	mu      sync.Mutex
	catalog *domain.Catalog
}

func (uc *CatalogUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Snapshot devuelve el catálogo vigente, refrescándolo si venció.
func (uc *CatalogUC) Snapshot(ctx context.Context) (*domain.Catalog, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.catalog != nil && (uc.TTL <= 0 || uc.now().Sub(uc.catalog.FetchedAt) < uc.TTL) {
		return uc.catalog, nil
	}
	c, err := uc.Source.FetchCatalog(ctx)
	if err != nil {
		uc.catalog = nil
		return nil, fmt.Errorf("catálogo: %w", err)
	}
	c.FetchedAt = uc.now()
	uc.catalog = c
	log.Debug().Int("products", len(c.Products)).Msg("catálogo actualizado")
	return c, nil
}

// Invalidate fuerza la recarga en el próximo pedido.
func (uc *CatalogUC) Invalidate() {
	uc.mu.Lock()
	uc.catalog = nil
	uc.mu.Unlock()
}

func (uc *CatalogUC) Query(ctx context.Context, p domain.QueryParams) (domain.QueryResult, error) {
	c, err := uc.Snapshot(ctx)
	if err != nil {
		return domain.QueryResult{}, err
	}
	return Query(c.Products, p), nil
}

func (uc *CatalogUC) Get(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("id vacío: %w", domain.ErrValidation)
	}
	c, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range c.Products {
		if c.Products[i].ID == id {
			p := c.Products[i]
			return &p, nil
		}
	}
	if finder, ok := uc.Source.(domain.ProductFinder); ok {
		return finder.FetchProduct(ctx, id)
	}
	return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
}

// Deals devuelve todos los productos con descuento, mayor descuento primero.
func (uc *CatalogUC) Deals(ctx context.Context) ([]domain.Product, error) {
	c, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	res := Query(c.Products, domain.QueryParams{Category: domain.CategoryDeals, Sort: domain.SortDiscount, PageSize: max(len(c.Products), 1)})
	return res.Page, nil
}

func (uc *CatalogUC) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	c, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	return Query(c.Products, domain.QueryParams{Category: domain.CategoryFeatured, PageSize: limit}).Page, nil
}

// Categories prefiere la lista publicada por la fuente y si no hay la
// deriva de los productos.
func (uc *CatalogUC) Categories(ctx context.Context) ([]string, error) {
	c, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(c.Categories) > 0 {
		return append([]string{}, c.Categories...), nil
	}
	return Query(c.Products, domain.QueryParams{}).Categories, nil
}

// Related devuelve hasta limit productos de la misma marca o categoría.
func (uc *CatalogUC) Related(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error) {
	c, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 4
	}
	out := []domain.Product{}
	for _, o := range Query(c.Products, domain.QueryParams{Sort: domain.SortRating, PageSize: max(len(c.Products), 1)}).Page {
		if o.ID == p.ID {
			continue
		}
		if strings.EqualFold(o.Brand, p.Brand) || strings.EqualFold(o.Category, p.Category) {
			out = append(out, o)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
