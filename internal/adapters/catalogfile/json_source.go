package catalogfile

import (
	"context"
	"fmt"
	"os"

	"github.com/phenrril/storefront/internal/adapters/api"
	"github.com/phenrril/storefront/internal/domain"
)

// JSONSource lee el catálogo de un products.json local con el mismo
// formato que devuelve la API.
type JSONSource struct {
	Path string
}

func (s JSONSource) FetchCatalog(ctx context.Context) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w: %v", s.Path, domain.ErrRemoteUnavailable, err)
	}
	return api.DecodeCatalog(b)
}
