package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/adapters/storage/localfs"
	"github.com/phenrril/storefront/internal/config"
)

func TestNewApp_JSONCatalogOverLocalFS(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(catalog, []byte(`[{"id":1,"name":"iPhone","brand":"Apple","category":"smartphones","price":10}]`), 0o644))

	cfg, err := config.FromEnv(func(k string) string {
		return map[string]string{
			"CATALOG_SOURCE": "json",
			"CATALOG_FILE":   catalog,
			"STORAGE_DRIVER": "fs",
			"STORAGE_DIR":    filepath.Join(dir, "data"),
		}[k]
	})
	require.NoError(t, err)

	a, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &localfs.Store{}, a.Storage)

	rec := httptest.NewRecorder()
	a.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"iPhone"`)
}
