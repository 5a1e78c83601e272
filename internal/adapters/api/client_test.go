package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/adapters/storage/memory"
	"github.com/phenrril/storefront/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, WithHTTPClient(srv.Client()))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestFetchCatalog_Envelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"products":[
			{"id":1,"name":"iPhone 15","brand":"Apple","category":"smartphones","price":"999.5","originalPrice":899,"discount":150,"rating":7,"image":"a.jpg"},
			{"_id":"abc","name":"Galaxy","brand":"Samsung","price":500,"inStock":false,"images":["g1.jpg"," "],"createdAt":"2024-05-01T00:00:00Z"},
			{"name":"sin id","price":1},
			{"id":"1","name":"duplicado","price":1}
		],"categories":["smartphones",""]}`)
	})

	cat, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Products, 2)
	assert.Equal(t, []string{"smartphones"}, cat.Categories)

	p := cat.Products[0]
	assert.Equal(t, domain.ProductID("1"), p.ID)
	assert.Equal(t, 999.5, p.Price)
	assert.Equal(t, 999.5, p.OriginalPrice)
	assert.Equal(t, 100, p.Discount)
	assert.Equal(t, 5.0, p.Rating)
	assert.True(t, p.InStock)
	assert.Equal(t, []string{"a.jpg"}, p.Images)

	g := cat.Products[1]
	assert.Equal(t, domain.ProductID("abc"), g.ID)
	assert.False(t, g.InStock)
	assert.Equal(t, []string{"g1.jpg"}, g.Images)
	assert.Equal(t, 2024, g.CreatedAt.Year())
}

func TestFetchCatalog_BareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":7,"name":"Pixel","price":700}]`)
	})
	cat, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Products, 1)
	assert.Empty(t, cat.Categories)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusBadRequest, domain.ErrValidation},
		{http.StatusUnprocessableEntity, domain.ErrValidation},
		{http.StatusInternalServerError, domain.ErrRemoteUnavailable},
		{http.StatusBadGateway, domain.ErrRemoteUnavailable},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, `{"message":"fallo"}`)
		})
		_, err := c.FetchProduct(context.Background(), "1")
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
		assert.Contains(t, err.Error(), "fallo")
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(url, time.Second)
	_, err := c.FetchCatalog(context.Background())
	require.ErrorIs(t, err, domain.ErrNetworkUnavailable)
}

func TestInvalidJSONIsRemoteUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"products":`)
	})
	_, err := c.FetchCatalog(context.Background())
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestFetchProduct_EnvelopeAndBare(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/products/1" {
			_, _ = io.WriteString(w, `{"product":{"id":1,"name":"A","price":10}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":2,"name":"B","price":20}`)
	})
	p, err := c.FetchProduct(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)

	p, err = c.FetchProduct(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "B", p.Name)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var cred domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
		assert.Equal(t, "ana@example.com", cred.Email)
		_, _ = io.WriteString(w, `{"token":"tok","user":{"_id":"u1","email":"ana@example.com","name":"Ana"}}`)
	})
	s, err := c.Login(context.Background(), domain.Credentials{Email: "ana@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "u1", s.User.ID)
}

func TestSession_SendsBearerAndDecodesCart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Set(ctx, domain.StorageKeyToken, []byte(token)))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/cart":
			_, _ = io.WriteString(w, `{"items":[{"product":{"id":1,"name":"A","price":10,"images":["a.jpg"]},"quantity":2,"selectedColor":"Negro"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/cart":
			var body apiCartLine
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, flexString("1"), body.ProductID)
			assert.Equal(t, 3, body.Quantity)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/cart/1":
			assert.Equal(t, "Negro", r.URL.Query().Get("selectedColor"))
			_, _ = io.WriteString(w, `[]`)
		default:
			t.Errorf("pedido inesperado %s %s", r.Method, r.URL.Path)
		}
	})
	sc := c.Session(store)

	lines, err := sc.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ProductID("1"), lines[0].ProductID)
	assert.Equal(t, "a.jpg", lines[0].Image)
	assert.Equal(t, "Negro", lines[0].SelectedColor)

	// POST sin cuerpo: el carrito se vuelve a pedir
	lines, err = sc.AddLine(ctx, domain.CartLine{ProductID: "1", Quantity: 3})
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	lines, err = sc.RemoveLine(ctx, domain.LineKey{ProductID: "1", Color: "Negro"})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSession_ExpiredTokenIsDroppedLocally(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, domain.StorageKeyToken, []byte(signedToken(t, time.Now().Add(-time.Minute)))))

	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := c.Session(store).FetchCart(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, called)

	_, err = store.Get(ctx, domain.StorageKeyToken)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_UnauthorizedDeletesToken(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, domain.StorageKeyToken, []byte("opaco")))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.Session(store).Me(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = store.Get(ctx, domain.StorageKeyToken)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_NoTokenIsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no debería llamar a la API")
	})
	_, err := c.Session(memory.New()).FetchCart(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSubmitSupportAnonymous(t *testing.T) {
	var got domain.SupportRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})
	err := c.Session(memory.New()).SubmitSupport(context.Background(), domain.SupportRequest{Reference: "r1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "r1", got.Reference)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, tokenExpired("opaco", now))
	assert.False(t, tokenExpired(signedToken(t, now.Add(time.Hour)), now))
	assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Hour)), now))
}
