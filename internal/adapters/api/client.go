package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/phenrril/storefront/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client habla con la API remota de catálogo, carrito y usuarios. Cada
// llamada es un único intento: los reintentos los dispara el usuario.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	catalogLimit int
	now          func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func WithCatalogLimit(n int) Option { return func(c *Client) { c.catalogLimit = n } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		catalogLimit: 500,
		now:          time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session devuelve un cliente que firma los pedidos con el token guardado
// en store y lo borra cuando la API responde 401.
func (c *Client) Session(store domain.Storage) *SessionClient {
	return &SessionClient{client: c, store: store}
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("serializar %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrNetworkUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return statusError(method, path, res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrNetworkUnavailable, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: respuesta inválida: %w: %v", method, path, domain.ErrRemoteUnavailable, err)
	}
	return nil
}

func statusError(method, path string, res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	msg := strings.TrimSpace(string(b))
	var ae apiError
	if json.Unmarshal(b, &ae) == nil {
		if ae.Message != "" {
			msg = ae.Message
		} else if ae.Error != "" {
			msg = ae.Error
		}
	}
	var kind error
	switch {
	case res.StatusCode == http.StatusUnauthorized:
		kind = domain.ErrUnauthorized
	case res.StatusCode == http.StatusNotFound:
		kind = domain.ErrNotFound
	case res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnprocessableEntity:
		kind = domain.ErrValidation
	default:
		kind = domain.ErrRemoteUnavailable
	}
	if msg == "" {
		return fmt.Errorf("%s %s status %d: %w", method, path, res.StatusCode, kind)
	}
	return fmt.Errorf("%s %s status %d: %w: %s", method, path, res.StatusCode, kind, msg)
}

// FetchCatalog implementa domain.CatalogSource.
func (c *Client) FetchCatalog(ctx context.Context) (*domain.Catalog, error) {
	q := url.Values{}
	if c.catalogLimit > 0 {
		q.Set("limit", strconv.Itoa(c.catalogLimit))
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/products", q, "", nil, &raw); err != nil {
		return nil, err
	}
	return DecodeCatalog(raw)
}

// FetchProduct implementa domain.ProductFinder.
func (c *Client) FetchProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(string(id)), nil, "", nil, &raw); err != nil {
		return nil, err
	}
	var env struct {
		Product *apiProduct `json:"product"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Product != nil {
		p := productFromAPI(*env.Product)
		return &p, nil
	}
	var ap apiProduct
	if err := json.Unmarshal(raw, &ap); err != nil {
		return nil, fmt.Errorf("producto %s: %w: %v", id, domain.ErrRemoteUnavailable, err)
	}
	p := productFromAPI(ap)
	if p.ID == "" {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

// Login implementa domain.AuthGateway; no necesita token previo.
func (c *Client) Login(ctx context.Context, cred domain.Credentials) (*domain.Session, error) {
	var out struct {
		Token string  `json:"token"`
		User  apiUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, "", cred, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login sin token: %w", domain.ErrRemoteUnavailable)
	}
	return &domain.Session{Token: out.Token, User: userFromAPI(out.User)}, nil
}

// tokenExpired lee el exp de un JWT sin verificar la firma. Los tokens
// opacos nunca se consideran vencidos.
func tokenExpired(raw string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

var errNoToken = errors.New("sin token")
