package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// SessionClient es el cliente de un visitante: carrito, usuario y soporte.
type SessionClient struct {
	client *Client
	store  domain.Storage
}

// bearer lee el token del Storage. Un JWT vencido se borra sin ir a la red.
func (s *SessionClient) bearer(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, domain.StorageKeyToken)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && len(raw) == 0) {
		return "", errNoToken
	}
	if err != nil {
		return "", fmt.Errorf("leer token: %w", err)
	}
	tok := string(raw)
	if tokenExpired(tok, s.client.now()) {
		s.clearToken(ctx)
		return "", fmt.Errorf("token vencido: %w", domain.ErrUnauthorized)
	}
	return tok, nil
}

func (s *SessionClient) clearToken(ctx context.Context) {
	if err := s.store.Delete(ctx, domain.StorageKeyToken); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Msg("no se pudo borrar el token")
	}
}

// authed exige token y borra el token si la API responde 401.
func (s *SessionClient) authed(ctx context.Context, method, path string, query url.Values, in, out any) error {
	tok, err := s.bearer(ctx)
	if errors.Is(err, errNoToken) {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrUnauthorized)
	}
	if err != nil {
		return err
	}
	err = s.client.do(ctx, method, path, query, tok, in, out)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.clearToken(ctx)
	}
	return err
}

func (s *SessionClient) Login(ctx context.Context, c domain.Credentials) (*domain.Session, error) {
	return s.client.Login(ctx, c)
}

func (s *SessionClient) Me(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := s.authed(ctx, http.MethodGet, "/api/auth/me", nil, nil, &raw); err != nil {
		return nil, err
	}
	var env struct {
		User *apiUser `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.User != nil {
		u := userFromAPI(*env.User)
		return &u, nil
	}
	var au apiUser
	if err := json.Unmarshal(raw, &au); err != nil {
		return nil, fmt.Errorf("usuario: %w: %v", domain.ErrRemoteUnavailable, err)
	}
	u := userFromAPI(au)
	return &u, nil
}

func (s *SessionClient) FetchCart(ctx context.Context) ([]domain.CartLine, error) {
	var raw json.RawMessage
	if err := s.authed(ctx, http.MethodGet, "/api/cart", nil, nil, &raw); err != nil {
		return nil, err
	}
	lines, _, err := cartFromAPI(raw)
	return lines, err
}

func (s *SessionClient) AddLine(ctx context.Context, line domain.CartLine) ([]domain.CartLine, error) {
	return s.cartCommand(ctx, http.MethodPost, "/api/cart", nil, cartLineToAPI(line))
}

func (s *SessionClient) UpdateLine(ctx context.Context, key domain.LineKey, qty int) ([]domain.CartLine, error) {
	body := map[string]any{
		"quantity":        qty,
		"selectedColor":   key.Color,
		"selectedStorage": key.Storage,
	}
	return s.cartCommand(ctx, http.MethodPut, "/api/cart/"+url.PathEscape(string(key.ProductID)), nil, body)
}

func (s *SessionClient) RemoveLine(ctx context.Context, key domain.LineKey) ([]domain.CartLine, error) {
	q := url.Values{}
	if key.Color != "" {
		q.Set("selectedColor", key.Color)
	}
	if key.Storage != "" {
		q.Set("selectedStorage", key.Storage)
	}
	return s.cartCommand(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(string(key.ProductID)), q, nil)
}

func (s *SessionClient) ClearCart(ctx context.Context) error {
	return s.authed(ctx, http.MethodDelete, "/api/cart", nil, nil, nil)
}

// cartCommand ejecuta la mutación y, si la API no devuelve el carrito en
// la respuesta, lo pide aparte.
func (s *SessionClient) cartCommand(ctx context.Context, method, path string, query url.Values, in any) ([]domain.CartLine, error) {
	var raw json.RawMessage
	if err := s.authed(ctx, method, path, query, in, &raw); err != nil {
		return nil, err
	}
	lines, ok, err := cartFromAPI(raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.FetchCart(ctx)
	}
	return lines, nil
}

func (s *SessionClient) SubmitSupport(ctx context.Context, req domain.SupportRequest) error {
	// soporte acepta pedidos anónimos
	tok, _ := s.bearer(ctx)
	return s.client.do(ctx, http.MethodPost, "/api/support", nil, tok, req, nil)
}
