package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

type Server struct {
	router   *chi.Mux
	catalog  *usecase.CatalogUC
	auth     *usecase.AuthUC
	support  *usecase.SupportUC
	sessions *Sessions
}

func New(catalog *usecase.CatalogUC, auth *usecase.AuthUC, support *usecase.SupportUC, sessions *Sessions) http.Handler {
	s := &Server{catalog: catalog, auth: auth, support: support, sessions: sessions, router: chi.NewRouter()}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(hlog.NewHandler(log.Logger))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		lvl := zerolog.InfoLevel
		if status >= 500 {
			lvl = zerolog.WarnLevel
		}
		hlog.FromRequest(r).WithLevel(lvl).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("req_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("dur", d).
			Msg("http")
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.routes()
	return s.router
}

func (s *Server) routes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/products", s.apiProducts)
		r.Get("/products/{id}", s.apiProductByID)
		r.Get("/deals", s.apiDeals)
		r.Get("/featured", s.apiFeatured)
		r.Get("/categories", s.apiCategories)

		r.Get("/cart", s.apiCart)
		r.Get("/cart/count", s.apiCartCount)
		r.Post("/cart/items", s.apiCartAdd)
		r.Patch("/cart/items", s.apiCartUpdate)
		r.Delete("/cart/items", s.apiCartRemove)
		r.Delete("/cart", s.apiCartClear)
		r.Post("/cart/promo", s.apiCartPromo)
		r.Post("/cart/reload", s.apiCartReload)
		r.Post("/cart/sync", s.apiCartSync)

		r.Post("/auth/login", s.apiLogin)
		r.Post("/auth/logout", s.apiLogout)
		r.Get("/auth/me", s.apiMe)

		r.Get("/support/faq", s.apiFAQ)
		r.Post("/support", s.apiSupport)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Cart    *domain.CartSnapshot `json:"cart,omitempty"`
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusConflict, "out_of_stock"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, "invalid_quantity"
	case errors.Is(err, domain.ErrInvalidPromoCode):
		return http.StatusUnprocessableEntity, "invalid_promo_code"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusBadGateway, "remote_unavailable"
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable, "network_unavailable"
	case errors.Is(err, domain.ErrClosed):
		return http.StatusServiceUnavailable, "closed"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorWithCart(w, r, err, nil)
}

// writeErrorWithCart adjunta el carrito vigente para que la UI no tenga que
// pedirlo de nuevo después de un fallo.
func writeErrorWithCart(w http.ResponseWriter, r *http.Request, err error, cart *domain.CartSnapshot) {
	code, kind := errorStatus(err)
	if code >= 500 {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("error en handler")
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "error interno"
	}
	writeJSON(w, code, errorBody{Error: kind, Message: msg, Cart: cart})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: json inválido", domain.ErrValidation)
	}
	return nil
}
