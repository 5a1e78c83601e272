package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

const relatedLimit = 4

func queryParams(r *http.Request) domain.QueryParams {
	qv := r.URL.Query()
	page, _ := strconv.Atoi(qv.Get("page"))
	size, _ := strconv.Atoi(qv.Get("pageSize"))
	size = min(size, domain.MaxPageSize)
	search := qv.Get("search")
	if search == "" {
		search = qv.Get("q")
	}
	return domain.QueryParams{
		Category: usecase.ParseCategory(qv.Get("category")),
		Brand:    qv.Get("brand"),
		Search:   search,
		Sort:     usecase.ParseSortKey(qv.Get("sort")),
		Page:     page,
		PageSize: size,
	}
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	res, err := s.catalog.Query(r.Context(), queryParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiProductByID(w http.ResponseWriter, r *http.Request) {
	id := domain.ProductID(chi.URLParam(r, "id"))
	p, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	related, err := s.catalog.Related(r.Context(), *p, relatedLimit)
	if err != nil {
		related = nil
	}
	if related == nil {
		related = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p, "related": related})
}

func (s *Server) apiDeals(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.Deals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": list})
}

func (s *Server) apiFeatured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.catalog.Featured(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": list})
}

func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}
