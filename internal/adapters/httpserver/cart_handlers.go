package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

type cartItemRequest struct {
	ProductID       domain.ProductID `json:"productId"`
	SelectedColor   string           `json:"selectedColor"`
	SelectedStorage string           `json:"selectedStorage"`
	Quantity        int              `json:"quantity"`
}

func (c cartItemRequest) key() domain.LineKey {
	return domain.LineKey{ProductID: c.ProductID, Color: c.SelectedColor, Storage: c.SelectedStorage}
}

// visitor resuelve la sesión o escribe el error y devuelve nil.
func (s *Server) visitor(w http.ResponseWriter, r *http.Request) *usecase.Visitor {
	v, err := s.sessions.Visitor(w, r)
	if err != nil {
		writeError(w, r, err)
		return nil
	}
	return v
}

// writeCart responde con el snapshot y, si hubo error, con el error y el
// snapshot vigente.
func writeCart(w http.ResponseWriter, r *http.Request, snap domain.CartSnapshot, err error) {
	if err != nil {
		writeErrorWithCart(w, r, err, &snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) apiCart(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	writeJSON(w, http.StatusOK, v.Cart.Snapshot())
}

func (s *Server) apiCartCount(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": v.Badge.Count()})
}

func (s *Server) apiCartAdd(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(string(req.ProductID)) == "" {
		writeError(w, r, fmt.Errorf("%w: productId", domain.ErrValidation))
		return
	}
	p, err := s.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := v.Cart.AddItem(r.Context(), *p, req.SelectedColor, req.SelectedStorage, req.Quantity)
	writeCart(w, r, snap, err)
}

func (s *Server) apiCartUpdate(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := v.Cart.SetQuantity(r.Context(), req.key(), req.Quantity)
	writeCart(w, r, snap, err)
}

func (s *Server) apiCartRemove(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	qv := r.URL.Query()
	key := domain.LineKey{
		ProductID: domain.ProductID(qv.Get("productId")),
		Color:     qv.Get("selectedColor"),
		Storage:   qv.Get("selectedStorage"),
	}
	snap, err := v.Cart.RemoveItem(r.Context(), key)
	writeCart(w, r, snap, err)
}

func (s *Server) apiCartClear(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	snap, err := v.Cart.Clear(r.Context())
	writeCart(w, r, snap, err)
}

func (s *Server) apiCartPromo(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := v.Cart.ApplyPromoCode(r.Context(), req.Code)
	writeCart(w, r, snap, err)
}

func (s *Server) apiCartReload(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	snap, err := v.Cart.Reload(r.Context())
	writeCart(w, r, snap, err)
}

func (s *Server) apiCartSync(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	snap, err := s.auth.SyncCart(r.Context(), v)
	writeCart(w, r, snap, err)
}
