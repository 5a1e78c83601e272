package httpserver

import (
	"net/http"

	"github.com/phenrril/storefront/internal/domain"
)

func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	if v.Auth == nil {
		writeError(w, r, domain.ErrRemoteUnavailable)
		return
	}
	var cred domain.Credentials
	if err := decodeJSON(w, r, &cred); err != nil {
		writeError(w, r, err)
		return
	}
	sess, snap, err := s.auth.Login(r.Context(), v, cred)
	if sess == nil {
		writeErrorWithCart(w, r, err, &snap)
		return
	}
	body := map[string]any{"user": sess.User, "cart": snap}
	if err != nil {
		// logueado, pero el carrito de invitado sigue pendiente de combinar
		_, kind := errorStatus(err)
		body["syncError"] = kind
		body["message"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) apiLogout(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	snap, err := s.auth.Logout(r.Context(), v)
	writeCart(w, r, snap, err)
}

func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if v == nil {
		return
	}
	if v.Auth == nil {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}
	u, err := s.auth.Me(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) apiFAQ(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"faq": s.support.FAQ()})
}

func (s *Server) apiSupport(w http.ResponseWriter, r *http.Request) {
	var req domain.SupportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.support.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reference": out.Reference, "createdAt": out.CreatedAt})
}
