package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/events"
	"github.com/phenrril/storefront/internal/usecase"
)

const sessionCookie = "sid"

// RemoteFactory arma los clientes remotos de un visitante sobre su Storage.
type RemoteFactory func(store domain.Storage) (domain.RemoteCart, domain.AuthGateway)

// Sessions mantiene un Visitor vivo por cookie de sesión. El estado
// persistente está en el Storage compartido, así que un Visitor
// desalojado se reconstruye igual en el próximo pedido.
type Sessions struct {
	storage domain.Storage
	bus     *events.Bus
	remote  RemoteFactory
	key     []byte
	maxAge  time.Duration
	secure  bool

	mu       sync.Mutex
	visitors map[string]*visitorEntry
}

type visitorEntry struct {
	v        *usecase.Visitor
	lastSeen time.Time
}

func NewSessions(storage domain.Storage, bus *events.Bus, remote RemoteFactory, key string, maxAge time.Duration, secure bool) *Sessions {
	if key == "" {
		key = "dev-insecure"
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &Sessions{
		storage:  storage,
		bus:      bus,
		remote:   remote,
		key:      []byte(key),
		maxAge:   maxAge,
		secure:   secure,
		visitors: map[string]*visitorEntry{},
	}
}

func (s *Sessions) sign(id string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + id
}

func (s *Sessions) verify(val string) (string, bool) {
	parts := strings.SplitN(val, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(parts[1]))
	if !hmac.Equal(sig, h.Sum(nil)) {
		return "", false
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", false
	}
	return parts[1], true
}

// sessionID lee la cookie firmada o emite una nueva.
func (s *Sessions) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, ok := s.verify(c.Value); ok {
			return id
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.sign(id),
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Visitor devuelve el Visitor de la sesión del pedido, creándolo si hace falta.
func (s *Sessions) Visitor(w http.ResponseWriter, r *http.Request) (*usecase.Visitor, error) {
	id := s.sessionID(w, r)
	now := time.Now()

	s.mu.Lock()
	if e, ok := s.visitors[id]; ok {
		e.lastSeen = now
		s.mu.Unlock()
		return e.v, nil
	}
	s.mu.Unlock()

	v, err := s.open(r.Context(), id)
	if v == nil {
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("no se pudo sincronizar el carrito remoto")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.visitors[id]; ok {
		// otro pedido de la misma sesión ganó la carrera
		v.Close()
		e.lastSeen = now
		return e.v, nil
	}
	s.visitors[id] = &visitorEntry{v: v, lastSeen: now}
	return v, nil
}

func (s *Sessions) open(ctx context.Context, id string) (*usecase.Visitor, error) {
	store := domain.Namespaced(s.storage, "sess:"+id)
	var (
		remote domain.RemoteCart
		auth   domain.AuthGateway
	)
	if s.remote != nil {
		remote, auth = s.remote(store)
	}
	return usecase.NewVisitor(ctx, id, store, s.bus, remote, auth)
}

// Sweep cierra los visitantes inactivos desde hace más de idle.
func (s *Sessions) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	s.mu.Lock()
	var stale []*usecase.Visitor
	for id, e := range s.visitors {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.v)
			delete(s.visitors, id)
		}
	}
	s.mu.Unlock()
	for _, v := range stale {
		v.Close()
	}
	return len(stale)
}

// Run barre sesiones inactivas hasta que ctx se cancele.
func (s *Sessions) Run(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(idle); n > 0 {
				log.Debug().Int("sesiones", n).Msg("sesiones inactivas cerradas")
			}
		}
	}
}

// Close cierra todos los visitantes. Se llama al apagar el servidor.
func (s *Sessions) Close() {
	s.mu.Lock()
	all := s.visitors
	s.visitors = map[string]*visitorEntry{}
	s.mu.Unlock()
	for _, e := range all {
		e.v.Close()
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
