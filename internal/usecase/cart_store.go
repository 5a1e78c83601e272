package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/events"
)

// errNoop marca una operación que no cambia nada (ej. quitar una línea que
// no existe): no se persiste ni se notifica.
var errNoop = errors.New("noop")

// CartStore es el carrito de un visitante. En estado Guest el documento
// completo vive en el Storage local; en Authenticated la fuente de verdad es
// el carrito remoto y el Storage local no se consulta.
//
// Las llamadas remotas corren sin el lock. Si dos mutaciones concurrentes
// van a la API gana la última respuesta. Una respuesta que llega después de
// un cambio de estado (login/logout) o de Close se descarta.
type CartStore struct {
	mu       sync.Mutex
	storage  domain.Storage
	remote   domain.RemoteCart
	bus      *events.Bus
	source   string
	state    domain.CartState
	lines    []domain.CartLine
	discount int
	epoch    uint64
	closed   bool
}

type CartOption func(*CartStore)

// WithRemote habilita el estado Authenticated.
func WithRemote(r domain.RemoteCart) CartOption { return func(s *CartStore) { s.remote = r } }

func WithBus(b *events.Bus) CartOption { return func(s *CartStore) { s.bus = b } }

// WithSource identifica al store en los eventos que publica.
func WithSource(id string) CartOption { return func(s *CartStore) { s.source = id } }

// NewCartStore arranca en Guest con lo que haya en el Storage local,
// incluido el descuento aplicado.
func NewCartStore(ctx context.Context, storage domain.Storage, opts ...CartOption) (*CartStore, error) {
	if storage == nil {
		return nil, errors.New("storage nil")
	}
	s := &CartStore{storage: storage, state: domain.CartGuest}
	for _, o := range opts {
		o(s)
	}
	lines, err := s.loadGuest(ctx)
	if err != nil {
		return nil, err
	}
	s.lines = lines
	s.discount = s.loadPromo(ctx)
	return s, nil
}

func (s *CartStore) Source() string { return s.source }

func (s *CartStore) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) snapshotLocked() domain.CartSnapshot {
	return domain.NewSnapshot(s.state, s.lines, s.discount)
}

// AddItem agrega qty unidades (0 equivale a 1). Si la línea ya existe con
// las mismas opciones se suma la cantidad.
func (s *CartStore) AddItem(ctx context.Context, p domain.Product, color, storage string, qty int) (domain.CartSnapshot, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 || qty > domain.MaxAddQuantity {
		return s.Snapshot(), fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}
	if !p.InStock {
		return s.Snapshot(), fmt.Errorf("%w: %s", domain.ErrOutOfStock, p.ID)
	}
	if color == "" {
		color = p.DefaultColor()
	}
	if storage == "" {
		storage = p.DefaultStorage()
	}
	line := domain.CartLine{
		ProductID:       p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		Price:           p.Price,
		Image:           p.MainImage(),
		Quantity:        qty,
		SelectedColor:   color,
		SelectedStorage: storage,
	}
	return s.mutate(ctx,
		func(lines []domain.CartLine) ([]domain.CartLine, error) {
			if i := indexOf(lines, line.Key()); i >= 0 {
				lines[i].Quantity += qty
				return lines, nil
			}
			return append(lines, line), nil
		},
		func(ctx context.Context) ([]domain.CartLine, error) { return s.remote.AddLine(ctx, line) },
	)
}

func (s *CartStore) SetQuantity(ctx context.Context, key domain.LineKey, qty int) (domain.CartSnapshot, error) {
	if qty < 1 {
		return s.Snapshot(), fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}
	return s.mutate(ctx,
		func(lines []domain.CartLine) ([]domain.CartLine, error) {
			i := indexOf(lines, key)
			if i < 0 {
				return nil, fmt.Errorf("línea %s: %w", key.ProductID, domain.ErrNotFound)
			}
			if lines[i].Quantity == qty {
				return nil, errNoop
			}
			lines[i].Quantity = qty
			return lines, nil
		},
		func(ctx context.Context) ([]domain.CartLine, error) { return s.remote.UpdateLine(ctx, key, qty) },
	)
}

// RemoveItem no falla si la línea no existe.
func (s *CartStore) RemoveItem(ctx context.Context, key domain.LineKey) (domain.CartSnapshot, error) {
	return s.mutate(ctx,
		func(lines []domain.CartLine) ([]domain.CartLine, error) {
			i := indexOf(lines, key)
			if i < 0 {
				return nil, errNoop
			}
			return append(lines[:i], lines[i+1:]...), nil
		},
		func(ctx context.Context) ([]domain.CartLine, error) { return s.remote.RemoveLine(ctx, key) },
	)
}

// Clear vacía el carrito y anula el descuento.
func (s *CartStore) Clear(ctx context.Context) (domain.CartSnapshot, error) {
	snap, err := s.mutate(ctx,
		func([]domain.CartLine) ([]domain.CartLine, error) { return []domain.CartLine{}, nil },
		func(ctx context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{}, s.remote.ClearCart(ctx)
		},
	)
	if err != nil {
		return snap, err
	}
	s.mu.Lock()
	changed := s.discount != 0
	s.discount = 0
	snap = s.snapshotLocked()
	s.mu.Unlock()
	if err := s.storage.Delete(ctx, domain.StorageKeyPromo); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Str("session", s.source).Msg("no se pudo borrar el descuento")
	}
	if changed {
		s.publish(events.CartChanged)
	}
	return snap, nil
}

// ApplyPromoCode no toca el descuento vigente si el código no existe. El
// descuento se guarda en el Storage local en cualquier estado.
func (s *CartStore) ApplyPromoCode(ctx context.Context, code string) (domain.CartSnapshot, error) {
	pct, err := LookupPromo(code)
	if err != nil {
		return s.Snapshot(), err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrClosed
	}
	if err := s.storage.Set(ctx, domain.StorageKeyPromo, []byte(strconv.Itoa(pct))); err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, fmt.Errorf("guardar descuento: %w", err)
	}
	s.discount = pct
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(events.CartChanged)
	return snap, nil
}

// Login pasa de Guest a Authenticated combinando el carrito local con el
// remoto: cada línea local se envía con AddLine y el servidor suma cantidades
// cuando la identidad coincide. Cada línea enviada con éxito se borra del
// Storage local, así un reintento nunca la cuenta dos veces. Ante un error
// el store vuelve a Guest con las líneas que faltaban enviar.
func (s *CartStore) Login(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrClosed
	}
	if s.remote == nil {
		s.mu.Unlock()
		return domain.CartSnapshot{}, errors.New("carrito remoto no configurado")
	}
	if s.state == domain.CartAuthenticated {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.epoch++
	epoch := s.epoch
	s.state = domain.CartAuthenticated
	pending := cloneLines(s.lines)
	s.mu.Unlock()

	server, err := s.remote.FetchCart(ctx)
	if err != nil {
		return s.abortLogin(ctx, epoch, pending, err)
	}
	for len(pending) > 0 {
		server, err = s.remote.AddLine(ctx, pending[0])
		if err != nil {
			return s.abortLogin(ctx, epoch, pending, err)
		}
		pending = pending[1:]
		if err := s.writeGuest(ctx, pending); err != nil {
			log.Warn().Err(err).Str("session", s.source).Msg("no se pudo actualizar el carrito local durante el merge")
		}
	}

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return s.Snapshot(), nil
	}
	s.lines = sanitizeLines(server)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if err := s.storage.Delete(ctx, domain.StorageKeyCart); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Str("session", s.source).Msg("no se pudo borrar el carrito local")
	}
	s.publish(events.AuthChanged)
	s.publish(events.CartChanged)
	return snap, nil
}

// Resume entra en Authenticated sin combinar: para sesiones que ya tenían
// token antes de crear el store.
func (s *CartStore) Resume(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrClosed
	}
	if s.remote == nil {
		s.mu.Unlock()
		return domain.CartSnapshot{}, errors.New("carrito remoto no configurado")
	}
	s.epoch++
	epoch := s.epoch
	s.state = domain.CartAuthenticated
	s.mu.Unlock()

	server, err := s.remote.FetchCart(ctx)
	if err != nil {
		s.fallbackToGuest(ctx, epoch)
		return s.Snapshot(), fmt.Errorf("resume carrito: %w", err)
	}
	s.mu.Lock()
	if !s.closed && s.epoch == epoch {
		s.lines = sanitizeLines(server)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(events.AuthChanged)
	s.publish(events.CartChanged)
	return snap, nil
}

// Logout vuelve a Guest y recarga lo que haya en el Storage local, que
// puede estar vacío o viejo.
func (s *CartStore) Logout(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrClosed
	}
	s.epoch++
	wasAuthenticated := s.state == domain.CartAuthenticated
	s.state = domain.CartGuest
	s.mu.Unlock()
	snap, err := s.Reload(ctx)
	if wasAuthenticated {
		s.publish(events.AuthChanged)
	}
	return snap, err
}

// Reload relee el carrito de su fuente actual. Es el "reintentar" de la UI.
func (s *CartStore) Reload(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrClosed
	}
	state, epoch := s.state, s.epoch
	s.mu.Unlock()

	var (
		lines []domain.CartLine
		err   error
	)
	if state == domain.CartAuthenticated {
		lines, err = s.remote.FetchCart(ctx)
		if err != nil {
			return s.remoteFailed(ctx, epoch, err)
		}
	} else {
		lines, err = s.loadGuest(ctx)
		if err != nil {
			return s.Snapshot(), err
		}
	}
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.lines = sanitizeLines(lines)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(events.CartChanged)
	return snap, nil
}

// Close descarta cualquier respuesta remota pendiente.
func (s *CartStore) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *CartStore) mutate(ctx context.Context, local func([]domain.CartLine) ([]domain.CartLine, error), remote func(context.Context) ([]domain.CartLine, error)) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrClosed
	}
	next, err := local(cloneLines(s.lines))
	if errors.Is(err, errNoop) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	if err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}

	if s.state == domain.CartGuest {
		if err := s.writeGuest(ctx, next); err != nil {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, err
		}
		s.lines = next
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.publish(events.CartChanged)
		return snap, nil
	}

	epoch := s.epoch
	s.mu.Unlock()

	lines, err := remote(ctx)
	if err != nil {
		return s.remoteFailed(ctx, epoch, err)
	}
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		log.Debug().Str("session", s.source).Msg("respuesta remota descartada")
		return snap, nil
	}
	s.lines = sanitizeLines(lines)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(events.CartChanged)
	return snap, nil
}

// remoteFailed propaga el error. Un 401 además devuelve el store a Guest.
func (s *CartStore) remoteFailed(ctx context.Context, epoch uint64, err error) (domain.CartSnapshot, error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.fallbackToGuest(ctx, epoch)
	}
	return s.Snapshot(), err
}

// abortLogin vuelve a Guest con las líneas que faltaban enviar. Se toman de
// memoria y no del Storage: si alguna escritura del merge falló, el documento
// local todavía tiene líneas que el servidor ya sumó.
func (s *CartStore) abortLogin(ctx context.Context, epoch uint64, pending []domain.CartLine, err error) (domain.CartSnapshot, error) {
	err = fmt.Errorf("login carrito: %w", err)
	s.mu.Lock()
	if s.closed || s.epoch != epoch || s.state != domain.CartAuthenticated {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}
	s.epoch++
	s.state = domain.CartGuest
	s.lines = sanitizeLines(pending)
	snap := s.snapshotLocked()
	if werr := s.writeGuest(ctx, s.lines); werr != nil {
		log.Warn().Err(werr).Str("session", s.source).Msg("no se pudo restaurar el carrito local tras el merge")
	}
	s.mu.Unlock()
	s.publish(events.AuthChanged)
	s.publish(events.CartChanged)
	return snap, err
}

func (s *CartStore) fallbackToGuest(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch || s.state != domain.CartAuthenticated {
		s.mu.Unlock()
		return
	}
	s.epoch++
	s.state = domain.CartGuest
	s.mu.Unlock()

	lines, err := s.loadGuest(ctx)
	if err != nil {
		log.Warn().Err(err).Str("session", s.source).Msg("no se pudo leer el carrito local")
		lines = []domain.CartLine{}
	}
	s.mu.Lock()
	if s.state == domain.CartGuest && !s.closed {
		s.lines = lines
	}
	s.mu.Unlock()
	s.publish(events.AuthChanged)
	s.publish(events.CartChanged)
}

// loadGuest lee el documento local. Un documento corrupto se ignora.
func (s *CartStore) loadGuest(ctx context.Context) ([]domain.CartLine, error) {
	raw, err := s.storage.Get(ctx, domain.StorageKeyCart)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer carrito local: %w", err)
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		log.Warn().Err(err).Str("session", s.source).Msg("carrito local corrupto, se descarta")
		return []domain.CartLine{}, nil
	}
	return sanitizeLines(lines), nil
}

// loadPromo devuelve 0 si no hay descuento guardado o si es ilegible.
func (s *CartStore) loadPromo(ctx context.Context) int {
	raw, err := s.storage.Get(ctx, domain.StorageKeyPromo)
	if errors.Is(err, domain.ErrNotFound) {
		return 0
	}
	if err != nil {
		log.Warn().Err(err).Str("session", s.source).Msg("no se pudo leer el descuento")
		return 0
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pct < 0 || pct > 100 {
		log.Warn().Str("session", s.source).Msg("descuento guardado inválido, se descarta")
		return 0
	}
	return pct
}

func (s *CartStore) writeGuest(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, domain.StorageKeyCart, b); err != nil {
		return fmt.Errorf("guardar carrito local: %w", err)
	}
	return nil
}

func (s *CartStore) publish(kind events.Kind) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Kind: kind, Source: s.source})
}

func indexOf(lines []domain.CartLine, key domain.LineKey) int {
	for i, l := range lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

// sanitizeLines descarta cantidades inválidas y junta líneas repetidas.
func sanitizeLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.ProductID == "" {
			continue
		}
		if i := indexOf(out, l.Key()); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}
