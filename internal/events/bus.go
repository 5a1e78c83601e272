package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Kind string

const (
	CartChanged Kind = "cart_changed"
	AuthChanged Kind = "auth_changed"
)

// Event no garantiza payload: los suscriptores deben releer su propio estado.
type Event struct {
	Kind   Kind
	Source string
}

type Handler func(Event)

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: map[Kind]map[int]Handler{}}
}

// Subscribe registra h para kind y devuelve la función para desuscribirse.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[kind] == nil {
		b.subs[kind] = map[int]Handler{}
	}
	b.subs[kind][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Kind]))
	for _, h := range b.subs[e.Kind] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		b.dispatch(h, e)
	}
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("kind", string(e.Kind)).Msg("event handler")
		}
	}()
	h(e)
}
