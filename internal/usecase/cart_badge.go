package usecase

import (
	"sync"

	"github.com/phenrril/storefront/internal/events"
)

// CartBadge mantiene el contador de ítems del carrito. Al recibir
// CartChanged relee el snapshot en vez de confiar en el evento.
type CartBadge struct {
	mu          sync.RWMutex
	count       int
	unsubscribe func()
}

func NewCartBadge(bus *events.Bus, store *CartStore) *CartBadge {
	b := &CartBadge{count: store.Snapshot().ItemCount}
	b.unsubscribe = bus.Subscribe(events.CartChanged, func(e events.Event) {
		if e.Source != store.Source() {
			return
		}
		n := store.Snapshot().ItemCount
		b.mu.Lock()
		b.count = n
		b.mu.Unlock()
	})
	return b
}

func (b *CartBadge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

func (b *CartBadge) Close() { b.unsubscribe() }
