package usecase

import (
	"context"
	"errors"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/events"
)

// Visitor agrupa el estado de una sesión del storefront: su Storage local,
// su carrito y el cliente remoto autenticado con su token.
type Visitor struct {
	ID      string
	Storage domain.Storage
	Cart    *CartStore
	Badge   *CartBadge
	Auth    domain.AuthGateway
}

// NewVisitor arma el carrito de la sesión. Si el Storage ya tiene token el
// carrito arranca en Authenticated sin combinar.
func NewVisitor(ctx context.Context, id string, storage domain.Storage, bus *events.Bus, remote domain.RemoteCart, auth domain.AuthGateway) (*Visitor, error) {
	opts := []CartOption{WithBus(bus), WithSource(id)}
	if remote != nil {
		opts = append(opts, WithRemote(remote))
	}
	cart, err := NewCartStore(ctx, storage, opts...)
	if err != nil {
		return nil, err
	}
	v := &Visitor{ID: id, Storage: storage, Cart: cart, Badge: NewCartBadge(bus, cart), Auth: auth}
	if remote != nil && v.HasToken(ctx) {
		if _, err := cart.Resume(ctx); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
			return v, err
		}
	}
	return v, nil
}

func (v *Visitor) HasToken(ctx context.Context) bool {
	tok, err := v.Storage.Get(ctx, domain.StorageKeyToken)
	return err == nil && len(tok) > 0
}

func (v *Visitor) Close() {
	v.Badge.Close()
	v.Cart.Close()
}
