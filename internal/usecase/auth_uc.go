package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

type AuthUC struct{}

// Login autentica contra la API remota, guarda el token y combina el
// carrito de invitado. Si el merge falla el usuario queda logueado y el
// error se devuelve para que la UI ofrezca reintentar con SyncCart.
func (uc *AuthUC) Login(ctx context.Context, v *Visitor, c domain.Credentials) (*domain.Session, domain.CartSnapshot, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if !emailRe.MatchString(c.Email) || c.Password == "" {
		return nil, v.Cart.Snapshot(), fmt.Errorf("email o contraseña: %w", domain.ErrValidation)
	}
	sess, err := v.Auth.Login(ctx, c)
	if err != nil {
		return nil, v.Cart.Snapshot(), err
	}
	if err := v.Storage.Set(ctx, domain.StorageKeyToken, []byte(sess.Token)); err != nil {
		return nil, v.Cart.Snapshot(), fmt.Errorf("guardar token: %w", err)
	}
	log.Info().Str("session", v.ID).Str("user", sess.User.ID).Msg("login")
	snap, err := v.Cart.Login(ctx)
	return sess, snap, err
}

// SyncCart reintenta el merge del carrito cuando hay token.
func (uc *AuthUC) SyncCart(ctx context.Context, v *Visitor) (domain.CartSnapshot, error) {
	if !v.HasToken(ctx) {
		return v.Cart.Snapshot(), domain.ErrUnauthorized
	}
	return v.Cart.Login(ctx)
}

func (uc *AuthUC) Logout(ctx context.Context, v *Visitor) (domain.CartSnapshot, error) {
	if err := v.Storage.Delete(ctx, domain.StorageKeyToken); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return v.Cart.Snapshot(), fmt.Errorf("borrar token: %w", err)
	}
	return v.Cart.Logout(ctx)
}

// Me devuelve el usuario actual. Un token rechazado devuelve el carrito a Guest.
func (uc *AuthUC) Me(ctx context.Context, v *Visitor) (*domain.User, error) {
	if !v.HasToken(ctx) {
		return nil, domain.ErrUnauthorized
	}
	u, err := v.Auth.Me(ctx)
	if errors.Is(err, domain.ErrUnauthorized) && v.Cart.State() == domain.CartAuthenticated {
		_, _ = v.Cart.Logout(ctx)
	}
	return u, err
}
