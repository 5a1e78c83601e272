package domain

import "errors"

var (
	ErrNotFound           = errors.New("no encontrado")
	ErrNetworkUnavailable = errors.New("servicio inaccesible")
	ErrRemoteUnavailable  = errors.New("servicio con fallas")
	ErrUnauthorized       = errors.New("token inválido o vencido")
	ErrOutOfStock         = errors.New("producto sin stock")
	ErrInvalidQuantity    = errors.New("cantidad inválida")
	ErrInvalidPromoCode   = errors.New("código promocional inválido")
	ErrValidation         = errors.New("datos inválidos")
	ErrClosed             = errors.New("carrito cerrado")
)
