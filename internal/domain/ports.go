package domain

import "context"

// Storage es el almacenamiento persistente local: documentos enteros por
// clave, sin escrituras parciales. Una clave inexistente devuelve ErrNotFound.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Claves conocidas dentro del Storage de cada visitante.
const (
	StorageKeyToken = "token"
	StorageKeyCart  = "cart"
	StorageKeyPromo = "promo"
)

type CatalogSource interface {
	FetchCatalog(ctx context.Context) (*Catalog, error)
}

type ProductFinder interface {
	FetchProduct(ctx context.Context, id ProductID) (*Product, error)
}

// RemoteCart es el carrito del usuario autenticado en la API remota. Todas
// las operaciones devuelven el carrito completo resultante.
type RemoteCart interface {
	FetchCart(ctx context.Context) ([]CartLine, error)
	AddLine(ctx context.Context, line CartLine) ([]CartLine, error)
	UpdateLine(ctx context.Context, key LineKey, quantity int) ([]CartLine, error)
	RemoveLine(ctx context.Context, key LineKey) ([]CartLine, error)
	ClearCart(ctx context.Context) error
}

type AuthGateway interface {
	Login(ctx context.Context, c Credentials) (*Session, error)
	Me(ctx context.Context) (*User, error)
}

type SupportGateway interface {
	SubmitSupport(ctx context.Context, req SupportRequest) error
}

type namespaced struct {
	inner  Storage
	prefix string
}

// Namespaced limita un Storage compartido a las claves de un visitante.
func Namespaced(s Storage, prefix string) Storage {
	return &namespaced{inner: s, prefix: prefix + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// SupportArchive guarda una copia local de cada consulta enviada.
type SupportArchive interface {
	SaveSupport(ctx context.Context, req SupportRequest) error
}
