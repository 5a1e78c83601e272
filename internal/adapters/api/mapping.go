package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phenrril/storefront/internal/domain"
)

// flexString acepta números y strings: la API mezcla ids numéricos con
// ObjectIDs.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// flexFloat acepta 12.5 y "12.5".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("número inválido %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type apiProduct struct {
	ID            flexString `json:"id"`
	MongoID       flexString `json:"_id"`
	Name          string     `json:"name"`
	Brand         string     `json:"brand"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Price         flexFloat  `json:"price"`
	OriginalPrice flexFloat  `json:"originalPrice"`
	Discount      flexFloat  `json:"discount"`
	Rating        flexFloat  `json:"rating"`
	InStock       *bool      `json:"inStock"`
	Featured      bool       `json:"featured"`
	Colors        []string   `json:"colors"`
	Storage       []string   `json:"storage"`
	Image         string     `json:"image"`
	Images        []string   `json:"images"`
	CreatedAt     string     `json:"createdAt"`
}

func productFromAPI(a apiProduct) domain.Product {
	id := a.ID
	if id == "" {
		id = a.MongoID
	}
	p := domain.Product{
		ID:            domain.ProductID(strings.TrimSpace(string(id))),
		Name:          strings.TrimSpace(a.Name),
		Brand:         strings.TrimSpace(a.Brand),
		Category:      strings.TrimSpace(a.Category),
		Description:   a.Description,
		Price:         float64(a.Price),
		OriginalPrice: float64(a.OriginalPrice),
		Discount:      int(a.Discount),
		Rating:        float64(a.Rating),
		InStock:       a.InStock == nil || *a.InStock,
		Featured:      a.Featured,
		Colors:        nonEmpty(a.Colors),
		Storage:       nonEmpty(a.Storage),
		Images:        nonEmpty(a.Images),
	}
	if len(p.Images) == 0 && strings.TrimSpace(a.Image) != "" {
		p.Images = []string{strings.TrimSpace(a.Image)}
	}
	if p.Discount < 0 {
		p.Discount = 0
	}
	if p.Discount > 100 {
		p.Discount = 100
	}
	if p.Rating < 0 {
		p.Rating = 0
	}
	if p.Rating > 5 {
		p.Rating = 5
	}
	if p.OriginalPrice < p.Price {
		p.OriginalPrice = p.Price
	}
	if a.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, a.CreatedAt); err == nil {
			p.CreatedAt = t
		} else if t, err := time.Parse("2006-01-02", a.CreatedAt); err == nil {
			p.CreatedAt = t
		}
	}
	return p
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DecodeCatalog acepta un array de productos o {products, categories}, tal
// como lo devuelve la API o como viene en products.json.
// Productos sin id se descartan.
func DecodeCatalog(raw []byte) (*domain.Catalog, error) {
	var list []apiProduct
	var cats []string
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("catálogo vacío: %w", domain.ErrRemoteUnavailable)
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("catálogo: %w: %v", domain.ErrRemoteUnavailable, err)
		}
	default:
		var env struct {
			Products   []apiProduct `json:"products"`
			Categories []string     `json:"categories"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("catálogo: %w: %v", domain.ErrRemoteUnavailable, err)
		}
		list, cats = env.Products, env.Categories
	}
	out := &domain.Catalog{Products: make([]domain.Product, 0, len(list)), Categories: nonEmpty(cats)}
	seen := make(map[domain.ProductID]bool, len(list))
	for _, a := range list {
		p := productFromAPI(a)
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out.Products = append(out.Products, p)
	}
	return out, nil
}

type apiCartLine struct {
	ProductID       flexString  `json:"productId"`
	Product         *apiProduct `json:"product,omitempty"`
	Name            string      `json:"name,omitempty"`
	Brand           string      `json:"brand,omitempty"`
	Price           flexFloat   `json:"price,omitempty"`
	Image           string      `json:"image,omitempty"`
	Quantity        int         `json:"quantity"`
	SelectedColor   string      `json:"selectedColor,omitempty"`
	SelectedStorage string      `json:"selectedStorage,omitempty"`
}

func cartLineToAPI(l domain.CartLine) apiCartLine {
	return apiCartLine{
		ProductID:       flexString(l.ProductID),
		Name:            l.Name,
		Brand:           l.Brand,
		Price:           flexFloat(l.Price),
		Image:           l.Image,
		Quantity:        l.Quantity,
		SelectedColor:   l.SelectedColor,
		SelectedStorage: l.SelectedStorage,
	}
}

// cartLineFromAPI completa los datos de la línea con el producto embebido
// cuando la API lo manda.
func cartLineFromAPI(a apiCartLine) domain.CartLine {
	l := domain.CartLine{
		ProductID:       domain.ProductID(a.ProductID),
		Name:            a.Name,
		Brand:           a.Brand,
		Price:           float64(a.Price),
		Image:           a.Image,
		Quantity:        a.Quantity,
		SelectedColor:   a.SelectedColor,
		SelectedStorage: a.SelectedStorage,
	}
	if a.Product != nil {
		p := productFromAPI(*a.Product)
		if l.ProductID == "" {
			l.ProductID = p.ID
		}
		if l.Name == "" {
			l.Name = p.Name
		}
		if l.Brand == "" {
			l.Brand = p.Brand
		}
		if l.Price == 0 {
			l.Price = p.Price
		}
		if l.Image == "" {
			l.Image = p.MainImage()
		}
	}
	return l
}

// cartFromAPI decodifica un carrito como array o {items}. ok es false si
// la respuesta no trae carrito.
func cartFromAPI(raw json.RawMessage) (lines []domain.CartLine, ok bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}
	var list []apiCartLine
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, false, fmt.Errorf("carrito: %w: %v", domain.ErrRemoteUnavailable, err)
		}
	} else {
		var env struct {
			Items *[]apiCartLine `json:"items"`
			Cart  *struct {
				Items []apiCartLine `json:"items"`
			} `json:"cart"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, false, fmt.Errorf("carrito: %w: %v", domain.ErrRemoteUnavailable, err)
		}
		switch {
		case env.Items != nil:
			list = *env.Items
		case env.Cart != nil:
			list = env.Cart.Items
		default:
			return nil, false, nil
		}
	}
	lines = make([]domain.CartLine, 0, len(list))
	for _, a := range list {
		l := cartLineFromAPI(a)
		if l.ProductID == "" || l.Quantity <= 0 {
			continue
		}
		lines = append(lines, l)
	}
	return lines, true, nil
}

type apiUser struct {
	ID      flexString `json:"id"`
	MongoID flexString `json:"_id"`
	Email   string     `json:"email"`
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
}

func userFromAPI(a apiUser) domain.User {
	id := a.ID
	if id == "" {
		id = a.MongoID
	}
	return domain.User{ID: string(id), Email: a.Email, Name: a.Name, Phone: a.Phone}
}
