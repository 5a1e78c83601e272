package domain

import (
	"strconv"
	"time"
)

// ProductID es el identificador estable del catálogo remoto. Puede venir
// como número o como string.
type ProductID string

func (id ProductID) String() string { return string(id) }

// Less ordena numéricamente cuando ambos ids son enteros y
// lexicográficamente en cualquier otro caso.
func (id ProductID) Less(other ProductID) bool {
	a, errA := strconv.ParseInt(string(id), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	switch {
	case errA == nil && errB == nil:
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return id < other
}

type Product struct {
	ID            ProductID `json:"id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice"`
	Discount      int       `json:"discount"`
	Rating        float64   `json:"rating"`
	InStock       bool      `json:"inStock"`
	Featured      bool      `json:"featured"`
	Colors        []string  `json:"colors"`
	Storage       []string  `json:"storage"`
	Images        []string  `json:"images"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// MainImage devuelve la imagen principal o "" si no hay.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) DefaultColor() string {
	if len(p.Colors) == 0 {
		return ""
	}
	return p.Colors[0]
}

func (p Product) DefaultStorage() string {
	if len(p.Storage) == 0 {
		return ""
	}
	return p.Storage[0]
}

// Catalog es el set completo de productos tal como lo entrega la fuente,
// más la lista de categorías que publica (puede venir vacía).
type Catalog struct {
	Products   []Product `json:"products"`
	Categories []string  `json:"categories"`
	FetchedAt  time.Time `json:"-"`
}
