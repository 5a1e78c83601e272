package domain

const (
	FreeShippingThreshold = 100.00
	ShippingFee           = 10.00
	TaxRate               = 0.08
	MaxAddQuantity        = 10
)

type CartState string

const (
	CartGuest         CartState = "guest"
	CartAuthenticated CartState = "authenticated"
)

// LineKey identifica una línea del carrito: mismo producto con distintas
// opciones son líneas distintas.
type LineKey struct {
	ProductID ProductID `json:"productId"`
	Color     string    `json:"selectedColor,omitempty"`
	Storage   string    `json:"selectedStorage,omitempty"`
}

type CartLine struct {
	ProductID       ProductID `json:"productId"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	Price           float64   `json:"price"`
	Image           string    `json:"image"`
	Quantity        int       `json:"quantity"`
	SelectedColor   string    `json:"selectedColor,omitempty"`
	SelectedStorage string    `json:"selectedStorage,omitempty"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Color: l.SelectedColor, Storage: l.SelectedStorage}
}

func (l CartLine) Subtotal() float64 { return l.Price * float64(l.Quantity) }

type CartSnapshot struct {
	State           CartState  `json:"state"`
	Lines           []CartLine `json:"lines"`
	ItemCount       int        `json:"itemCount"`
	Subtotal        float64    `json:"subtotal"`
	DiscountPercent int        `json:"discountPercent"`
	DiscountAmount  float64    `json:"discountAmount"`
	Shipping        float64    `json:"shipping"`
	Tax             float64    `json:"tax"`
	Total           float64    `json:"total"`
}

// NewSnapshot recalcula todos los importes desde las líneas. Nunca se
// actualiza de forma incremental.
func NewSnapshot(state CartState, lines []CartLine, discountPercent int) CartSnapshot {
	s := CartSnapshot{State: state, DiscountPercent: discountPercent}
	s.Lines = make([]CartLine, len(lines))
	copy(s.Lines, lines)
	for _, l := range lines {
		s.Subtotal += l.Subtotal()
		s.ItemCount += l.Quantity
	}
	s.DiscountAmount = s.Subtotal * float64(discountPercent) / 100
	if len(lines) > 0 && s.Subtotal <= FreeShippingThreshold {
		s.Shipping = ShippingFee
	}
	s.Tax = (s.Subtotal - s.DiscountAmount) * TaxRate
	s.Total = s.Subtotal - s.DiscountAmount + s.Shipping + s.Tax
	return s
}
