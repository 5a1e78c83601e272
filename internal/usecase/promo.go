package usecase

import (
	"fmt"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
)

// promoCodes es la tabla fija de códigos → porcentaje.
var promoCodes = map[string]int{
	"SAVE10":   10,
	"SAVE20":   20,
	"PHONE15":  15,
	"WELCOME5": 5,
	"FLASH25":  25,
}

func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupPromo devuelve el porcentaje del código o ErrInvalidPromoCode.
func LookupPromo(code string) (int, error) {
	c := NormalizePromoCode(code)
	pct, ok := promoCodes[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPromoCode, c)
	}
	return pct, nil
}
