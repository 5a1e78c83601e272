package catalogfile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/storefront/internal/domain"
)

// XLSXSource lee el catálogo de una planilla de precios. La primera fila
// con una columna "id" o "name" es el encabezado; una fila con una sola
// celda es un título de sección y fija la categoría de las filas siguientes.
type XLSXSource struct {
	Path string
}

func (s XLSXSource) FetchCatalog(ctx context.Context) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w: %v", s.Path, domain.ErrRemoteUnavailable, err)
	}
	defer f.Close()

	out := &domain.Catalog{}
	seen := map[domain.ProductID]bool{}
	cats := map[string]bool{}
	for _, sh := range f.GetSheetList() {
		rows, err := f.GetRows(sh)
		if err != nil || len(rows) == 0 {
			continue
		}
		var cols map[string]int
		section := ""
		for i, row := range rows {
			if cols == nil {
				cols = headerColumns(row)
				continue
			}
			if title, ok := sectionTitle(row); ok {
				section = strings.ToLower(title)
				continue
			}
			p, ok := productFromRow(row, cols)
			if !ok {
				continue
			}
			if p.Category == "" {
				p.Category = section
			}
			if seen[p.ID] {
				log.Debug().Str("hoja", sh).Int("fila", i+1).Str("id", string(p.ID)).Msg("id duplicado en planilla")
				continue
			}
			seen[p.ID] = true
			if p.Category != "" && !cats[p.Category] {
				cats[p.Category] = true
				out.Categories = append(out.Categories, p.Category)
			}
			out.Products = append(out.Products, p)
		}
	}
	return out, nil
}

func headerColumns(row []string) map[string]int {
	cols := map[string]int{}
	for i, c := range row {
		k := strings.ToLower(strings.TrimSpace(c))
		k = strings.NewReplacer(" ", "", "_", "").Replace(k)
		if k != "" {
			cols[k] = i
		}
	}
	if _, ok := cols["id"]; ok {
		return cols
	}
	if _, ok := cols["name"]; ok {
		return cols
	}
	return nil
}

func sectionTitle(row []string) (string, bool) {
	title := ""
	for _, c := range row {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if title != "" {
			return "", false
		}
		title = c
	}
	return title, title != ""
}

func productFromRow(row []string, cols map[string]int) (domain.Product, bool) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	p := domain.Product{
		ID:          domain.ProductID(cell("id")),
		Name:        cell("name"),
		Brand:       cell("brand"),
		Category:    strings.ToLower(cell("category")),
		Description: cell("description"),
		Price:       parseNumber(cell("price")),
		Rating:      parseNumber(cell("rating")),
		Colors:      splitList(cell("colors")),
		Storage:     splitList(cell("storage")),
		Images:      splitList(cell("images")),
		InStock:     true,
	}
	if p.ID == "" || p.Name == "" {
		return p, false
	}
	p.OriginalPrice = parseNumber(cell("originalprice"))
	if p.OriginalPrice < p.Price {
		p.OriginalPrice = p.Price
	}
	p.Discount = int(parseNumber(cell("discount")))
	if p.Discount == 0 && p.OriginalPrice > p.Price && p.OriginalPrice > 0 {
		p.Discount = int((1 - p.Price/p.OriginalPrice) * 100)
	}
	p.Discount = min(max(p.Discount, 0), 100)
	p.Rating = min(max(p.Rating, 0), 5)
	if v := cell("instock"); v != "" {
		p.InStock = parseBool(v)
	}
	p.Featured = parseBool(cell("featured"))
	if v := cell("createdat"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			p.CreatedAt = t
		}
	}
	return p, true
}

// parseNumber acepta "1.299,50" y "1299.50".
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "si", "sí", "yes", "x":
		return true
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
