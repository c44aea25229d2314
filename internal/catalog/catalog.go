// Package catalog loads the product catalog from an xlsx workbook and serves
// it read-only. Row order is preserved: it is the tie-break order for the
// matching stage.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// Catalog holds the loaded products. Contents are never mutated after load,
// so the catalog is safe to share across concurrent sessions without locking.
type Catalog struct {
	products []*types.Product
}

// Load reads products from the first sheet of an xlsx workbook. The first row
// is the header; columns are mapped by name. Rows missing id, name, or a
// parseable price are skipped with a warning.
func Load(path string, log zerolog.Logger) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading catalog sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("catalog %s has no product rows", path)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var products []*types.Product
	for i, row := range rows[1:] {
		id := cell(row, "id")
		name := cell(row, "name")
		price, priceErr := strconv.ParseFloat(cell(row, "price"), 64)
		if id == "" || name == "" || priceErr != nil {
			log.Warn().Int("row", i+2).Str("name", name).Msg("skipping catalog row with missing id, name, or price")
			continue
		}

		products = append(products, &types.Product{
			ID:             id,
			Name:           name,
			Category:       cell(row, "category"),
			AvailableSizes: splitSizes(cell(row, "available_sizes")),
			Fit:            cell(row, "fit"),
			Fabric:         cell(row, "fabric"),
			SleeveLength:   cell(row, "sleeve_length"),
			ColorOrPrint:   cell(row, "color_or_print"),
			Occasion:       cell(row, "occasion"),
			Neckline:       cell(row, "neckline"),
			Length:         cell(row, "length"),
			PantType:       cell(row, "pant_type"),
			Price:          price,
		})
	}

	log.Info().Int("products", len(products)).Str("path", path).Msg("catalog loaded")
	return &Catalog{products: products}, nil
}

// New wraps an in-memory product list. Used by tests.
func New(products []*types.Product) *Catalog {
	return &Catalog{products: products}
}

// Products returns the catalog in load order. Callers must not mutate the
// returned products.
func (c *Catalog) Products() []*types.Product {
	return c.products
}

// Len returns the product count.
func (c *Catalog) Len() int {
	return len(c.products)
}

// ByCategory returns all products in the given category (case-insensitive).
func (c *Catalog) ByCategory(category string) []*types.Product {
	var out []*types.Product
	for _, p := range c.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// InPriceRange returns products whose price falls inside the bounds; nil
// bounds are unconstrained.
func (c *Catalog) InPriceRange(minPrice, maxPrice *float64) []*types.Product {
	var out []*types.Product
	for _, p := range c.products {
		if p.MatchesPriceRange(minPrice, maxPrice) {
			out = append(out, p)
		}
	}
	return out
}

// BySize returns products available in the given size.
func (c *Catalog) BySize(size string) []*types.Product {
	var out []*types.Product
	for _, p := range c.products {
		if p.MatchesSize(size) {
			out = append(out, p)
		}
	}
	return out
}

// splitSizes parses a comma-separated size cell into a clean list.
func splitSizes(raw string) []string {
	if raw == "" {
		return nil
	}
	var sizes []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			sizes = append(sizes, s)
		}
	}
	return sizes
}
