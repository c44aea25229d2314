package types

// Product is a catalog entity. Catalog products are read-only and shared
// across sessions; the two ranking annotation fields are only ever written on
// per-request clones.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	AvailableSizes []string `json:"available_sizes"`
	Fit            string   `json:"fit,omitempty"`
	Fabric         string   `json:"fabric,omitempty"`
	SleeveLength   string   `json:"sleeve_length,omitempty"`
	ColorOrPrint   string   `json:"color_or_print,omitempty"`
	Occasion       string   `json:"occasion,omitempty"`
	Neckline       string   `json:"neckline,omitempty"`
	Length         string   `json:"length,omitempty"`
	PantType       string   `json:"pant_type,omitempty"`
	Price          float64  `json:"price"`

	// Set only on response copies by the ranking stage.
	RankingScore     *float64 `json:"ranking_score,omitempty"`
	RankingReasoning string   `json:"ranking_reasoning,omitempty"`
}

// Clone returns a copy safe to annotate without touching the shared catalog.
func (p *Product) Clone() *Product {
	cp := *p
	cp.AvailableSizes = append([]string(nil), p.AvailableSizes...)
	return &cp
}

// AttributeField returns the product's value for a named schema attribute.
// The sizes attribute is handled separately by callers since it is a set.
func (p *Product) AttributeField(name string) string {
	switch name {
	case AttrCategory:
		return p.Category
	case AttrFit:
		return p.Fit
	case AttrFabric:
		return p.Fabric
	case AttrColorOrPrint:
		return p.ColorOrPrint
	case AttrOccasion:
		return p.Occasion
	case AttrSleeveLength:
		return p.SleeveLength
	case AttrNeckline:
		return p.Neckline
	case AttrLength:
		return p.Length
	case AttrPantType:
		return p.PantType
	}
	return ""
}

// MatchesSize reports whether the product is available in the given size.
func (p *Product) MatchesSize(size string) bool {
	for _, s := range p.AvailableSizes {
		if s == size {
			return true
		}
	}
	return false
}

// MatchesPriceRange reports whether the price falls inside the given bounds.
// A nil bound is unconstrained.
func (p *Product) MatchesPriceRange(minPrice, maxPrice *float64) bool {
	if minPrice != nil && p.Price < *minPrice {
		return false
	}
	if maxPrice != nil && p.Price > *maxPrice {
		return false
	}
	return true
}
