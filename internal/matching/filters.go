// Package matching implements the progressive matcher: confidence-threshold
// filter preparation and iterative constraint relaxation against the catalog.
package matching

import (
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// DefaultConfidenceThreshold drops extracted values the pipeline does not
// trust enough to filter on.
const DefaultConfidenceThreshold = 0.6

// Filter is one constraint applied to the catalog during a matching pass.
type Filter interface {
	// Name identifies the filter for logging and relaxation traces.
	Name() string
	// Confidence orders filters for relaxation; lowest drops first.
	Confidence() float64
	// Apply returns the subset of products satisfying the constraint.
	Apply(products []*types.Product) []*types.Product
}

// AttributeFilter matches a product field against a value set with OR
// semantics. The sizes attribute is special-cased: any desired size present
// in the product's available-size set is a match.
type AttributeFilter struct {
	Attr       string
	Values     []string
	confidence float64
}

// NewAttributeFilter builds an attribute filter; confidence is the mean of
// the retained value confidences.
func NewAttributeFilter(attr string, values []string, confidence float64) *AttributeFilter {
	return &AttributeFilter{Attr: attr, Values: values, confidence: confidence}
}

// Name implements Filter.
func (f *AttributeFilter) Name() string { return f.Attr }

// Confidence implements Filter.
func (f *AttributeFilter) Confidence() float64 { return f.confidence }

// Apply implements Filter.
func (f *AttributeFilter) Apply(products []*types.Product) []*types.Product {
	var matching []*types.Product
	for _, p := range products {
		if f.matches(p) {
			matching = append(matching, p)
		}
	}
	return matching
}

func (f *AttributeFilter) matches(p *types.Product) bool {
	if f.Attr == types.AttrSizes {
		for _, size := range f.Values {
			if p.MatchesSize(size) {
				return true
			}
		}
		return false
	}

	value := p.AttributeField(f.Attr)
	if value == "" {
		return false
	}
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// PriceFilter excludes products outside [min, max]; a nil bound is
// unconstrained.
type PriceFilter struct {
	MinPrice   *float64
	MaxPrice   *float64
	confidence float64
}

// NewPriceFilter builds a price filter from an extracted price range.
func NewPriceFilter(pr *types.PriceRange) *PriceFilter {
	return &PriceFilter{MinPrice: pr.MinPrice, MaxPrice: pr.MaxPrice, confidence: pr.Confidence}
}

// Name implements Filter.
func (f *PriceFilter) Name() string { return "price" }

// Confidence implements Filter.
func (f *PriceFilter) Confidence() float64 { return f.confidence }

// Apply implements Filter.
func (f *PriceFilter) Apply(products []*types.Product) []*types.Product {
	var matching []*types.Product
	for _, p := range products {
		if p.MatchesPriceRange(f.MinPrice, f.MaxPrice) {
			matching = append(matching, p)
		}
	}
	return matching
}

// PrepareFilters converts the accumulated attribute map into filters. Per
// attribute, values below the threshold are dropped; if none survive, the
// single highest-confidence value is kept instead so a filter is never
// empty. Filter confidence is the mean of the retained value confidences.
// A price filter is appended last when a bounded price range is present.
func PrepareFilters(attrs types.ConversationAttributes, threshold float64) []Filter {
	var filters []Filter

	for _, name := range types.AttributeNames() {
		values := attrs.Attributes[name]
		if len(values) == 0 {
			continue
		}

		confidences := attrs.ConfidenceScores[name]
		if len(confidences) != len(values) {
			// Missing or mismatched scores: trust the values fully.
			confidences = make([]float64, len(values))
			for i := range confidences {
				confidences[i] = 1.0
			}
		}

		var kept []string
		var keptConf []float64
		for i, value := range values {
			if confidences[i] >= threshold {
				kept = append(kept, value)
				keptConf = append(keptConf, confidences[i])
			}
		}

		if len(kept) == 0 {
			maxIdx := 0
			for i, c := range confidences {
				if c > confidences[maxIdx] {
					maxIdx = i
				}
			}
			kept = []string{values[maxIdx]}
			keptConf = []float64{confidences[maxIdx]}
		}

		var sum float64
		for _, c := range keptConf {
			sum += c
		}
		filters = append(filters, NewAttributeFilter(name, kept, sum/float64(len(keptConf))))
	}

	if pr := attrs.ProductInfo.PriceRange; pr.HasBound() {
		filters = append(filters, NewPriceFilter(pr))
	}

	return filters
}
