// Package types defines the shared domain types for the vibe shopping pipeline.
package types

import (
	"encoding/json"
	"fmt"
)

// Attribute names form a closed set driven by the attribute schema file.
// They are enumerated here so callers can iterate fields in a stable order.
const (
	AttrCategory     = "category"
	AttrFit          = "fit"
	AttrFabric       = "fabric"
	AttrColorOrPrint = "color_or_print"
	AttrOccasion     = "occasion"
	AttrSleeveLength = "sleeve_length"
	AttrNeckline     = "neckline"
	AttrLength       = "length"
	AttrPantType     = "pant_type"
	AttrSizes        = "sizes"
)

// AttributeNames returns all attribute names in their canonical order.
func AttributeNames() []string {
	return []string{
		AttrCategory, AttrFit, AttrFabric, AttrColorOrPrint, AttrOccasion,
		AttrSleeveLength, AttrNeckline, AttrLength, AttrPantType, AttrSizes,
	}
}

// AttributeValue is a single extracted attribute value with its confidence.
type AttributeValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// AttributeValues is a list of attribute values. It unmarshals from either a
// JSON array or a single object, coercing scalars to one-element lists since
// upstream services occasionally return an object where a list is expected.
type AttributeValues []AttributeValue

// UnmarshalJSON implements json.Unmarshaler.
func (vs *AttributeValues) UnmarshalJSON(data []byte) error {
	var list []AttributeValue
	if err := json.Unmarshal(data, &list); err == nil {
		*vs = list
		return nil
	}

	var single AttributeValue
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("attribute values: expected array or object: %w", err)
	}
	*vs = AttributeValues{single}
	return nil
}

// MeanConfidence returns the arithmetic mean of the value confidences, or 0
// for an empty list.
func (vs AttributeValues) MeanConfidence() float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v.Confidence
	}
	return sum / float64(len(vs))
}

// Values returns the raw string values in order.
func (vs AttributeValues) Values() []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Value)
	}
	return out
}

// Contains reports whether the list holds the given value.
func (vs AttributeValues) Contains(value string) bool {
	for _, v := range vs {
		if v.Value == value {
			return true
		}
	}
	return false
}

// PriceRange captures extracted price preferences. A nil bound means the side
// is unconstrained.
type PriceRange struct {
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Validate checks the range invariant: max >= min when both bounds are set.
func (pr *PriceRange) Validate() error {
	if pr.MinPrice != nil && pr.MaxPrice != nil && *pr.MaxPrice < *pr.MinPrice {
		return fmt.Errorf("price range: max_price %.2f is below min_price %.2f", *pr.MaxPrice, *pr.MinPrice)
	}
	return nil
}

// HasBound reports whether at least one numeric bound is present.
func (pr *PriceRange) HasBound() bool {
	return pr != nil && (pr.MinPrice != nil || pr.MaxPrice != nil)
}

// ExtractionResult is the structured output of one extraction service call:
// per-value-confidence attribute lists plus product name and price guesses.
type ExtractionResult struct {
	ProductName           string      `json:"product_name,omitempty"`
	ProductNameConfidence float64     `json:"product_name_confidence,omitempty"`
	PriceRange            *PriceRange `json:"price_range,omitempty"`

	Category     AttributeValues `json:"category,omitempty"`
	Fit          AttributeValues `json:"fit,omitempty"`
	Fabric       AttributeValues `json:"fabric,omitempty"`
	ColorOrPrint AttributeValues `json:"color_or_print,omitempty"`
	Occasion     AttributeValues `json:"occasion,omitempty"`
	SleeveLength AttributeValues `json:"sleeve_length,omitempty"`
	Neckline     AttributeValues `json:"neckline,omitempty"`
	Length       AttributeValues `json:"length,omitempty"`
	PantType     AttributeValues `json:"pant_type,omitempty"`
	Sizes        AttributeValues `json:"sizes,omitempty"`

	OverallConfidence  float64  `json:"overall_confidence"`
	ExplicitAttributes []string `json:"explicit_attributes,omitempty"`
	InferredAttributes []string `json:"inferred_attributes,omitempty"`
	Reasoning          string   `json:"reasoning"`
}

// Get returns the value list for a named attribute, or nil for unknown names.
func (r *ExtractionResult) Get(name string) AttributeValues {
	switch name {
	case AttrCategory:
		return r.Category
	case AttrFit:
		return r.Fit
	case AttrFabric:
		return r.Fabric
	case AttrColorOrPrint:
		return r.ColorOrPrint
	case AttrOccasion:
		return r.Occasion
	case AttrSleeveLength:
		return r.SleeveLength
	case AttrNeckline:
		return r.Neckline
	case AttrLength:
		return r.Length
	case AttrPantType:
		return r.PantType
	case AttrSizes:
		return r.Sizes
	}
	return nil
}

// Set replaces the value list for a named attribute. Unknown names are ignored.
func (r *ExtractionResult) Set(name string, values AttributeValues) {
	switch name {
	case AttrCategory:
		r.Category = values
	case AttrFit:
		r.Fit = values
	case AttrFabric:
		r.Fabric = values
	case AttrColorOrPrint:
		r.ColorOrPrint = values
	case AttrOccasion:
		r.Occasion = values
	case AttrSleeveLength:
		r.SleeveLength = values
	case AttrNeckline:
		r.Neckline = values
	case AttrLength:
		r.Length = values
	case AttrPantType:
		r.PantType = values
	case AttrSizes:
		r.Sizes = values
	}
}

// ExtractedAttributes returns only the attributes that hold at least one value,
// keyed by attribute name.
func (r *ExtractionResult) ExtractedAttributes() map[string]AttributeValues {
	out := make(map[string]AttributeValues)
	for _, name := range AttributeNames() {
		if values := r.Get(name); len(values) > 0 {
			out[name] = values
		}
	}
	return out
}

// ClampConfidences forces every confidence into [0,1]. Upstream services are
// prompted for that range but are not trusted to honor it.
func (r *ExtractionResult) ClampConfidences() {
	clamp := func(f float64) float64 {
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 1
		}
		return f
	}

	r.ProductNameConfidence = clamp(r.ProductNameConfidence)
	r.OverallConfidence = clamp(r.OverallConfidence)
	if r.PriceRange != nil {
		r.PriceRange.Confidence = clamp(r.PriceRange.Confidence)
	}
	for _, name := range AttributeNames() {
		values := r.Get(name)
		for i := range values {
			values[i].Confidence = clamp(values[i].Confidence)
		}
	}
}
