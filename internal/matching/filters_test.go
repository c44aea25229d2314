package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

func sampleProducts() []*types.Product {
	return []*types.Product{
		{ID: "D001", Category: "dress", Fabric: "Linen", AvailableSizes: []string{"S", "M"}, Price: 85},
		{ID: "D002", Category: "dress", Fabric: "Satin", AvailableSizes: []string{"M", "L"}, Price: 150},
		{ID: "T001", Category: "top", Fabric: "Cotton", AvailableSizes: []string{"S"}, Price: 25},
		{ID: "P001", Category: "pants", Fabric: "", AvailableSizes: []string{"L"}, Price: 60},
	}
}

func TestAttributeFilter_Apply(t *testing.T) {
	f := NewAttributeFilter(types.AttrCategory, []string{"dress"}, 0.9)

	out := f.Apply(sampleProducts())
	require.Len(t, out, 2)
	assert.Equal(t, "D001", out[0].ID)
	assert.Equal(t, types.AttrCategory, f.Name())
	assert.Equal(t, 0.9, f.Confidence())
}

func TestAttributeFilter_ORSemantics(t *testing.T) {
	f := NewAttributeFilter(types.AttrFabric, []string{"Linen", "Cotton"}, 0.8)
	assert.Len(t, f.Apply(sampleProducts()), 2)
}

func TestAttributeFilter_EmptyFieldNeverMatches(t *testing.T) {
	f := NewAttributeFilter(types.AttrFabric, []string{"Linen"}, 0.8)
	for _, p := range f.Apply(sampleProducts()) {
		assert.NotEqual(t, "P001", p.ID)
	}
}

func TestAttributeFilter_Sizes(t *testing.T) {
	f := NewAttributeFilter(types.AttrSizes, []string{"S", "L"}, 0.9)

	out := f.Apply(sampleProducts())
	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"D001", "D002", "T001", "P001"}, ids)

	none := NewAttributeFilter(types.AttrSizes, []string{"XXL"}, 0.9)
	assert.Empty(t, none.Apply(sampleProducts()))
}

func TestPriceFilter_Apply(t *testing.T) {
	maxP := 100.0
	f := NewPriceFilter(&types.PriceRange{MaxPrice: &maxP, Confidence: 0.7})

	out := f.Apply(sampleProducts())
	require.Len(t, out, 3)
	assert.Equal(t, "price", f.Name())
	assert.Equal(t, 0.7, f.Confidence())
}

func TestPrepareFilters_ThresholdDropsLowConfidence(t *testing.T) {
	attrs := types.ConversationAttributes{
		Attributes: map[string][]string{
			types.AttrFabric: {"Linen", "Velvet"},
		},
		ConfidenceScores: map[string][]float64{
			types.AttrFabric: {0.9, 0.3},
		},
	}

	filters := PrepareFilters(attrs, 0.6)
	require.Len(t, filters, 1)

	af := filters[0].(*AttributeFilter)
	assert.Equal(t, []string{"Linen"}, af.Values)
	assert.InDelta(t, 0.9, af.Confidence(), 1e-9)
}

func TestPrepareFilters_FallbackKeepsBestValue(t *testing.T) {
	attrs := types.ConversationAttributes{
		Attributes: map[string][]string{
			types.AttrFabric: {"Linen", "Velvet"},
		},
		ConfidenceScores: map[string][]float64{
			types.AttrFabric: {0.4, 0.5},
		},
	}

	filters := PrepareFilters(attrs, 0.6)
	require.Len(t, filters, 1)

	// Nothing clears the threshold, so the single best value survives.
	af := filters[0].(*AttributeFilter)
	assert.Equal(t, []string{"Velvet"}, af.Values)
	assert.Equal(t, 0.5, af.Confidence())
}

func TestPrepareFilters_MismatchedScoresDefaultToFullTrust(t *testing.T) {
	attrs := types.ConversationAttributes{
		Attributes: map[string][]string{
			types.AttrFabric: {"Linen", "Cotton"},
		},
		ConfidenceScores: map[string][]float64{
			types.AttrFabric: {0.9}, // wrong length
		},
	}

	filters := PrepareFilters(attrs, 0.6)
	require.Len(t, filters, 1)

	af := filters[0].(*AttributeFilter)
	assert.Equal(t, []string{"Linen", "Cotton"}, af.Values)
	assert.Equal(t, 1.0, af.Confidence())
}

func TestPrepareFilters_PriceAppendedLast(t *testing.T) {
	maxP := 100.0
	attrs := types.ConversationAttributes{
		Attributes: map[string][]string{
			types.AttrCategory: {"dress"},
		},
		ConfidenceScores: map[string][]float64{
			types.AttrCategory: {0.9},
		},
		ProductInfo: types.ProductInfo{
			PriceRange: &types.PriceRange{MaxPrice: &maxP, Confidence: 0.8},
		},
	}

	filters := PrepareFilters(attrs, 0.6)
	require.Len(t, filters, 2)
	assert.Equal(t, "price", filters[1].Name())
}

func TestPrepareFilters_EmptyAttributes(t *testing.T) {
	assert.Empty(t, PrepareFilters(types.ConversationAttributes{}, 0.6))
}
