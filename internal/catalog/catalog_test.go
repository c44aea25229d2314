package catalog

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// writeWorkbook builds a temp xlsx with the standard catalog header and the
// given rows.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := []any{"id", "name", "category", "available_sizes", "fit", "fabric", "sleeve_length", "color_or_print", "occasion", "neckline", "length", "pant_type", "price"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"D001", "Linen Midi Dress", "dress", "S, M, L", "Flowy", "Linen", "Sleeveless", "Pastel yellow", "Vacation", "V neck", "Midi", "", 85.0},
		{"T001", "Ribbed Tank", "top", "XS,S", "Body hugging", "Ribbed jersey", "Sleeveless", "White", "Everyday", "Round neck", "", "", 25.0},
	})

	cat, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	p := cat.Products()[0]
	assert.Equal(t, "D001", p.ID)
	assert.Equal(t, "Linen Midi Dress", p.Name)
	assert.Equal(t, []string{"S", "M", "L"}, p.AvailableSizes)
	assert.Equal(t, "Linen", p.Fabric)
	assert.Equal(t, 85.0, p.Price)
}

func TestLoad_SkipsBadRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"D001", "Good Dress", "dress", "M", "", "", "", "", "", "", "", "", 85.0},
		{"", "No ID", "dress", "M", "", "", "", "", "", "", "", "", 40.0},
		{"D003", "", "dress", "M", "", "", "", "", "", "", "", "", 40.0},
		{"D004", "Bad Price", "dress", "M", "", "", "", "", "", "", "", "", "not-a-number"},
	})

	cat, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "D001", cat.Products()[0].ID)
}

func TestLoad_NoRows(t *testing.T) {
	path := writeWorkbook(t, nil)
	_, err := Load(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/catalog.xlsx", zerolog.Nop())
	assert.Error(t, err)
}

func TestCatalog_Queries(t *testing.T) {
	cat := New([]*types.Product{
		{ID: "D001", Category: "dress", AvailableSizes: []string{"S", "M"}, Price: 85},
		{ID: "D002", Category: "Dress", AvailableSizes: []string{"L"}, Price: 120},
		{ID: "T001", Category: "top", AvailableSizes: []string{"M"}, Price: 25},
	})

	assert.Len(t, cat.ByCategory("dress"), 2) // case-insensitive
	assert.Len(t, cat.BySize("M"), 2)

	low, high := 50.0, 100.0
	inRange := cat.InPriceRange(&low, &high)
	require.Len(t, inRange, 1)
	assert.Equal(t, "D001", inRange[0].ID)

	assert.Len(t, cat.InPriceRange(nil, nil), 3)
}

func TestCatalog_PreservesLoadOrder(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"C", "Third", "top", "M", "", "", "", "", "", "", "", "", 10.0},
		{"A", "First", "top", "M", "", "", "", "", "", "", "", "", 10.0},
		{"B", "Second", "top", "M", "", "", "", "", "", "", "", "", 10.0},
	})

	cat, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	ids := []string{cat.Products()[0].ID, cat.Products()[1].ID, cat.Products()[2].ID}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}
