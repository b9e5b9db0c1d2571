package export

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"obamixscraper/internal/scraper/models"
)

func TestWriteWorkbook(t *testing.T) {
	price := decimal.RequireFromString("1234.56")
	qty := 7

	records := []models.ProductRecord{
		{
			ProductID: 1,
			Listing:   models.Listing{ListingSKU: "OBX-1", ListingName: "Caixa de Som"},
			Detail: models.Detail{
				SKU:          "OBX-1",
				Name:         "Caixa de Som JBL",
				PriceBRL:     &price,
				AvailableQty: &qty,
				Categories:   []string{"Eletrônicos", "Áudio"},
				TopKeywords:  []string{"caixa de som"},
				Images: []models.GalleryImage{
					{URL: "https://cdn/main.jpg", Href: "https://cdn/main.jpg", IsMain: true, Position: 0},
				},
			},
		},
		{
			ProductID:   2,
			Listing:     models.Listing{ListingSKU: "OBX-2"},
			ScrapeError: "modal never loaded",
		},
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, WriteWorkbook(path, records))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t,
		[]string{"products", "categories", "flags", "images", "keywords", "titles", "listing_badges"},
		f.GetSheetList(),
	)

	name, err := f.GetCellValue("products", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Caixa de Som JBL", name)

	priceCell, err := f.GetCellValue("products", "D2")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", priceCell)

	// Nil pointers leave the cell untouched.
	minPrice, err := f.GetCellValue("products", "E2")
	require.NoError(t, err)
	assert.Empty(t, minPrice)

	errCell, err := f.GetCellValue("products", "AD3")
	require.NoError(t, err)
	assert.Equal(t, "modal never loaded", errCell)

	category, err := f.GetCellValue("categories", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Áudio", category)

	keyword, err := f.GetCellValue("keywords", "B2")
	require.NoError(t, err)
	assert.Equal(t, "caixa de som", keyword)

	isMain, err := f.GetCellValue("images", "D2")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", isMain)
}

func TestWriteWorkbookEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteWorkbook(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("products", "A1")
	require.NoError(t, err)
	assert.Equal(t, "product_id", header)
}
