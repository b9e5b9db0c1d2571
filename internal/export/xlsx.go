// Package export writes the collected records to an XLSX workbook, one
// sheet per persistence table, as a human-auditable copy of the run.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"obamixscraper/internal/scraper/models"
)

var productHeader = []interface{}{
	"product_id", "sku", "name", "price_brl", "price_min_brl", "brand", "model",
	"color", "voltage", "ean", "ncm", "anatel", "inmetro", "weight_kg",
	"dimensions_cm", "stock_label", "stock_tooltip", "available_qty",
	"listing_sku", "listing_name", "listing_color", "listing_brand",
	"listing_model", "listing_price_text", "listing_stock_badge",
	"listing_available_qty", "listing_thumbnail", "main_image", "video_url",
	"scrape_error",
}

// WriteWorkbook saves records to an XLSX file at path.
func WriteWorkbook(path string, records []models.ProductRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "products"); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	if err := writeRows(f, "products", productHeader, productRows(records)); err != nil {
		return err
	}

	childSheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{"categories", []interface{}{"product_id", "category"}, categoryRows(records)},
		{"flags", []interface{}{"product_id", "label", "tooltip"}, flagRows(records)},
		{"images", []interface{}{"product_id", "url", "href", "is_main", "position"}, imageRows(records)},
		{"keywords", []interface{}{"product_id", "keyword"}, keywordRows(records)},
		{"titles", []interface{}{"product_id", "title"}, titleRows(records)},
		{"listing_badges", []interface{}{"product_id", "label", "tooltip"}, listingBadgeRows(records)},
	}
	for _, sheet := range childSheets {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet.name, err)
		}
		if err := writeRows(f, sheet.name, sheet.header, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	all := append([][]interface{}{header}, rows...)
	for rowIdx, row := range all {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			if value == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func productRows(records []models.ProductRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.ProductID, r.SKU, r.Name, decimalValue(r.PriceBRL), decimalValue(r.PriceMinBRL),
			r.Brand, r.Model, r.Color, r.Voltage, r.EAN, r.NCM, r.Anatel, r.Inmetro,
			decimalValue(r.WeightKg), r.DimensionsCm, r.StockLabel, r.StockTooltip,
			intValue(r.AvailableQty), r.ListingSKU, r.ListingName, r.ListingColor,
			r.ListingBrand, r.ListingModel, r.ListingPriceText, r.ListingStockBadge,
			intValue(r.ListingAvailableQty), r.ListingThumbnail, r.MainImage,
			r.VideoURL, r.ScrapeError,
		})
	}
	return rows
}

func categoryRows(records []models.ProductRecord) [][]interface{} {
	var rows [][]interface{}
	for _, r := range records {
		for _, category := range r.Categories {
			rows = append(rows, []interface{}{r.ProductID, category})
		}
	}
	return rows
}

func flagRows(records []models.ProductRecord) [][]interface{} {
	var rows [][]interface{}
	for _, r := range records {
		for _, flag := range r.Flags {
			rows = append(rows, []interface{}{r.ProductID, flag.Label, flag.Tooltip})
		}
	}
	return rows
}

func imageRows(records []models.ProductRecord) [][]interface{} {
	var rows [][]interface{}
	for _, r := range records {
		for _, image := range r.Images {
			rows = append(rows, []interface{}{r.ProductID, image.URL, image.Href, image.IsMain, image.Position})
		}
	}
	return rows
}

func keywordRows(records []models.ProductRecord) [][]interface{} {
	var rows [][]interface{}
	for _, r := range records {
		for _, keyword := range r.TopKeywords {
			rows = append(rows, []interface{}{r.ProductID, keyword})
		}
	}
	return rows
}

func titleRows(records []models.ProductRecord) [][]interface{} {
	var rows [][]interface{}
	for _, r := range records {
		for _, title := range r.TitleSuggestions {
			rows = append(rows, []interface{}{r.ProductID, title})
		}
	}
	return rows
}

func listingBadgeRows(records []models.ProductRecord) [][]interface{} {
	var rows [][]interface{}
	for _, r := range records {
		for _, badge := range r.ListingBadges {
			rows = append(rows, []interface{}{r.ProductID, badge.Label, badge.Tooltip})
		}
	}
	return rows
}

func decimalValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func intValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
