// Package repositories persists scraped catalog records into PostgreSQL.
// Products are upserted by product_id; child collections are replaced
// wholesale per product on every run.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"obamixscraper/internal/scraper/models"
	"obamixscraper/metrics"
)

// saleMultiplier derives the resale price column from the scraped catalog
// price.
var saleMultiplier = decimal.New(256, -2)

const productsTableSQL = `
CREATE TABLE IF NOT EXISTS products (
	product_id INTEGER PRIMARY KEY,
	sku TEXT,
	name TEXT,
	price_brl NUMERIC(12, 2),
	price_venda NUMERIC(12, 2),
	price_min_brl NUMERIC(12, 2),
	brand TEXT,
	model TEXT,
	color TEXT,
	voltage TEXT,
	ean TEXT,
	ncm TEXT,
	anatel TEXT,
	inmetro TEXT,
	weight_kg NUMERIC(10, 3),
	dimensions_cm TEXT,
	description_html TEXT,
	notices_html TEXT,
	stock_label TEXT,
	stock_tooltip TEXT,
	available_qty INTEGER,
	listing_sku TEXT,
	listing_name TEXT,
	listing_color TEXT,
	listing_brand TEXT,
	listing_model TEXT,
	listing_price_text TEXT,
	listing_stock_badge TEXT,
	listing_stock_tooltip TEXT,
	listing_available_qty INTEGER,
	listing_thumbnail TEXT,
	listing_thumbnail_full TEXT,
	main_image TEXT,
	main_image_full TEXT,
	video_url TEXT,
	scrape_error TEXT,
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
);`

var detailTablesSQL = []string{
	`CREATE TABLE IF NOT EXISTS product_categories (
		id BIGSERIAL PRIMARY KEY,
		product_id INTEGER REFERENCES products(product_id) ON DELETE CASCADE,
		category TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS product_flags (
		id BIGSERIAL PRIMARY KEY,
		product_id INTEGER REFERENCES products(product_id) ON DELETE CASCADE,
		label TEXT,
		tooltip TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS product_images (
		product_id INTEGER REFERENCES products(product_id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		href TEXT,
		is_main BOOLEAN DEFAULT FALSE,
		position INTEGER,
		PRIMARY KEY (product_id, url)
	);`,
	`CREATE TABLE IF NOT EXISTS product_keywords (
		id BIGSERIAL PRIMARY KEY,
		product_id INTEGER REFERENCES products(product_id) ON DELETE CASCADE,
		keyword TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS product_titles (
		id BIGSERIAL PRIMARY KEY,
		product_id INTEGER REFERENCES products(product_id) ON DELETE CASCADE,
		title TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS product_listing_badges (
		id BIGSERIAL PRIMARY KEY,
		product_id INTEGER REFERENCES products(product_id) ON DELETE CASCADE,
		label TEXT,
		tooltip TEXT
	);`,
}

const upsertProductSQL = `
INSERT INTO products (
	product_id, sku, name, price_brl, price_venda, price_min_brl, brand, model, color,
	voltage, ean, ncm, anatel, inmetro, weight_kg, dimensions_cm, description_html,
	notices_html, stock_label, stock_tooltip, available_qty, listing_sku,
	listing_name, listing_color, listing_brand, listing_model, listing_price_text,
	listing_stock_badge, listing_stock_tooltip, listing_available_qty,
	listing_thumbnail, listing_thumbnail_full, main_image, main_image_full,
	video_url, scrape_error
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
	$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34,
	$35, $36
)
ON CONFLICT (product_id) DO UPDATE SET
	sku = EXCLUDED.sku,
	name = EXCLUDED.name,
	price_brl = EXCLUDED.price_brl,
	price_venda = EXCLUDED.price_venda,
	price_min_brl = EXCLUDED.price_min_brl,
	brand = EXCLUDED.brand,
	model = EXCLUDED.model,
	color = EXCLUDED.color,
	voltage = EXCLUDED.voltage,
	ean = EXCLUDED.ean,
	ncm = EXCLUDED.ncm,
	anatel = EXCLUDED.anatel,
	inmetro = EXCLUDED.inmetro,
	weight_kg = EXCLUDED.weight_kg,
	dimensions_cm = EXCLUDED.dimensions_cm,
	description_html = EXCLUDED.description_html,
	notices_html = EXCLUDED.notices_html,
	stock_label = EXCLUDED.stock_label,
	stock_tooltip = EXCLUDED.stock_tooltip,
	available_qty = EXCLUDED.available_qty,
	listing_sku = EXCLUDED.listing_sku,
	listing_name = EXCLUDED.listing_name,
	listing_color = EXCLUDED.listing_color,
	listing_brand = EXCLUDED.listing_brand,
	listing_model = EXCLUDED.listing_model,
	listing_price_text = EXCLUDED.listing_price_text,
	listing_stock_badge = EXCLUDED.listing_stock_badge,
	listing_stock_tooltip = EXCLUDED.listing_stock_tooltip,
	listing_available_qty = EXCLUDED.listing_available_qty,
	listing_thumbnail = EXCLUDED.listing_thumbnail,
	listing_thumbnail_full = EXCLUDED.listing_thumbnail_full,
	main_image = EXCLUDED.main_image,
	main_image_full = EXCLUDED.main_image_full,
	video_url = EXCLUDED.video_url,
	scrape_error = EXCLUDED.scrape_error,
	updated_at = NOW();`

type ProductRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewProductRepository(db *sql.DB, log *zap.Logger) *ProductRepository {
	return &ProductRepository{db: db, log: log}
}

// UpMigration creates the products table and its child tables when absent.
func (r *ProductRepository) UpMigration(db *sql.DB) error {
	if _, err := db.Exec(productsTableSQL); err != nil {
		return fmt.Errorf("creating products table: %w", err)
	}
	// Column added after the first deployments; harmless on fresh schemas.
	if _, err := db.Exec(`ALTER TABLE products ADD COLUMN IF NOT EXISTS price_venda NUMERIC(12, 2);`); err != nil {
		return fmt.Errorf("ensuring price_venda column: %w", err)
	}
	for _, ddl := range detailTablesSQL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating detail table: %w", err)
		}
	}
	return nil
}

// SaveAll upserts every record and replaces its child rows in one
// transaction. Records without a positive product_id cannot be keyed and
// are skipped with a warning. Returns the number of persisted products.
func (r *ProductRepository) SaveAll(ctx context.Context, records []models.ProductRecord) (int, error) {
	keyed := make([]models.ProductRecord, 0, len(records))
	for _, record := range records {
		if record.ProductID <= 0 {
			r.log.Warn("skipping record without product id",
				zap.String("listing_sku", record.ListingSKU),
				zap.String("error", record.ScrapeError))
			continue
		}
		keyed = append(keyed, record)
	}
	if len(keyed) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(keyed))
	for _, record := range keyed {
		if err := upsertProduct(ctx, tx, record); err != nil {
			return 0, fmt.Errorf("upserting product %d: %w", record.ProductID, err)
		}
		ids = append(ids, int64(record.ProductID))
	}

	if err := r.replaceChildren(ctx, tx, keyed, ids); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	metrics.RecordPersisted(len(keyed))
	return len(keyed), nil
}

func upsertProduct(ctx context.Context, tx *sql.Tx, record models.ProductRecord) error {
	var priceVenda interface{}
	if record.PriceBRL != nil {
		priceVenda = record.PriceBRL.Mul(saleMultiplier).String()
	}

	_, err := tx.ExecContext(ctx, upsertProductSQL,
		record.ProductID,
		nullString(coalesce(record.SKU, record.ListingSKU)),
		nullString(coalesce(record.Name, record.ListingName)),
		nullDecimal(record.PriceBRL),
		priceVenda,
		nullDecimal(record.PriceMinBRL),
		nullString(coalesce(record.Brand, record.ListingBrand)),
		nullString(coalesce(record.Model, record.ListingModel)),
		nullString(coalesce(record.Color, record.ListingColor)),
		nullString(record.Voltage),
		nullString(record.EAN),
		nullString(record.NCM),
		nullString(record.Anatel),
		nullString(record.Inmetro),
		nullDecimal(record.WeightKg),
		nullString(record.DimensionsCm),
		nullString(record.DescriptionHTML),
		nullString(record.NoticesHTML),
		nullString(coalesce(record.StockLabel, record.ListingStockBadge)),
		nullString(coalesce(record.StockTooltip, record.ListingStockTooltip)),
		nullInt(firstInt(record.AvailableQty, record.ListingAvailableQty)),
		nullString(record.ListingSKU),
		nullString(record.ListingName),
		nullString(record.ListingColor),
		nullString(record.ListingBrand),
		nullString(record.ListingModel),
		nullString(record.ListingPriceText),
		nullString(record.ListingStockBadge),
		nullString(record.ListingStockTooltip),
		nullInt(record.ListingAvailableQty),
		nullString(record.ListingThumbnail),
		nullString(record.ListingThumbnailFull),
		nullString(record.MainImage),
		nullString(record.MainImageFull),
		nullString(record.VideoURL),
		nullString(record.ScrapeError),
	)
	return err
}

func (r *ProductRepository) replaceChildren(ctx context.Context, tx *sql.Tx, records []models.ProductRecord, ids []int64) error {
	childTables := []string{
		"product_categories", "product_flags", "product_images",
		"product_keywords", "product_titles", "product_listing_badges",
	}
	for _, table := range childTables {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE product_id = ANY($1)`, table),
			pq.Array(ids),
		); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, record := range records {
		id := record.ProductID
		for _, category := range record.Categories {
			if err := execInsert(ctx, tx,
				`INSERT INTO product_categories (product_id, category) VALUES ($1, $2)`,
				id, category); err != nil {
				return err
			}
		}
		for _, flag := range record.Flags {
			if err := execInsert(ctx, tx,
				`INSERT INTO product_flags (product_id, label, tooltip) VALUES ($1, $2, $3)`,
				id, nullString(flag.Label), nullString(flag.Tooltip)); err != nil {
				return err
			}
		}
		for _, image := range record.Images {
			if err := execInsert(ctx, tx,
				`INSERT INTO product_images (product_id, url, href, is_main, position) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (product_id, url) DO UPDATE SET
					href = EXCLUDED.href, is_main = EXCLUDED.is_main, position = EXCLUDED.position`,
				id, image.URL, nullString(image.Href), image.IsMain, image.Position); err != nil {
				return err
			}
		}
		for _, keyword := range record.TopKeywords {
			if err := execInsert(ctx, tx,
				`INSERT INTO product_keywords (product_id, keyword) VALUES ($1, $2)`,
				id, keyword); err != nil {
				return err
			}
		}
		for _, title := range record.TitleSuggestions {
			if err := execInsert(ctx, tx,
				`INSERT INTO product_titles (product_id, title) VALUES ($1, $2)`,
				id, title); err != nil {
				return err
			}
		}
		for _, badge := range record.ListingBadges {
			if err := execInsert(ctx, tx,
				`INSERT INTO product_listing_badges (product_id, label, tooltip) VALUES ($1, $2, $3)`,
				id, nullString(badge.Label), nullString(badge.Tooltip)); err != nil {
				return err
			}
		}
	}
	return nil
}

func execInsert(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting child row: %w", err)
	}
	return nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
