package models

import "github.com/shopspring/decimal"

// Badge is one label+tooltip pair scraped from a badge-like element.
type Badge struct {
	Label   string `db:"label"`
	Tooltip string `db:"tooltip"`
}

// GalleryImage is one entry of a product's ordered image gallery. The main
// image, when present, always sits at position 0 with IsMain set.
type GalleryImage struct {
	URL      string `db:"url"`
	Href     string `db:"href"`
	IsMain   bool   `db:"is_main"`
	Position int    `db:"position"`
}

// Listing holds the fields readable from the table row without opening the
// detail modal. They survive even when modal extraction fails.
type Listing struct {
	ListingSKU           string
	ListingName          string
	ListingColor         string
	ListingModel         string
	ListingBrand         string
	ListingPriceText     string
	ListingStockBadge    string
	ListingStockTooltip  string
	ListingAvailableQty  *int
	ListingThumbnail     string
	ListingThumbnailFull string
	ListingBadges        []Badge
}

// Detail holds the fields scraped from the open modal. In light mode only
// the price/stock group is populated; everything else stays zero.
type Detail struct {
	SKU              string
	Name             string
	PriceText        string
	PriceBRL         *decimal.Decimal
	PriceMinBRL      *decimal.Decimal
	Brand            string
	Model            string
	Color            string
	Voltage          string
	EAN              string
	NCM              string
	Anatel           string
	Inmetro          string
	WeightKg         *decimal.Decimal
	DimensionsCm     string
	DescriptionHTML  string
	NoticesHTML      string
	StockLabel       string
	StockTooltip     string
	AvailableQty     *int
	Categories       []string
	Flags            []Badge
	TopKeywords      []string
	TitleSuggestions []string
	VideoURL         string
	MainImage        string
	MainImageFull    string
	Images           []GalleryImage
}

// ProductRecord is one catalog row, keyed by the stable ProductID carried on
// the modal trigger. A record either has ScrapeError empty and a best-effort
// complete Detail, or ScrapeError set and only Listing data.
type ProductRecord struct {
	ProductID int
	Listing
	Detail
	ScrapeError string
	// KnownSKU marks records extracted in light mode because the SKU was
	// already present in a previous run.
	KnownSKU bool
}
