// Package walk drives the paginated traversal of the product listing table:
// enumerate rows, open the detail modal per row, aggregate records, advance
// pages. One bad row never aborts the page or the run.
package walk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"obamixscraper/internal/scraper/browser"
	"obamixscraper/internal/scraper/models"
	"obamixscraper/internal/scraper/parse"
	"obamixscraper/internal/scraper/wait"
	"obamixscraper/metrics"
)

const (
	rowsSelector         = "#DataTables_Table_0 tbody tr"
	tableSpinnerSelector = ".loadding-table"
	modalTriggerSelector = "td:nth-child(8) a#btnViewProduct"
	nextControlSelector  = "#DataTables_Table_0_next"

	defaultTableTimeout = 25 * time.Second
)

var (
	// ErrTableTimeout is run-fatal: no rows means no progress is possible.
	ErrTableTimeout = errors.New("walk: listing table never became ready")

	errMissingTrigger   = errors.New("walk: row has no modal trigger")
	errMissingProductID = errors.New("walk: modal trigger has no data-id")
)

// DetailExtractor scrapes the modal a row's trigger just opened.
type DetailExtractor interface {
	Modal(productID int, light bool) (models.Detail, error)
}

// PageFunc receives each finished page for incremental checkpointing.
type PageFunc func(records []models.ProductRecord, page int)

// Options tune the traversal. Zero delays disable the politeness limiters,
// a zero PageLimit means walk until the paginator is exhausted.
type Options struct {
	PageLimit int
	KnownSKUs map[string]struct{}
	RowDelay  time.Duration
	PageDelay time.Duration
	OnPage    PageFunc
}

type Walker struct {
	page      browser.Page
	extractor DetailExtractor
	log       *zap.Logger

	pageLimit   int
	knownSKUs   map[string]struct{}
	rowLimiter  *rate.Limiter
	pageLimiter *rate.Limiter
	onPage      PageFunc

	tableTimeout time.Duration
}

func NewWalker(page browser.Page, extractor DetailExtractor, log *zap.Logger, opts Options) *Walker {
	return &Walker{
		page:        page,
		extractor:   extractor,
		log:         log,
		pageLimit:   opts.PageLimit,
		knownSKUs:   opts.KnownSKUs,
		rowLimiter:  newLimiter(opts.RowDelay),
		pageLimiter: newLimiter(opts.PageDelay),
		onPage:      opts.OnPage,

		tableTimeout: defaultTableTimeout,
	}
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Run walks every page until the paginator is exhausted, the page limit is
// reached or the context is cancelled. Records gathered so far are returned
// alongside any fatal error; partial results are always delivered.
func (w *Walker) Run(ctx context.Context) ([]models.ProductRecord, error) {
	var all []models.ProductRecord

	for pageNum := 1; ; pageNum++ {
		started := time.Now()

		ready := wait.TableReady(w.page, rowsSelector, tableSpinnerSelector)
		if err := wait.Until(ready, wait.DefaultInterval, w.tableTimeout); err != nil {
			return all, fmt.Errorf("page %d: %w", pageNum, ErrTableTimeout)
		}

		rows, err := w.page.FindAll(rowsSelector)
		if err != nil {
			return all, fmt.Errorf("page %d: enumerating rows: %w", pageNum, err)
		}
		if len(rows) == 0 {
			break
		}
		w.log.Info("scraping page", zap.Int("page", pageNum), zap.Int("rows", len(rows)))

		pageRecords := make([]models.ProductRecord, 0, len(rows))
		for index := range rows {
			record := w.scrapeRow(ctx, index)
			pageRecords = append(pageRecords, record)
			if record.ScrapeError != "" {
				metrics.RecordRow("error")
			} else {
				metrics.RecordRow("ok")
			}
			if err := w.rowLimiter.Wait(ctx); err != nil {
				return append(all, pageRecords...), err
			}
		}

		if w.onPage != nil {
			w.onPage(pageRecords, pageNum)
		}
		all = append(all, pageRecords...)
		metrics.RecordPage(time.Since(started))

		if w.pageLimit > 0 && pageNum >= w.pageLimit {
			w.log.Info("page limit reached, stopping", zap.Int("limit", w.pageLimit))
			break
		}

		if err := w.pageLimiter.Wait(ctx); err != nil {
			return all, err
		}
		advanced, err := w.advance()
		if err != nil {
			return all, fmt.Errorf("page %d: advancing: %w", pageNum, err)
		}
		if !advanced {
			break
		}
	}

	return all, nil
}

// scrapeRow reads one row's listing summary and runs the modal cycle.
// Failures of any kind end up in the record's ScrapeError, keeping the
// listing fields; the walker then moves on to the next row.
func (w *Walker) scrapeRow(ctx context.Context, index int) models.ProductRecord {
	record, trigger, err := w.readRow(index)
	if errors.Is(err, browser.ErrStale) {
		// The table re-rendered under us; re-locate the row exactly once.
		record, trigger, err = w.readRow(index)
	}
	if err != nil {
		record.ScrapeError = err.Error()
		w.log.Warn("row failed before modal", zap.Int("row", index), zap.Error(err))
		return record
	}

	_, known := w.knownSKUs[record.ListingSKU]
	known = known && record.ListingSKU != ""

	if err := openModal(trigger); err != nil {
		record.ScrapeError = err.Error()
		w.log.Warn("modal trigger click failed", zap.Int("product_id", record.ProductID), zap.Error(err))
		return record
	}

	detail, err := w.extractor.Modal(record.ProductID, known)
	if err != nil {
		record.ScrapeError = err.Error()
		w.log.Warn("modal extraction failed", zap.Int("product_id", record.ProductID), zap.Error(err))
		return record
	}

	record.Detail = detail
	record.KnownSKU = known
	return record
}

// readRow re-locates the row collection and indexes into it just before
// reading, guarding against live DOM mutation between rows.
func (w *Walker) readRow(index int) (models.ProductRecord, browser.Element, error) {
	var record models.ProductRecord

	rows, err := w.page.FindAll(rowsSelector)
	if err != nil {
		return record, nil, err
	}
	if index >= len(rows) {
		return record, nil, fmt.Errorf("row %d no longer present (%d rows)", index, len(rows))
	}
	row := rows[index]

	trigger, err := row.Find(modalTriggerSelector)
	switch {
	case errors.Is(err, browser.ErrStale):
		return record, nil, err
	case err != nil:
		trigger = nil
	}

	if trigger != nil {
		raw, err := trigger.Attribute("data-id")
		if errors.Is(err, browser.ErrStale) {
			return record, nil, err
		}
		if id, convErr := strconv.Atoi(strings.TrimSpace(raw)); convErr == nil && id > 0 {
			record.ProductID = id
		}
	}

	listing, err := readListing(row)
	record.Listing = listing
	if err != nil {
		return record, nil, err
	}

	if trigger == nil {
		return record, nil, errMissingTrigger
	}
	if record.ProductID == 0 {
		return record, nil, errMissingProductID
	}
	return record, trigger, nil
}

func readListing(row browser.Element) (models.Listing, error) {
	var l models.Listing

	sku, err := cellText(row, "td:nth-child(1)")
	if err != nil {
		return l, err
	}
	l.ListingSKU = sku

	if anchor, err := row.Find("td:nth-child(2) a"); err == nil {
		l.ListingThumbnailFull, _ = anchor.Attribute("href")
	}
	if img, err := row.Find("td:nth-child(2) img"); err == nil {
		l.ListingThumbnail, _ = img.Attribute("src")
	}

	if titleCell, err := row.Find("td:nth-child(3)"); err == nil {
		if smalls, err := titleCell.FindAll(".small"); err == nil {
			for _, small := range smalls {
				if text, err := small.Text(); err == nil {
					if cleaned := parse.Clean(text); cleaned != "" {
						l.ListingColor = cleaned
						break
					}
				}
			}
		}
		if text, err := titleCell.Text(); err == nil {
			lines := nonEmptyLines(text)
			// The color renders as the cell's first line; drop it so the
			// display name comes out clean.
			if l.ListingColor != "" && len(lines) > 0 && strings.EqualFold(lines[0], l.ListingColor) {
				lines = lines[1:]
			}
			if len(lines) > 0 {
				l.ListingName = lines[0]
			}
		}
		if badges, err := titleCell.FindAll("span.badge"); err == nil {
			l.ListingBadges = parse.Badges(badges)
		}
	}

	l.ListingModel, _ = cellText(row, "td:nth-child(4)")
	l.ListingBrand, _ = cellText(row, "td:nth-child(5)")
	l.ListingPriceText, _ = cellText(row, "td:nth-child(6)")

	if badges, err := row.FindAll("td:nth-child(7) span"); err == nil && len(badges) > 0 {
		badge := badges[0]
		if label, err := badge.Text(); err == nil {
			l.ListingStockBadge = parse.Clean(label)
		}
		l.ListingStockTooltip, _ = badge.Attribute("data-original-title")
		if qty, ok := parse.Quantity(l.ListingStockTooltip); ok {
			l.ListingAvailableQty = &qty
		} else if qty, ok := parse.Quantity(l.ListingStockBadge); ok {
			l.ListingAvailableQty = &qty
		}
	}

	return l, nil
}

func openModal(trigger browser.Element) error {
	if err := trigger.Click(); err != nil {
		// Click intercepted by an overlapping element; dispatch from script.
		if err := trigger.ScriptClick(); err != nil {
			return fmt.Errorf("opening modal: %w", err)
		}
	}
	return nil
}

func (w *Walker) advance() (bool, error) {
	next, err := w.page.Find(nextControlSelector)
	if err != nil {
		return false, nil
	}
	class, _ := next.Attribute("class")
	if strings.Contains(class, "disabled") {
		return false, nil
	}
	link, err := next.Find("a")
	if err != nil {
		return false, fmt.Errorf("next-page link: %w", err)
	}
	if err := link.Click(); err != nil {
		if err := link.ScriptClick(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func cellText(row browser.Element, selector string) (string, error) {
	cell, err := row.Find(selector)
	if errors.Is(err, browser.ErrStale) {
		return "", err
	}
	if err != nil {
		return "", nil
	}
	text, err := cell.Text()
	if errors.Is(err, browser.ErrStale) {
		return "", err
	}
	if err != nil {
		return "", nil
	}
	return parse.Clean(text), nil
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if cleaned := parse.Clean(line); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return lines
}
