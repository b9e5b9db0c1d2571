// Package extract reads a full or partial product record out of the open
// detail modal.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"obamixscraper/internal/scraper/browser"
	"obamixscraper/internal/scraper/models"
	"obamixscraper/internal/scraper/parse"
	"obamixscraper/internal/scraper/wait"
)

const (
	// ModalSelector is the detail overlay opened per catalog row.
	ModalSelector = "#viewProduct"

	modalTitleSelector   = "#modal-name"
	modalSpinnerSelector = ".loadingModal"
	closeButtonSelector  = ModalSelector + " button.close"

	defaultModalTimeout = 25 * time.Second
	defaultTabTimeout   = 15 * time.Second
	defaultCloseTimeout = 10 * time.Second
)

// ErrModalTimeout means the modal never finished its async fill. The row is
// recorded with an error and the walker moves on.
var ErrModalTimeout = errors.New("extract: modal did not finish loading")

type Extractor struct {
	page     browser.Page
	log      *zap.Logger
	interval time.Duration

	modalTimeout time.Duration
	tabTimeout   time.Duration
	closeTimeout time.Duration
}

func NewExtractor(page browser.Page, log *zap.Logger) *Extractor {
	return &Extractor{
		page:         page,
		log:          log,
		interval:     wait.DefaultInterval,
		modalTimeout: defaultModalTimeout,
		tabTimeout:   defaultTabTimeout,
		closeTimeout: defaultCloseTimeout,
	}
}

// Modal scrapes the currently opening modal for productID. In light mode
// only the price/stock group is read; the remaining fields and the lazily
// loaded tabs are skipped. The modal is always closed before returning,
// whatever happened.
func (e *Extractor) Modal(productID int, light bool) (models.Detail, error) {
	ready := wait.ModalReady(e.page, ModalSelector, modalTitleSelector, modalSpinnerSelector)
	if err := wait.Until(ready, e.interval, e.modalTimeout); err != nil {
		e.Close()
		return models.Detail{}, fmt.Errorf("product %d: %w", productID, ErrModalTimeout)
	}
	defer e.Close()

	modal, err := e.page.Find(ModalSelector)
	if err != nil {
		return models.Detail{}, fmt.Errorf("product %d: locating modal: %w", productID, err)
	}

	var d models.Detail

	d.PriceText = textOrEmpty(modal, "#modal-price")
	if price, ok := parse.Money(d.PriceText); ok {
		d.PriceBRL = &price
	}

	if badges, err := modal.FindAll("#modal-inv span.badge"); err == nil && len(badges) > 0 {
		badge := badges[0]
		label, _ := badge.Text()
		tooltip, _ := badge.Attribute("data-original-title")
		d.StockLabel = parse.Clean(label)
		d.StockTooltip = tooltip
		if qty, ok := parse.Quantity(tooltip); ok {
			d.AvailableQty = &qty
		} else if qty, ok := parse.Quantity(label); ok {
			d.AvailableQty = &qty
		}
	}

	// Minimum price only counts when its alert element exists and is not
	// hidden; the field is conditional even in full mode.
	if alerts, err := modal.FindAll("#price-min-alert"); err == nil && len(alerts) > 0 {
		if !wait.HasHiddenClass(alerts[0]) {
			if minPrice, ok := parse.Money(textOrEmpty(modal, "#price-min")); ok {
				d.PriceMinBRL = &minPrice
			}
		}
	}

	if light {
		return d, nil
	}

	d.SKU = textOrEmpty(modal, "#modal-sku")
	d.Name = cleanModalName(textOrEmpty(modal, modalTitleSelector))
	d.Brand = textOrEmpty(modal, "#modal-brand")
	d.Model = textOrEmpty(modal, "#modal-model")
	d.Color = textOrEmpty(modal, "#modal-color")
	d.Voltage = textOrEmpty(modal, "#modal-voltage")
	d.EAN = textOrEmpty(modal, "#modal-ean")
	d.NCM = textOrEmpty(modal, "#modal-ncm")
	d.Anatel = textOrEmpty(modal, "#modal-anatel")
	d.Inmetro = textOrEmpty(modal, "#modal-inmetro")

	if weight, ok := parse.Money(textOrEmpty(modal, "#modal-weight")); ok {
		d.WeightKg = &weight
	}
	d.DimensionsCm = textOrEmpty(modal, "#modal-size")

	d.Categories = e.badgeValues(modal, "#modal-categories")
	d.Flags = e.flagBadges(modal, "#modal-flags")

	d.DescriptionHTML = innerHTMLOrEmpty(modal, "#modal-description")
	d.NoticesHTML = innerHTMLOrEmpty(modal, "#modal-notices")

	d.TopKeywords = e.listItems(modal, "#modal-top-keys")
	d.TitleSuggestions = e.listItems(modal, "#modal-top-titles")

	if iframe, err := modal.Find("#nav-video iframe"); err == nil {
		d.VideoURL, _ = iframe.Attribute("src")
	}

	if img, err := modal.Find("#modal-image"); err == nil {
		d.MainImage, _ = img.Attribute("src")
	}
	if link, err := modal.Find("#modal-href-image"); err == nil {
		d.MainImageFull, _ = link.Attribute("href")
	}
	d.Images = models.BuildGallery(
		models.ImageRef{URL: d.MainImage, Href: d.MainImageFull},
		e.galleryThumbs(modal),
	)

	return d, nil
}

// Close dismisses the modal best-effort: close button first, ESC to the
// page body as fallback, and a bounded non-fatal wait for invisibility so
// the next row's open does not collide with a lingering overlay.
func (e *Extractor) Close() {
	btn, err := e.page.Find(closeButtonSelector)
	if err == nil {
		err = btn.Click()
	}
	if err != nil {
		if err := e.page.PressKey("Escape"); err != nil {
			e.log.Warn("could not dismiss modal", zap.Error(err))
		}
	}
	if err := wait.Until(wait.Gone(e.page, ModalSelector), e.interval, e.closeTimeout); err != nil {
		e.log.Warn("modal still visible after close, proceeding", zap.Error(err))
	}
}

// ensureSectionLoaded returns the container once it has content, activating
// its tab once via a scripted click when the panel is lazy. On timeout it
// returns whatever is there; a missing section is nil, never an error.
func (e *Extractor) ensureSectionLoaded(modal browser.Element, containerSelector string) browser.Element {
	container, err := modal.Find(containerSelector)
	if err != nil {
		return nil
	}
	if hasContent(container) {
		return container
	}

	if pane, err := container.Closest("div.tab-pane"); err == nil {
		if id, _ := pane.Attribute("id"); id != "" {
			e.activateTab(modal, id)
		}
	}

	check := func() bool {
		c, err := modal.Find(containerSelector)
		return err == nil && hasContent(c)
	}
	if err := wait.Until(check, e.interval, e.tabTimeout); err != nil {
		e.log.Debug("tab content never loaded", zap.String("container", containerSelector))
	}

	container, err = modal.Find(containerSelector)
	if err != nil {
		return nil
	}
	return container
}

func (e *Extractor) activateTab(modal browser.Element, paneID string) {
	selectors := []string{
		fmt.Sprintf(`[data-bs-target="#%s"]`, paneID),
		fmt.Sprintf(`[data-target="#%s"]`, paneID),
		fmt.Sprintf(`a[href="#%s"]`, paneID),
	}
	for _, selector := range selectors {
		trigger, err := modal.Find(selector)
		if err != nil {
			continue
		}
		if err := trigger.ScriptClick(); err != nil {
			e.log.Debug("tab activation click failed", zap.String("trigger", selector), zap.Error(err))
		}
		return
	}
}

func (e *Extractor) listItems(modal browser.Element, containerSelector string) []string {
	container := e.ensureSectionLoaded(modal, containerSelector)
	if container == nil {
		return nil
	}

	var items []string
	if lis, err := container.FindAll("li"); err == nil {
		for _, li := range lis {
			if text, err := li.Text(); err == nil {
				if cleaned := parse.Clean(text); cleaned != "" {
					items = append(items, cleaned)
				}
			}
		}
	}
	if len(items) > 0 {
		return items
	}

	// Some panels render plain text instead of a list; split into lines
	// and drop a leading "Something:" header.
	raw, err := container.Text()
	if err != nil {
		return nil
	}
	for _, line := range strings.Split(raw, "\n") {
		if cleaned := parse.Clean(line); cleaned != "" {
			items = append(items, cleaned)
		}
	}
	if len(items) > 0 && strings.HasSuffix(items[0], ":") {
		items = items[1:]
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func (e *Extractor) badgeValues(modal browser.Element, containerSelector string) []string {
	container := e.ensureSectionLoaded(modal, containerSelector)
	if container == nil {
		return nil
	}
	badges, err := container.FindAll("span.badge")
	if err != nil {
		return nil
	}
	var values []string
	for _, badge := range badges {
		if text, err := badge.Text(); err == nil {
			if cleaned := parse.Clean(text); cleaned != "" {
				values = append(values, cleaned)
			}
		}
	}
	return values
}

func (e *Extractor) flagBadges(modal browser.Element, containerSelector string) []models.Badge {
	container := e.ensureSectionLoaded(modal, containerSelector)
	if container == nil {
		return nil
	}
	spans, err := container.FindAll("span")
	if err != nil {
		return nil
	}
	return parse.Badges(spans)
}

func (e *Extractor) galleryThumbs(modal browser.Element) []models.ImageRef {
	imgs, err := modal.FindAll("#modal-media img")
	if err != nil {
		return nil
	}
	var refs []models.ImageRef
	for _, img := range imgs {
		url, err := img.Attribute("src")
		if err != nil || url == "" {
			continue
		}
		href := ""
		if anchor, err := img.Closest("a"); err == nil {
			href, _ = anchor.Attribute("href")
		}
		refs = append(refs, models.ImageRef{URL: url, Href: href})
	}
	return refs
}

func hasContent(el browser.Element) bool {
	if lis, err := el.FindAll("li"); err == nil && len(lis) > 0 {
		return true
	}
	text, err := el.Text()
	if err != nil {
		return false
	}
	return parse.Clean(text) != ""
}

func textOrEmpty(ctx browser.Element, selector string) string {
	el, err := ctx.Find(selector)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return parse.Clean(text)
}

func innerHTMLOrEmpty(ctx browser.Element, selector string) string {
	el, err := ctx.Find(selector)
	if err != nil {
		return ""
	}
	html, err := el.InnerHTML()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

func cleanModalName(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "Clique para copiar", ""))
}
