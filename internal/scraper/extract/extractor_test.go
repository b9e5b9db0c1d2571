package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"obamixscraper/internal/scraper/browser/browsertest"
)

func newTestExtractor(page *browsertest.Page) *Extractor {
	return &Extractor{
		page:         page,
		log:          zap.NewNop(),
		interval:     time.Millisecond,
		modalTimeout: 50 * time.Millisecond,
		tabTimeout:   50 * time.Millisecond,
		closeTimeout: 20 * time.Millisecond,
	}
}

// modalFixture builds a fully loaded detail modal with a close button that
// hides the overlay when clicked.
func modalFixture() (*browsertest.Page, *browsertest.Element) {
	modal := &browsertest.Element{}
	modal.Set("#modal-name", &browsertest.Element{TextVal: "Caixa de Som JBL Clique para copiar"})
	modal.Set(".loadingModal", &browsertest.Element{Attrs: map[string]string{"class": "loadingModal hidden"}})

	modal.Set("#modal-price", &browsertest.Element{TextVal: "R$ 1.234,56"})
	modal.Set("#modal-inv span.badge", &browsertest.Element{
		TextVal: "Em estoque",
		Attrs:   map[string]string{"data-original-title": "1.234 unidades disponíveis"},
	})
	modal.Set("#price-min-alert", &browsertest.Element{Attrs: map[string]string{"class": "alert"}})
	modal.Set("#price-min", &browsertest.Element{TextVal: "R$ 999,99"})

	modal.Set("#modal-sku", &browsertest.Element{TextVal: "OBX-123"})
	modal.Set("#modal-brand", &browsertest.Element{TextVal: "JBL"})
	modal.Set("#modal-model", &browsertest.Element{TextVal: "GO 3"})
	modal.Set("#modal-color", &browsertest.Element{TextVal: "Preto"})
	modal.Set("#modal-voltage", &browsertest.Element{TextVal: "Bivolt"})
	modal.Set("#modal-ean", &browsertest.Element{TextVal: "7891234567890"})
	modal.Set("#modal-ncm", &browsertest.Element{TextVal: "8518.22.00"})
	modal.Set("#modal-anatel", &browsertest.Element{TextVal: "12345-20-01234"})
	modal.Set("#modal-inmetro", &browsertest.Element{TextVal: "n/a"})
	modal.Set("#modal-weight", &browsertest.Element{TextVal: "0,50"})
	modal.Set("#modal-size", &browsertest.Element{TextVal: "10 x 20 x 30"})

	categories := &browsertest.Element{TextVal: "Eletrônicos"}
	categories.Set("span.badge",
		&browsertest.Element{TextVal: "Eletrônicos"},
		&browsertest.Element{TextVal: "Áudio"},
	)
	modal.Set("#modal-categories", categories)

	flags := &browsertest.Element{TextVal: "Frete grátis"}
	flags.Set("span", &browsertest.Element{
		TextVal: "Frete grátis",
		Attrs:   map[string]string{"data-original-title": "Envio sem custo"},
	})
	modal.Set("#modal-flags", flags)

	modal.Set("#modal-description", &browsertest.Element{HTMLVal: "<p>Caixa de som portátil.</p>"})
	modal.Set("#modal-notices", &browsertest.Element{HTMLVal: "<p>Produto homologado.</p>"})

	titles := &browsertest.Element{}
	titles.Set("li",
		&browsertest.Element{TextVal: "Caixa de Som JBL GO 3 Preto"},
		&browsertest.Element{TextVal: "JBL GO 3 Bluetooth"},
	)
	modal.Set("#modal-top-titles", titles)

	modal.Set("#nav-video iframe", &browsertest.Element{Attrs: map[string]string{"src": "https://youtube.com/embed/abc"}})
	modal.Set("#modal-image", &browsertest.Element{Attrs: map[string]string{"src": "https://cdn/main.jpg"}})
	modal.Set("#modal-href-image", &browsertest.Element{Attrs: map[string]string{"href": "https://cdn/main-full.jpg"}})

	anchor := &browsertest.Element{Tag: "a", Attrs: map[string]string{"href": "https://cdn/thumb1-full.jpg"}}
	thumb1 := &browsertest.Element{Attrs: map[string]string{"src": "https://cdn/main.jpg"}}
	thumb2 := &browsertest.Element{Attrs: map[string]string{"src": "https://cdn/thumb1.jpg"}}
	modal.Set("#modal-media img", thumb1, thumb2)
	thumb2.Parent = anchor

	page := (&browsertest.Page{}).Set(ModalSelector, modal)
	closeBtn := &browsertest.Element{OnClick: func() { modal.Hidden = true }}
	page.Set(closeButtonSelector, closeBtn)
	return page, modal
}

func TestModalFullExtraction(t *testing.T) {
	page, modal := modalFixture()
	e := newTestExtractor(page)

	d, err := e.Modal(42, false)
	require.NoError(t, err)

	assert.Equal(t, "OBX-123", d.SKU)
	assert.Equal(t, "Caixa de Som JBL", d.Name)
	assert.Equal(t, "R$ 1.234,56", d.PriceText)
	require.NotNil(t, d.PriceBRL)
	assert.Equal(t, "1234.56", d.PriceBRL.StringFixed(2))
	require.NotNil(t, d.PriceMinBRL)
	assert.Equal(t, "999.99", d.PriceMinBRL.StringFixed(2))
	assert.Equal(t, "Em estoque", d.StockLabel)
	require.NotNil(t, d.AvailableQty)
	assert.Equal(t, 1234, *d.AvailableQty)

	assert.Equal(t, "JBL", d.Brand)
	assert.Equal(t, "GO 3", d.Model)
	assert.Equal(t, "Preto", d.Color)
	assert.Equal(t, "Bivolt", d.Voltage)
	assert.Equal(t, "7891234567890", d.EAN)
	require.NotNil(t, d.WeightKg)
	assert.Equal(t, "0.50", d.WeightKg.StringFixed(2))
	assert.Equal(t, "10 x 20 x 30", d.DimensionsCm)

	assert.Equal(t, []string{"Eletrônicos", "Áudio"}, d.Categories)
	require.Len(t, d.Flags, 1)
	assert.Equal(t, "Frete grátis", d.Flags[0].Label)
	assert.Equal(t, "Envio sem custo", d.Flags[0].Tooltip)
	assert.Equal(t, []string{"Caixa de Som JBL GO 3 Preto", "JBL GO 3 Bluetooth"}, d.TitleSuggestions)
	assert.Equal(t, "<p>Caixa de som portátil.</p>", d.DescriptionHTML)
	assert.Equal(t, "https://youtube.com/embed/abc", d.VideoURL)

	// Main image deduplicated against the matching thumb; the second thumb
	// picks up the href from its wrapping anchor.
	require.Len(t, d.Images, 2)
	assert.True(t, d.Images[0].IsMain)
	assert.Equal(t, "https://cdn/main.jpg", d.Images[0].URL)
	assert.Equal(t, "https://cdn/thumb1.jpg", d.Images[1].URL)
	assert.Equal(t, "https://cdn/thumb1-full.jpg", d.Images[1].Href)

	assert.True(t, modal.Hidden, "modal must be closed after extraction")
}

func TestModalLightMode(t *testing.T) {
	page, modal := modalFixture()
	e := newTestExtractor(page)

	d, err := e.Modal(42, true)
	require.NoError(t, err)

	require.NotNil(t, d.PriceBRL)
	require.NotNil(t, d.PriceMinBRL)
	require.NotNil(t, d.AvailableQty)

	assert.Empty(t, d.SKU)
	assert.Empty(t, d.Name)
	assert.Empty(t, d.Categories)
	assert.Empty(t, d.Images)

	assert.True(t, modal.Hidden, "modal is closed in light mode too")
}

func TestModalHiddenMinPriceIgnored(t *testing.T) {
	page, _ := modalFixture()
	alert, err := page.Find(ModalSelector)
	require.NoError(t, err)
	minAlert, err := alert.Find("#price-min-alert")
	require.NoError(t, err)
	minAlert.(*browsertest.Element).Attrs["class"] = "alert hidden"

	e := newTestExtractor(page)
	d, err := e.Modal(42, true)
	require.NoError(t, err)
	assert.Nil(t, d.PriceMinBRL)
}

func TestModalLazyTabActivation(t *testing.T) {
	page, modal := modalFixture()

	pane := &browsertest.Element{Tag: "div", Attrs: map[string]string{"class": "tab-pane", "id": "nav-keys"}}
	keywords := &browsertest.Element{}
	modal.Set("#modal-top-keys", keywords)
	keywords.Parent = pane

	trigger := &browsertest.Element{OnClick: func() {
		keywords.Set("li",
			&browsertest.Element{TextVal: "caixa de som"},
			&browsertest.Element{TextVal: "jbl go 3"},
		)
	}}
	modal.Set(`[data-bs-target="#nav-keys"]`, trigger)

	e := newTestExtractor(page)
	d, err := e.Modal(42, false)
	require.NoError(t, err)

	assert.Equal(t, 1, trigger.ScriptClicked, "tab activated exactly once")
	assert.Equal(t, []string{"caixa de som", "jbl go 3"}, d.TopKeywords)
}

func TestModalMissingSectionIsEmpty(t *testing.T) {
	page, modal := modalFixture()
	modal.Set("#modal-top-keys")

	e := newTestExtractor(page)
	d, err := e.Modal(42, false)
	require.NoError(t, err)
	assert.Empty(t, d.TopKeywords)
}

func TestModalTimeout(t *testing.T) {
	modal := &browsertest.Element{}
	modal.Set("#modal-name", &browsertest.Element{TextVal: ""}) // fill never lands
	page := (&browsertest.Page{}).Set(ModalSelector, modal)

	e := newTestExtractor(page)
	_, err := e.Modal(42, false)
	assert.ErrorIs(t, err, ErrModalTimeout)
}

func TestCloseFallsBackToEscape(t *testing.T) {
	modal := &browsertest.Element{}
	page := (&browsertest.Page{}).Set(ModalSelector, modal)
	// No close button registered.

	e := newTestExtractor(page)
	e.Close()

	assert.Contains(t, page.Pressed, "Escape")
}
