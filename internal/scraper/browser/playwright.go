package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

const actionTimeoutMs = 5000

// Session owns the playwright runtime and one headed Chromium page. The
// operator completes the CAPTCHA login in this window before scraping starts.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func StartSession(headless bool) (*Session, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, fmt.Errorf("installing playwright browsers: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     []string{"--start-maximized"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	ctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		NoViewport: playwright.Bool(true),
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	pg, err := ctx.NewPage()
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	return &Session{pw: pw, browser: b, context: ctx, page: pg}, nil
}

func (s *Session) Page() Page {
	return &pwPage{page: s.page}
}

func (s *Session) Close() error {
	if err := s.browser.Close(); err != nil {
		s.pw.Stop()
		return fmt.Errorf("closing browser: %w", err)
	}
	return s.pw.Stop()
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (p *pwPage) Find(selector string) (Element, error) {
	return findIn(p.page.Locator(selector))
}

func (p *pwPage) FindAll(selector string) ([]Element, error) {
	return findAllIn(p.page.Locator(selector))
}

func (p *pwPage) PressKey(key string) error {
	if err := p.page.Keyboard().Press(key); err != nil {
		return mapErr(err)
	}
	return nil
}

type pwElement struct {
	loc playwright.Locator
}

func (e *pwElement) Text() (string, error) {
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(actionTimeoutMs),
	})
	if err != nil {
		return "", mapErr(err)
	}
	return text, nil
}

func (e *pwElement) InnerHTML() (string, error) {
	html, err := e.loc.InnerHTML(playwright.LocatorInnerHTMLOptions{
		Timeout: playwright.Float(actionTimeoutMs),
	})
	if err != nil {
		return "", mapErr(err)
	}
	return html, nil
}

func (e *pwElement) Attribute(name string) (string, error) {
	value, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(actionTimeoutMs),
	})
	if err != nil {
		return "", mapErr(err)
	}
	return value, nil
}

func (e *pwElement) Visible() (bool, error) {
	visible, err := e.loc.IsVisible()
	if err != nil {
		return false, mapErr(err)
	}
	return visible, nil
}

func (e *pwElement) Click() error {
	err := e.loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(actionTimeoutMs),
	})
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (e *pwElement) ScriptClick() error {
	if _, err := e.loc.Evaluate("el => el.click()", nil); err != nil {
		return mapErr(err)
	}
	return nil
}

func (e *pwElement) Find(selector string) (Element, error) {
	return findIn(e.loc.Locator(selector))
}

func (e *pwElement) FindAll(selector string) ([]Element, error) {
	return findAllIn(e.loc.Locator(selector))
}

func (e *pwElement) Closest(selector string) (Element, error) {
	return findIn(e.loc.Locator("xpath=" + closestToXPath(selector)))
}

func findIn(loc playwright.Locator) (Element, error) {
	count, err := loc.Count()
	if err != nil {
		return nil, mapErr(err)
	}
	if count == 0 {
		return nil, ErrNoSuchElement
	}
	return &pwElement{loc: loc.First()}, nil
}

func findAllIn(loc playwright.Locator) ([]Element, error) {
	all, err := loc.All()
	if err != nil {
		return nil, mapErr(err)
	}
	elements := make([]Element, 0, len(all))
	for _, l := range all {
		elements = append(elements, &pwElement{loc: l})
	}
	return elements, nil
}

// closestToXPath supports the two selector shapes the extractor needs:
// a bare tag ("a") and tag.class ("div.tab-pane").
func closestToXPath(selector string) string {
	if tag, class, ok := strings.Cut(selector, "."); ok {
		return fmt.Sprintf("ancestor::%s[contains(@class,'%s')][1]", tag, class)
	}
	return fmt.Sprintf("ancestor::%s[1]", selector)
}

func mapErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "not attached") || strings.Contains(msg, "detached") {
		return ErrStale
	}
	return err
}
