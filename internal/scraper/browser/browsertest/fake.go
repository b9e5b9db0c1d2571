// Package browsertest provides in-memory implementations of the browser
// interfaces so extraction and traversal logic can be tested without a
// real browser session.
package browsertest

import (
	"strings"

	"obamixscraper/internal/scraper/browser"
)

// Element is a scriptable fake DOM node. The zero value is a visible,
// attribute-less element with no children.
type Element struct {
	Tag      string
	TextVal  string
	HTMLVal  string
	Attrs    map[string]string
	Hidden   bool
	Parent   *Element
	Children map[string][]*Element

	// StaleReads makes the next N method calls fail with ErrStale, then
	// the element behaves normally. Models a mid-render re-attach.
	StaleReads int

	OnClick       func()
	ClickErr      error
	Clicked       int
	ScriptClicked int
}

var _ browser.Element = (*Element)(nil)

func (e *Element) stale() bool {
	if e.StaleReads > 0 {
		e.StaleReads--
		return true
	}
	return false
}

func (e *Element) Text() (string, error) {
	if e.stale() {
		return "", browser.ErrStale
	}
	return e.TextVal, nil
}

func (e *Element) InnerHTML() (string, error) {
	if e.stale() {
		return "", browser.ErrStale
	}
	return e.HTMLVal, nil
}

func (e *Element) Attribute(name string) (string, error) {
	if e.stale() {
		return "", browser.ErrStale
	}
	return e.Attrs[name], nil
}

func (e *Element) Visible() (bool, error) {
	if e.stale() {
		return false, browser.ErrStale
	}
	return !e.Hidden, nil
}

func (e *Element) Click() error {
	if e.stale() {
		return browser.ErrStale
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicked++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) ScriptClick() error {
	e.ScriptClicked++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Find(selector string) (browser.Element, error) {
	if e.stale() {
		return nil, browser.ErrStale
	}
	matches := e.Children[selector]
	if len(matches) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return matches[0], nil
}

func (e *Element) FindAll(selector string) ([]browser.Element, error) {
	if e.stale() {
		return nil, browser.ErrStale
	}
	return asElements(e.Children[selector]), nil
}

func (e *Element) Closest(selector string) (browser.Element, error) {
	for p := e.Parent; p != nil; p = p.Parent {
		if matchesSelector(p, selector) {
			return p, nil
		}
	}
	return nil, browser.ErrNoSuchElement
}

// Set registers children under the exact selector production code queries
// with, wiring Parent pointers for Closest.
func (e *Element) Set(selector string, children ...*Element) *Element {
	if e.Children == nil {
		e.Children = make(map[string][]*Element)
	}
	for _, c := range children {
		c.Parent = e
	}
	e.Children[selector] = children
	return e
}

// Page is a scriptable fake of browser.Page. Lookups go through LookupFunc
// when set, falling back to the static Elements map; tests mutate either
// from OnClick handlers to model asynchronous page updates.
type Page struct {
	Elements   map[string][]*Element
	LookupFunc func(selector string) []*Element

	Pressed   []string
	Navigated []string
}

var _ browser.Page = (*Page)(nil)

func (p *Page) lookup(selector string) []*Element {
	if p.LookupFunc != nil {
		return p.LookupFunc(selector)
	}
	return p.Elements[selector]
}

func (p *Page) Navigate(url string) error {
	p.Navigated = append(p.Navigated, url)
	return nil
}

func (p *Page) Find(selector string) (browser.Element, error) {
	matches := p.lookup(selector)
	if len(matches) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return matches[0], nil
}

func (p *Page) FindAll(selector string) ([]browser.Element, error) {
	return asElements(p.lookup(selector)), nil
}

func (p *Page) PressKey(key string) error {
	p.Pressed = append(p.Pressed, key)
	return nil
}

// Set registers page-level matches for a selector.
func (p *Page) Set(selector string, elements ...*Element) *Page {
	if p.Elements == nil {
		p.Elements = make(map[string][]*Element)
	}
	p.Elements[selector] = elements
	return p
}

func asElements(fakes []*Element) []browser.Element {
	elements := make([]browser.Element, len(fakes))
	for i, f := range fakes {
		elements[i] = f
	}
	return elements
}

func matchesSelector(e *Element, selector string) bool {
	tag, class, hasClass := strings.Cut(selector, ".")
	if e.Tag != tag {
		return false
	}
	if !hasClass {
		return true
	}
	return strings.Contains(e.Attrs["class"], class)
}
