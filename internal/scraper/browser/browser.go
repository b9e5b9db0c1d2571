package browser

import "errors"

var (
	// ErrNoSuchElement is returned when a selector matches nothing.
	ErrNoSuchElement = errors.New("browser: no such element")
	// ErrStale is returned when an element reference no longer points to a
	// node attached to the document. Callers re-locate and retry once.
	ErrStale = errors.New("browser: stale element reference")
)

// Element is one DOM node. Implementations may hold live references that
// become stale when the page re-renders; every method can return ErrStale.
type Element interface {
	Text() (string, error)
	InnerHTML() (string, error)
	Attribute(name string) (string, error)
	Visible() (bool, error)
	Click() error
	// ScriptClick dispatches a click from page script. Used when a native
	// click is intercepted by an overlapping element.
	ScriptClick() error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	// Closest walks up the ancestor chain to the first element matching
	// selector (tag or tag.class form).
	Closest(selector string) (Element, error)
}

// Page is the opaque DOM query capability the scraper depends on. The
// session behind it is already navigated and authenticated by the caller.
type Page interface {
	Navigate(url string) error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	// PressKey sends a key input to the page body.
	PressKey(key string) error
}
