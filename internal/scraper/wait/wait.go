// Package wait owns the bounded polling used to decide when a dynamically
// rendered DOM region is safe to read. No fixed sleeps: every wait is a
// predicate re-evaluated at an interval up to a timeout.
package wait

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"obamixscraper/internal/scraper/browser"
)

// ErrTimeout is returned when a predicate never became true.
var ErrTimeout = errors.New("wait: condition not met before timeout")

// DefaultInterval is the poll interval shared by all readiness checks.
const DefaultInterval = 250 * time.Millisecond

// Until polls pred every interval until it returns true or timeout elapses.
// Predicate panics are not recovered; predicates must swallow their own
// transient lookup errors and report not-ready instead.
func Until(pred func() bool, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if pred() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w (after %s)", ErrTimeout, timeout)
		}
		time.Sleep(interval)
	}
}

// TableReady reports whether the listing table has at least one row and all
// of its loading spinners are marked hidden.
func TableReady(page browser.Page, rowsSelector, spinnerSelector string) func() bool {
	return func() bool {
		rows, err := page.FindAll(rowsSelector)
		if err != nil || len(rows) == 0 {
			return false
		}
		return spinnersHidden(page, spinnerSelector)
	}
}

// ModalReady reports whether the detail modal is visible, its title field is
// populated and its spinner (if any) is hidden. An empty title means the
// async fill has not landed yet.
func ModalReady(page browser.Page, modalSelector, titleSelector, spinnerSelector string) func() bool {
	return func() bool {
		modal, err := page.Find(modalSelector)
		if err != nil {
			return false
		}
		visible, err := modal.Visible()
		if err != nil || !visible {
			return false
		}
		title, err := modal.Find(titleSelector)
		if err != nil {
			return false
		}
		text, err := title.Text()
		if err != nil || strings.TrimSpace(text) == "" {
			return false
		}
		spinners, err := modal.FindAll(spinnerSelector)
		if err != nil {
			return false
		}
		for _, spinner := range spinners {
			if !HasHiddenClass(spinner) {
				return false
			}
		}
		return true
	}
}

// Gone reports whether no visible element matches selector anymore. Used for
// the best-effort wait on modal close.
func Gone(page browser.Page, selector string) func() bool {
	return func() bool {
		el, err := page.Find(selector)
		if err != nil {
			return true
		}
		visible, err := el.Visible()
		if err != nil {
			return true
		}
		return !visible
	}
}

// HasHiddenClass reports whether the element carries a "hidden" class token.
// The admin panel hides spinners by class, not by removing them.
func HasHiddenClass(el browser.Element) bool {
	class, err := el.Attribute("class")
	if err != nil {
		return false
	}
	return strings.Contains(class, "hidden")
}

func spinnersHidden(page browser.Page, selector string) bool {
	spinners, err := page.FindAll(selector)
	if err != nil {
		return false
	}
	for _, spinner := range spinners {
		if !HasHiddenClass(spinner) {
			return false
		}
	}
	return true
}
