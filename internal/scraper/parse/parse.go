// Package parse converts raw DOM text into typed values. Everything here is
// tolerant: unparseable input yields an absent value, never an error.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"obamixscraper/internal/scraper/browser"
	"obamixscraper/internal/scraper/models"
)

// QuantityMax caps parsed quantities so a broken tooltip can never produce
// an absurd stock figure.
const QuantityMax = 1_000_000

// Matches a thousands-separated group ("1.234", "12 345") or a plain run of
// digits, whichever comes first in the text.
var quantityPattern = regexp.MustCompile(`\d{1,3}(?:[.\s]\d{3})+|\d+`)

var nonDigits = regexp.MustCompile(`\D`)

// Clean applies NFKC normalization (folding non-breaking spaces and other
// compatibility characters the admin panel is fond of) and trims the result.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Money parses a Brazilian currency string such as "R$ 1.234,56" into an
// exact decimal. The boolean reports presence; empty or non-numeric text is
// simply absent.
func Money(raw string) (decimal.Decimal, bool) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	replacer := strings.NewReplacer("R$", "", "r$", "", ".", "", " ", "", ",", ".")
	cleaned = replacer.Replace(cleaned)
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

// Quantity extracts the first integer-looking token from a label or tooltip,
// strips separators and clamps the result to [0, QuantityMax].
func Quantity(raw string) (int, bool) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return 0, false
	}
	match := quantityPattern.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	digits := nonDigits.ReplaceAllString(match, "")
	if digits == "" {
		return 0, false
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		// Longer than an int can hold; the clamp applies all the same.
		return QuantityMax, true
	}
	if value > QuantityMax {
		value = QuantityMax
	}
	return value, true
}

// Badges reads label+tooltip pairs off badge-like elements in DOM order.
// Elements that vanish mid-read are skipped rather than failing the field.
func Badges(elements []browser.Element) []models.Badge {
	var badges []models.Badge
	for _, el := range elements {
		label, err := el.Text()
		if err != nil {
			continue
		}
		tooltip, _ := el.Attribute("data-original-title")
		if tooltip == "" {
			tooltip, _ = el.Attribute("title")
		}
		badges = append(badges, models.Badge{
			Label:   Clean(label),
			Tooltip: strings.TrimSpace(tooltip),
		})
	}
	return badges
}
