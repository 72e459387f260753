package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyJunk = regexp.MustCompile(`[$€£¥,\s]`)

// ParseCurrency strips currency symbols, thousands separators, and whitespace
// and parses the remainder as a decimal number. Returns nil on empty input or
// a non-numeric remainder; it never reports an error.
func ParseCurrency(raw string) *float64 {
	if raw == "" {
		return nil
	}
	cleaned := currencyJunk.ReplaceAllString(raw, "")
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// dateLayouts is tried in order. The order is load-bearing: month-first comes
// before day-first, so an ambiguous value like 03/04/2024 resolves to March 4.
var dateLayouts = []string{
	"1/2/2006",
	"2/1/2006",
	"2006-1-2",
	"2006/1/2",
	"1-2-2006",
	"2-1-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"1/2/06",
	"2/1/06",
}

// ParseDate parses a free-form date string against a fixed ordered list of
// formats and returns it in ISO form (YYYY-MM-DD). Returns nil if no format
// matches.
func ParseDate(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}
