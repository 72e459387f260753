package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// Per-field heuristics over raw OCR text and the form key-value map. Every
// extractor returns nil (or the documented default) when no confident signal
// is found; none of them report errors.

var (
	vendorSkipLine   = regexp.MustCompile(`(?i)^(invoice|bill|receipt|date|total)`)
	entityMarkers    = []string{"inc", "llc", "corp", "ltd", "company", "co."}
	vendorKeys       = []string{"vendor", "company", "from", "bill from", "seller", "billed by"}
	amountKeys       = []string{"total", "amount", "balance", "due", "grand total", "amount due"}
	dateKeys         = []string{"date", "invoice date", "bill date", "issued", "created"}
	numberKeys       = []string{"invoice", "invoice number", "number", "ref", "reference", "inv"}
	invoiceNumberFmt = regexp.MustCompile(`[^\w\-]`)

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)amount[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)balance[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)due[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)(\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
		regexp.MustCompile(`(?i)((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4})`),
		regexp.MustCompile(`(?i)(\d{1,2} (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{4})`),
	}

	numberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s*#?\s*:?\s*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)inv\s*#?\s*:?\s*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)#\s*([A-Z0-9\-]{3,})`),
		regexp.MustCompile(`(?i)ref\s*:?\s*([A-Z0-9\-]+)`),
	}

	taxPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)tax[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)vat[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)gst[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
		regexp.MustCompile(`(?i)sales tax[:\s]+\$?(\d{1,3}(?:,\d{3})*\.?\d{0,2})`),
	}

	currencyCode  = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|JPY|CAD|AUD)\b`)
	lineAmount    = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*\.?\d{0,2})`)
	leadingDigits = regexp.MustCompile(`^\d+\s*`)
)

// sortedKeys returns the map keys in a stable order so extraction over the
// same input is always bit-identical.
func sortedKeys(kvp map[string]string) []string {
	keys := make([]string, 0, len(kvp))
	for k := range kvp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func extractVendor(text string, kvp map[string]string) *string {
	keys := sortedKeys(kvp)
	for _, want := range vendorKeys {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(k), want) {
				if v := strings.TrimSpace(kvp[k]); len(v) > 2 {
					return &v
				}
			}
		}
	}

	lines := strings.Split(text, "\n")
	limit := len(lines)
	if limit > 8 {
		limit = 8
	}
	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(lines[i])
		if len(line) <= 3 || vendorSkipLine.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, marker := range entityMarkers {
			if strings.Contains(lower, marker) {
				return &line
			}
		}
		// First substantial line near the top is likely the vendor.
		if i < 3 && len(line) > 5 {
			return &line
		}
	}

	if len(lines) > 0 {
		if first := strings.TrimSpace(lines[0]); len(first) > 2 {
			return &first
		}
	}
	return nil
}

func extractAmount(text string, kvp map[string]string) *float64 {
	keys := sortedKeys(kvp)
	for _, want := range amountKeys {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(k), want) {
				if amount := ParseCurrency(kvp[k]); amount != nil && *amount > 0 {
					return amount
				}
			}
		}
	}

	var found []float64
	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if amount := ParseCurrency(m[1]); amount != nil && *amount > 0 {
				found = append(found, *amount)
			}
		}
	}
	if len(found) == 0 {
		return nil
	}

	// The largest plausible value is taken as the total: invoices list many
	// smaller amounts (line items, tax) before the grand total. Values under
	// 1.0 are excluded first to keep stray cents fragments out.
	var best, bestAny float64
	for _, a := range found {
		if a > bestAny {
			bestAny = a
		}
		if a >= 1.0 && a > best {
			best = a
		}
	}
	if best > 0 {
		return &best
	}
	return &bestAny
}

func extractDate(text string, kvp map[string]string) *string {
	keys := sortedKeys(kvp)
	for _, want := range dateKeys {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(k), want) {
				if date := ParseDate(kvp[k]); date != nil {
					return date
				}
			}
		}
	}

	for _, pattern := range datePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if date := ParseDate(m[1]); date != nil {
				return date
			}
		}
	}
	return nil
}

func extractInvoiceNumber(text string, kvp map[string]string) *string {
	keys := sortedKeys(kvp)
	for _, want := range numberKeys {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(k), want) && strings.TrimSpace(kvp[k]) != "" {
				cleaned := invoiceNumberFmt.ReplaceAllString(strings.TrimSpace(kvp[k]), "")
				if len(cleaned) > 2 {
					return &cleaned
				}
			}
		}
	}

	for _, pattern := range numberPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if len(m[1]) >= 3 {
				number := m[1]
				return &number
			}
		}
	}
	return nil
}

func extractTaxAmount(text string) *float64 {
	for _, pattern := range taxPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if amount := ParseCurrency(m[1]); amount != nil && *amount > 0 {
				return amount
			}
		}
	}
	return nil
}

func extractCurrency(text string) string {
	switch {
	case strings.Contains(text, "$"):
		return "USD"
	case strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "£"):
		return "GBP"
	case strings.Contains(text, "¥"):
		return "JPY"
	}
	if m := currencyCode.FindString(text); m != "" {
		return strings.ToUpper(m)
	}
	return "USD"
}

// truncateDescription caps a description at MaxDescriptionLength bytes,
// backing up to a rune boundary so a multi-byte character is never split.
func truncateDescription(s string) string {
	if len(s) <= constants.MaxDescriptionLength {
		return s
	}
	cut := constants.MaxDescriptionLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func extractLineItems(text string) []entity.LineItem {
	var items []entity.LineItem
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.Contains(line, "$") || len(line) <= 15 {
			continue
		}
		m := lineAmount.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		description := strings.TrimSpace(lineAmount.ReplaceAllString(line, ""))
		description = leadingDigits.ReplaceAllString(description, "")
		if len(description) <= 3 {
			continue
		}
		items = append(items, entity.LineItem{
			Description: truncateDescription(description),
			Amount:      ParseCurrency(m[1]),
		})
		if len(items) == constants.MaxLineItems {
			break
		}
	}
	return items
}
