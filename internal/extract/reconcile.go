package extract

import (
	"regexp"
	"strings"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// MergeResults reconciles the rule-based record with an untrusted AI candidate
// map. The rules are the reliable floor: an AI value overwrites a field only
// when it passes the field's validity gate, so an absent or invalid candidate
// can never regress a valid rule-based value. If the AI pass reported its
// failure sentinel (or never ran), the rule-based record is returned
// unchanged.
func MergeResults(rule entity.InvoiceRecord, candidates map[string]any) entity.InvoiceRecord {
	if candidates == nil || candidates["extraction_method"] == string(constants.MethodBedrockFailed) {
		return rule
	}

	merged := rule

	if v, ok := asPositiveNumber(candidates["amount"]); ok {
		merged.Amount = &v
	}
	if v, ok := asNumber(candidates["tax_amount"]); ok && v >= 0 {
		merged.TaxAmount = &v
	}
	if v, ok := candidates["date"].(string); ok && len(v) >= 8 && isoDatePrefix.MatchString(v) {
		merged.Date = &v
	}
	if v, ok := asTrimmedString(candidates["vendor"]); ok {
		merged.Vendor = &v
	}
	if v, ok := asTrimmedString(candidates["invoice_number"]); ok {
		merged.InvoiceNumber = &v
	}
	if v, ok := asTrimmedString(candidates["currency"]); ok {
		merged.Currency = v
	}
	if items, ok := asLineItems(candidates["line_items"]); ok {
		merged.LineItems = items
	}

	merged.ExtractionMethod = constants.MethodHybrid
	if candidates["extraction_method"] == string(constants.MethodBedrockAI) {
		merged.Confidence = constants.ConfidenceHigh
	} else {
		merged.Confidence = constants.ConfidenceMedium
	}
	return merged
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}

func asPositiveNumber(v any) (float64, bool) {
	f, ok := asNumber(v)
	return f, ok && f > 0
}

func asTrimmedString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, len(s) > 1
}

// asLineItems accepts an ordered candidate sequence and replaces the
// rule-based items wholesale. An empty sequence, or one with no usable
// entries, is treated like an absent candidate so it cannot wipe out
// rule-based items.
func asLineItems(v any) ([]entity.LineItem, bool) {
	raw, ok := v.([]any)
	if !ok || len(raw) == 0 {
		return nil, false
	}
	items := make([]entity.LineItem, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		desc, _ := m["description"].(string)
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		item := entity.LineItem{Description: truncateDescription(desc)}
		if amount, ok := asNumber(m["amount"]); ok {
			item.Amount = &amount
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}
