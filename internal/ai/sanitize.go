package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// NormalizeCandidateJSON
// - Coerces numeric-looking strings -> numbers for money fields
// - Drops null/empty optionals
// - Trims and uppercases where it is cheap to do so
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeCandidateJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)

	// 1) money fields must come out as numbers
	for _, k := range []string{"amount", "tax_amount"} {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case float64:
				// already numeric
			case string:
				s := strings.TrimSpace(strings.TrimPrefix(t, "$"))
				s = strings.ReplaceAll(s, ",", "")
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					m[k] = f
				} else {
					delete(m, k)
					dropped = append(dropped, k+"(non-numeric)")
				}
			case nil:
				delete(m, k)
				dropped = append(dropped, k+"(null)")
			default:
				delete(m, k)
				dropped = append(dropped, k+"(type)")
			}
		}
	}

	// 2) trim obvious strings; drop empties
	for _, k := range []string{"vendor", "date", "invoice_number", "currency"} {
		if v, ok := m[k]; ok {
			s, isStr := v.(string)
			if !isStr {
				delete(m, k)
				dropped = append(dropped, k+"(type)")
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
				continue
			}
			m[k] = s
		}
	}
	if v, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(v)
	}

	// 3) line_items must be an array of {description, amount}
	if v, ok := m["line_items"]; ok {
		items, isList := v.([]any)
		if !isList {
			delete(m, "line_items")
			dropped = append(dropped, "line_items(type)")
		} else {
			cleaned := make([]any, 0, len(items))
			for _, e := range items {
				entry, isMap := e.(map[string]any)
				if !isMap {
					continue
				}
				out := map[string]any{}
				if d, ok := entry["description"].(string); ok && strings.TrimSpace(d) != "" {
					out["description"] = strings.TrimSpace(d)
				}
				switch a := entry["amount"].(type) {
				case float64:
					out["amount"] = a
				case string:
					s := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(a), "$"), ",", "")
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						out["amount"] = f
					}
				}
				if len(out) > 0 {
					cleaned = append(cleaned, out)
				}
			}
			m["line_items"] = cleaned
		}
	}

	// 4) remove unknown keys
	allowed := map[string]struct{}{
		"vendor": {}, "amount": {}, "date": {}, "invoice_number": {},
		"tax_amount": {}, "currency": {}, "line_items": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("ai.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
