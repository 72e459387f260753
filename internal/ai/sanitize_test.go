package ai

import (
	"encoding/json"
	"testing"
)

func normalize(t *testing.T, in string) map[string]any {
	t.Helper()
	out, _, err := NormalizeCandidateJSON([]byte(in), nil)
	if err != nil {
		t.Fatalf("NormalizeCandidateJSON: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	return m
}

func TestNormalizeCoercesMoneyStrings(t *testing.T) {
	m := normalize(t, `{"amount": "$1,234.50", "tax_amount": "99"}`)
	if m["amount"] != 1234.5 {
		t.Errorf("amount = %v, want 1234.5", m["amount"])
	}
	if m["tax_amount"] != 99.0 {
		t.Errorf("tax_amount = %v, want 99", m["tax_amount"])
	}
}

func TestNormalizeDropsBadMoneyValues(t *testing.T) {
	m := normalize(t, `{"amount": "a lot", "tax_amount": null}`)
	if _, ok := m["amount"]; ok {
		t.Error("non-numeric amount survived")
	}
	if _, ok := m["tax_amount"]; ok {
		t.Error("null tax_amount survived")
	}
}

func TestNormalizeTrimsAndDropsStrings(t *testing.T) {
	m := normalize(t, `{"vendor": "  ACME Corp  ", "invoice_number": "   ", "date": 20240101}`)
	if m["vendor"] != "ACME Corp" {
		t.Errorf("vendor = %v", m["vendor"])
	}
	if _, ok := m["invoice_number"]; ok {
		t.Error("blank invoice_number survived")
	}
	if _, ok := m["date"]; ok {
		t.Error("non-string date survived")
	}
}

func TestNormalizeUppercasesCurrency(t *testing.T) {
	m := normalize(t, `{"currency": " usd "}`)
	if m["currency"] != "USD" {
		t.Errorf("currency = %v, want USD", m["currency"])
	}
}

func TestNormalizeRemovesUnknownKeys(t *testing.T) {
	m := normalize(t, `{"vendor": "ACME Corp", "reasoning": "because", "confidence": 0.9}`)
	if _, ok := m["reasoning"]; ok {
		t.Error("unknown key reasoning survived")
	}
	if _, ok := m["confidence"]; ok {
		t.Error("unknown key confidence survived")
	}
	if m["vendor"] != "ACME Corp" {
		t.Errorf("vendor = %v", m["vendor"])
	}
}

func TestNormalizeCleansLineItems(t *testing.T) {
	m := normalize(t, `{"line_items": [
		{"description": " Widget ", "amount": "$10.00"},
		{"description": "", "amount": 5},
		"garbage",
		{"note": "no usable fields"}
	]}`)
	items, ok := m["line_items"].([]any)
	if !ok {
		t.Fatalf("line_items = %T", m["line_items"])
	}
	if len(items) != 2 {
		t.Fatalf("got %d line items, want 2", len(items))
	}
	first := items[0].(map[string]any)
	if first["description"] != "Widget" || first["amount"] != 10.0 {
		t.Errorf("items[0] = %v", first)
	}
	// The second entry kept only its amount; normalization is per key.
	second := items[1].(map[string]any)
	if _, ok := second["description"]; ok {
		t.Errorf("items[1] kept an empty description: %v", second)
	}
	if second["amount"] != 5.0 {
		t.Errorf("items[1].amount = %v, want 5", second["amount"])
	}
}

func TestNormalizeReportsDropped(t *testing.T) {
	_, dropped, err := NormalizeCandidateJSON([]byte(`{"amount": "nope", "extra": 1}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v, want 2 entries", dropped)
	}
}

func TestNormalizeRejectsInvalidJSON(t *testing.T) {
	if _, _, err := NormalizeCandidateJSON([]byte(`{not json`), nil); err == nil {
		t.Fatal("want decode error")
	}
}
