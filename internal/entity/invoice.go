package entity

import (
	"github.com/invoiceworks/invoice-pipeline/constants"
)

// ExtractedDocument is the raw OCR output for a single document: the full
// text, the form key-value pairs, and per-field confidence scores. It is
// produced once per document and never mutated by the extraction core.
type ExtractedDocument struct {
	RawText          string             `json:"raw_text"`
	KeyValuePairs    map[string]string  `json:"key_value_pairs"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

// OverallConfidence returns the aggregate OCR confidence, or 0 if the OCR
// stage reported none.
func (d *ExtractedDocument) OverallConfidence() float64 {
	return d.ConfidenceScores["overall"]
}

// LineItem is one extracted invoice line.
type LineItem struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount,omitempty"`
}

// InvoiceRecord is the structured result of one extraction pass. Optional
// fields are nil when no confident signal was found; Currency always carries
// a value (USD by default).
type InvoiceRecord struct {
	Vendor           *string                    `json:"vendor,omitempty"`
	Amount           *float64                   `json:"amount,omitempty"`
	Date             *string                    `json:"date,omitempty"` // YYYY-MM-DD
	InvoiceNumber    *string                    `json:"invoice_number,omitempty"`
	TaxAmount        *float64                   `json:"tax_amount,omitempty"`
	Currency         string                     `json:"currency"`
	LineItems        []LineItem                 `json:"line_items,omitempty"`
	ExtractionMethod constants.ExtractionMethod `json:"extraction_method"`
	Confidence       constants.Confidence       `json:"confidence,omitempty"`
}

// StoredInvoice is the persisted form of a merged record, keyed by an id
// generated before the first persist attempt so retried writes are
// idempotent upserts.
type StoredInvoice struct {
	InvoiceID          string `json:"invoice_id"`
	ObjectKey          string `json:"s3_key"`
	ProcessedAt        string `json:"processed_at"` // RFC 3339
	ProcessingAttempts int    `json:"processing_attempts"`
	InvoiceRecord
}
