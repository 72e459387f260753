package extract

import (
	"time"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// ExtractWithRules runs every field extractor over the document and assembles
// a rule-based record. The extractors are independent of each other, so the
// result is deterministic and side-effect free: identical input always yields
// an identical record.
func ExtractWithRules(doc *entity.ExtractedDocument) entity.InvoiceRecord {
	return entity.InvoiceRecord{
		Vendor:           extractVendor(doc.RawText, doc.KeyValuePairs),
		Amount:           extractAmount(doc.RawText, doc.KeyValuePairs),
		Date:             extractDate(doc.RawText, doc.KeyValuePairs),
		InvoiceNumber:    extractInvoiceNumber(doc.RawText, doc.KeyValuePairs),
		TaxAmount:        extractTaxAmount(doc.RawText),
		Currency:         extractCurrency(doc.RawText),
		LineItems:        extractLineItems(doc.RawText),
		ExtractionMethod: constants.MethodRuleBased,
	}
}

// FallbackRecord is the minimal record persisted when a document yields no
// usable signal at all; it keeps the persist path alive instead of failing
// the whole run.
func FallbackRecord(now time.Time) entity.InvoiceRecord {
	vendor := "Unknown"
	amount := 0.0
	date := now.UTC().Format("2006-01-02")
	number := "N/A"
	return entity.InvoiceRecord{
		Vendor:           &vendor,
		Amount:           &amount,
		Date:             &date,
		InvoiceNumber:    &number,
		Currency:         "USD",
		ExtractionMethod: constants.MethodFallback,
		Confidence:       constants.ConfidenceLow,
	}
}
