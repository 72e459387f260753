package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// Archive is a local SQLite-backed copy of processed invoices. It backs the
// export tool and offline runs where DynamoDB is not reachable.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the archive at path.
func OpenArchive(path string) (*Archive, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("missing archive path")
	}
	p := filepath.Clean(trimmed)
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS invoices (
	invoice_id        TEXT PRIMARY KEY,
	s3_key            TEXT NOT NULL,
	processed_at      TEXT NOT NULL,
	attempts          INTEGER NOT NULL DEFAULT 1,
	vendor            TEXT,
	amount            REAL,
	invoice_date      TEXT,
	invoice_number    TEXT,
	tax_amount        REAL,
	currency          TEXT NOT NULL,
	extraction_method TEXT NOT NULL,
	confidence        TEXT,
	line_items_json   TEXT
);
CREATE INDEX IF NOT EXISTS idx_invoices_processed_at ON invoices(processed_at);
`)
	return err
}

// SaveInvoice upserts by invoice_id, mirroring the idempotent-write contract
// of the DynamoDB store.
func (a *Archive) SaveInvoice(ctx context.Context, item *entity.StoredInvoice) error {
	lineItems, err := json.Marshal(item.LineItems)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
INSERT INTO invoices
	(invoice_id, s3_key, processed_at, attempts, vendor, amount, invoice_date,
	 invoice_number, tax_amount, currency, extraction_method, confidence, line_items_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(invoice_id) DO UPDATE SET
	s3_key            = excluded.s3_key,
	processed_at      = excluded.processed_at,
	attempts          = excluded.attempts,
	vendor            = excluded.vendor,
	amount            = excluded.amount,
	invoice_date      = excluded.invoice_date,
	invoice_number    = excluded.invoice_number,
	tax_amount        = excluded.tax_amount,
	currency          = excluded.currency,
	extraction_method = excluded.extraction_method,
	confidence        = excluded.confidence,
	line_items_json   = excluded.line_items_json
`,
		item.InvoiceID, item.ObjectKey, item.ProcessedAt, item.ProcessingAttempts,
		item.Vendor, item.Amount, item.Date, item.InvoiceNumber, item.TaxAmount,
		item.Currency, string(item.ExtractionMethod), string(item.Confidence), string(lineItems),
	)
	if err != nil {
		return fmt.Errorf("upsert invoice %s: %w", item.InvoiceID, err)
	}
	return nil
}

// ListInvoices returns all archived invoices ordered by processing time.
func (a *Archive) ListInvoices(ctx context.Context) ([]entity.StoredInvoice, error) {
	rows, err := a.db.QueryContext(ctx, `
SELECT invoice_id, s3_key, processed_at, attempts, vendor, amount, invoice_date,
       invoice_number, tax_amount, currency, extraction_method, confidence, line_items_json
FROM invoices
ORDER BY processed_at, invoice_id
`)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []entity.StoredInvoice
	for rows.Next() {
		var item entity.StoredInvoice
		var method, confidence string
		var lineItems sql.NullString
		if err := rows.Scan(
			&item.InvoiceID, &item.ObjectKey, &item.ProcessedAt, &item.ProcessingAttempts,
			&item.Vendor, &item.Amount, &item.Date, &item.InvoiceNumber, &item.TaxAmount,
			&item.Currency, &method, &confidence, &lineItems,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		item.ExtractionMethod = constants.ExtractionMethod(method)
		item.Confidence = constants.Confidence(confidence)
		if lineItems.Valid && lineItems.String != "" && lineItems.String != "null" {
			if err := json.Unmarshal([]byte(lineItems.String), &item.LineItems); err != nil {
				return nil, fmt.Errorf("decode line items for %s: %w", item.InvoiceID, err)
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
