package repository

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "invoices.db"))
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func storedInvoice(id, processedAt string) *entity.StoredInvoice {
	vendor := "ACME Corp"
	amount := 2170.0
	date := "2024-03-15"
	number := "INV-2024-001"
	tax := 170.0
	lineAmount := 500.0
	return &entity.StoredInvoice{
		InvoiceID:          id,
		ObjectKey:          "invoices/a.pdf",
		ProcessedAt:        processedAt,
		ProcessingAttempts: 2,
		InvoiceRecord: entity.InvoiceRecord{
			Vendor:           &vendor,
			Amount:           &amount,
			Date:             &date,
			InvoiceNumber:    &number,
			TaxAmount:        &tax,
			Currency:         "USD",
			LineItems:        []entity.LineItem{{Description: "Widget assembly", Amount: &lineAmount}},
			ExtractionMethod: constants.MethodHybrid,
			Confidence:       constants.ConfidenceHigh,
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	want := storedInvoice("id-1", "2024-03-15T10:00:00Z")
	if err := a.SaveInvoice(ctx, want); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}

	got, err := a.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d invoices, want 1", len(got))
	}
	if !reflect.DeepEqual(got[0], *want) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", *want, got[0])
	}
}

func TestArchiveSaveIsUpsert(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	first := storedInvoice("id-1", "2024-03-15T10:00:00Z")
	if err := a.SaveInvoice(ctx, first); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}

	updated := storedInvoice("id-1", "2024-03-15T10:05:00Z")
	newVendor := "Globex Corporation"
	updated.Vendor = &newVendor
	if err := a.SaveInvoice(ctx, updated); err != nil {
		t.Fatalf("SaveInvoice (update): %v", err)
	}

	got, err := a.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d invoices after upsert, want 1", len(got))
	}
	if got[0].Vendor == nil || *got[0].Vendor != "Globex Corporation" {
		t.Fatalf("Vendor = %v, want the updated value", got[0].Vendor)
	}
}

func TestArchiveListOrdersByProcessedAt(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	later := storedInvoice("id-2", "2024-03-16T09:00:00Z")
	earlier := storedInvoice("id-1", "2024-03-15T10:00:00Z")
	if err := a.SaveInvoice(ctx, later); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	if err := a.SaveInvoice(ctx, earlier); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}

	got, err := a.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(got) != 2 || got[0].InvoiceID != "id-1" || got[1].InvoiceID != "id-2" {
		t.Fatalf("unexpected order: %v, %v", got[0].InvoiceID, got[1].InvoiceID)
	}
}

func TestArchiveSparseRecord(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	sparse := &entity.StoredInvoice{
		InvoiceID:          "id-sparse",
		ObjectKey:          "invoices/b.pdf",
		ProcessedAt:        "2024-03-15T10:00:00Z",
		ProcessingAttempts: 1,
		InvoiceRecord: entity.InvoiceRecord{
			Currency:         "USD",
			ExtractionMethod: constants.MethodRuleBased,
		},
	}
	if err := a.SaveInvoice(ctx, sparse); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}

	got, err := a.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d invoices, want 1", len(got))
	}
	r := got[0]
	if r.Vendor != nil || r.Amount != nil || r.Date != nil || r.InvoiceNumber != nil || r.TaxAmount != nil {
		t.Fatalf("nil fields did not survive the round trip: %+v", r)
	}
	if len(r.LineItems) != 0 {
		t.Fatalf("LineItems = %v, want none", r.LineItems)
	}
	if r.Confidence != "" {
		t.Fatalf("Confidence = %q, want empty", r.Confidence)
	}
}

func TestOpenArchiveRejectsEmptyPath(t *testing.T) {
	if _, err := OpenArchive("  "); err == nil {
		t.Fatal("want error for empty path")
	}
}
