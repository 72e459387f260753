package repository

import (
	"context"

	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// InvoiceStore persists merged invoice records. Writes are keyed by the
// pre-generated invoice id, so a retried write is an idempotent upsert.
type InvoiceStore interface {
	SaveInvoice(ctx context.Context, item *entity.StoredInvoice) error
}
