package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/common"
	"github.com/invoiceworks/invoice-pipeline/internal/entity"
	"github.com/invoiceworks/invoice-pipeline/internal/extract"
	"github.com/invoiceworks/invoice-pipeline/internal/repository"
	"github.com/invoiceworks/invoice-pipeline/internal/resilience"
)

// OCRClient produces the raw extracted document for an object in S3.
type OCRClient interface {
	AnalyzeInvoice(ctx context.Context, bucket, key string) (*entity.ExtractedDocument, error)
}

// AIClient re-extracts candidate fields from raw text.
type AIClient interface {
	ExtractCandidates(ctx context.Context, rawText string) (map[string]any, error)
}

// FailureNotifier receives documents that failed terminally.
type FailureNotifier interface {
	SendFailure(ctx context.Context, bucket, key, message string) error
}

// Processor coordinates one document through OCR, rule-based extraction, the
// optional AI pass, reconciliation, and persistence. Every external call is
// wrapped by the resilience layer: a per-dependency circuit breaker around a
// classified retry sequence.
type Processor struct {
	logger   *slog.Logger
	ocr      OCRClient
	ai       AIClient
	store    repository.InvoiceStore
	notifier FailureNotifier
	breakers *resilience.Registry

	now   func() time.Time
	newID func() string
}

func NewProcessor(
	logger *slog.Logger,
	ocr OCRClient,
	ai AIClient,
	store repository.InvoiceStore,
	notifier FailureNotifier,
	breakers *resilience.Registry,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if breakers == nil {
		breakers = resilience.NewRegistry(logger)
	}
	return &Processor{
		logger:   logger,
		ocr:      ocr,
		ai:       ai,
		store:    store,
		notifier: notifier,
		breakers: breakers,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// ProcessDocument runs the full pipeline for s3://bucket/key and returns the
// persisted item. Failures surface as taxonomy errors, never as raw
// dependency errors; terminal failures are also forwarded to the dead-letter
// notifier when one is configured.
func (p *Processor) ProcessDocument(ctx context.Context, bucket, key string) (*entity.StoredInvoice, error) {
	if !constants.IsSupportedKey(key) {
		err := common.NewValidationError(fmt.Sprintf("unsupported file type: %s", key))
		p.fail(ctx, bucket, key, err)
		return nil, err
	}

	p.logger.Info("pipeline.process.start", "bucket", bucket, "key", key)
	attempts := 1

	// 1) OCR stage
	ocrPolicy := resilience.TextractPolicy()
	ocrPolicy.OnRetry = func(int, time.Duration, error) { attempts++ }
	doc, err := resilience.Call(ctx, p.breakers.Textract, func(ctx context.Context) (*entity.ExtractedDocument, error) {
		return resilience.Do(ctx, p.logger, "textract.analyze", ocrPolicy, resilience.Classifier("textract"),
			func(ctx context.Context) (*entity.ExtractedDocument, error) {
				return p.ocr.AnalyzeInvoice(ctx, bucket, key)
			})
	})
	if err != nil {
		p.fail(ctx, bucket, key, err)
		return nil, err
	}

	if len(strings.TrimSpace(doc.RawText)) < constants.MinUsableTextLength {
		err := common.NewValidationError("insufficient text extracted from invoice")
		p.fail(ctx, bucket, key, err)
		return nil, err
	}

	// 2) rule-based baseline
	rule := extract.ExtractWithRules(doc)

	// 3) optional AI pass; its failure never fails the document
	var candidates map[string]any
	if p.ai != nil && len(doc.RawText) > constants.MinTextLengthForAI && doc.OverallConfidence() > constants.MinOCRConfidenceForAI {
		aiPolicy := resilience.BedrockPolicy()
		aiPolicy.OnRetry = func(int, time.Duration, error) { attempts++ }
		candidates, err = resilience.Call(ctx, p.breakers.Bedrock, func(ctx context.Context) (map[string]any, error) {
			return resilience.Do(ctx, p.logger, "bedrock.extract", aiPolicy, resilience.Classifier("bedrock"),
				func(ctx context.Context) (map[string]any, error) {
					return p.ai.ExtractCandidates(ctx, doc.RawText)
				})
		})
		if err != nil {
			p.logger.Warn("pipeline.ai.failed", "bucket", bucket, "key", key, "error", err)
			candidates = nil
		}
	}

	// 4) reconcile
	merged := extract.MergeResults(rule, candidates)
	if noUsableSignal(merged) {
		p.logger.Warn("pipeline.extract.no_signal", "bucket", bucket, "key", key)
		merged = extract.FallbackRecord(p.now())
	}

	// 5) persist under an id generated once, so retried writes are idempotent
	item := &entity.StoredInvoice{
		InvoiceID:          p.newID(),
		ObjectKey:          key,
		ProcessedAt:        p.now().UTC().Format(time.RFC3339),
		ProcessingAttempts: attempts,
		InvoiceRecord:      merged,
	}

	_, err = resilience.Call(ctx, p.breakers.DynamoDB, func(ctx context.Context) (struct{}, error) {
		return resilience.Do(ctx, p.logger, "store.save", resilience.DynamoDBPolicy(), resilience.Classifier("dynamodb"),
			func(ctx context.Context) (struct{}, error) {
				return struct{}{}, p.store.SaveInvoice(ctx, item)
			})
	})
	if err != nil {
		p.fail(ctx, bucket, key, err)
		return nil, err
	}

	p.logger.Info("pipeline.process.ok",
		"invoice_id", item.InvoiceID,
		"key", key,
		"method", item.ExtractionMethod,
		"confidence", item.Confidence,
		"attempts", item.ProcessingAttempts,
	)
	return item, nil
}

// fail logs the terminal error and forwards the document to the dead-letter
// notifier. DLQ errors are swallowed: the original error is the one that
// matters.
func (p *Processor) fail(ctx context.Context, bucket, key string, err error) {
	p.logger.Error("pipeline.process.failed", "bucket", bucket, "key", key, "kind", common.KindOf(err), "error", err)
	if p.notifier == nil {
		return
	}
	message := err.Error()
	var pe *common.ProcessingError
	if errors.As(err, &pe) {
		// expose the human-readable message, not raw dependency details
		message = pe.Message
	}
	if dlqErr := p.notifier.SendFailure(ctx, bucket, key, message); dlqErr != nil {
		p.logger.Warn("pipeline.dlq.failed", "bucket", bucket, "key", key, "error", dlqErr)
	}
}

func noUsableSignal(r entity.InvoiceRecord) bool {
	return r.Vendor == nil && r.Amount == nil && r.Date == nil &&
		r.InvoiceNumber == nil && r.TaxAmount == nil && len(r.LineItems) == 0
}
