package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/invoiceworks/invoice-pipeline/constants"
	"github.com/invoiceworks/invoice-pipeline/internal/common"
	"github.com/invoiceworks/invoice-pipeline/internal/resilience"
)

// S3API is the slice of the S3 client the uploader needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader is the ingestion entry point: it validates an incoming invoice
// file and stores it under a unique, timestamped object key. The key is the
// handle every later processing stage uses.
type Uploader struct {
	api     S3API
	bucket  string
	prefix  string
	maxSize int64
	logger  *slog.Logger

	now func() time.Time
}

func NewUploader(api S3API, bucket, prefix string, maxSize int64, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "invoices/"
	}
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	return &Uploader{api: api, bucket: bucket, prefix: prefix, maxSize: maxSize, logger: logger, now: time.Now}
}

// Upload validates and stores one invoice file, returning the generated
// object key. S3 errors go through the error classifier and the OCR-grade
// retry policy before surfacing.
func (u *Uploader) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("invoice-%s.pdf", uuid.New().String())
	}
	if !constants.IsSupportedKey(filename) {
		return "", common.NewValidationError(fmt.Sprintf("unsupported file type: %s", filename))
	}
	if len(content) == 0 {
		return "", common.NewValidationError("empty file")
	}
	if int64(len(content)) > u.maxSize {
		return "", common.NewValidationError(fmt.Sprintf("file exceeds %d byte limit", u.maxSize))
	}

	timestamp := u.now().UTC().Format("20060102T150405")
	key := fmt.Sprintf("%s%s-%s-%s", u.prefix, timestamp, uuid.New().String(), filepath.Base(filename))

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := resilience.Do(ctx, u.logger, "s3.put_object", resilience.TextractPolicy(), resilience.Classifier("s3"),
		func(ctx context.Context) (*s3.PutObjectOutput, error) {
			return u.api.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(u.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(content),
				ContentType: aws.String(contentType),
			})
		})
	if err != nil {
		u.logger.Error("ingest.upload.failed", "key", key, "error", err)
		return "", err
	}

	u.logger.Info("ingest.upload.ok", "key", key, "bytes", len(content))
	return key, nil
}
