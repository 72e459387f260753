package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/invoiceworks/invoice-pipeline/internal/common"
	"github.com/invoiceworks/invoice-pipeline/internal/ingest"
)

// uploadinvoice stores a local invoice file in the ingest bucket and prints
// the generated object key.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "uploadinvoice <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	if cfg.AWS.Bucket == "" {
		logger.Error("BUCKET_NAME required")
		os.Exit(1)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("load aws config", "error", err)
		os.Exit(1)
	}

	u := ingest.NewUploader(s3.NewFromConfig(awscfg), cfg.AWS.Bucket, cfg.Ingest.KeyPrefix, cfg.Ingest.MaxUploadSize, logger)
	key, err := u.Upload(ctx, filepath.Base(path), content)
	if err != nil {
		logger.Error("upload failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("upload OK", "key", key, "bucket", cfg.AWS.Bucket)
}
