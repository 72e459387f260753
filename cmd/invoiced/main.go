package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/invoiceworks/invoice-pipeline/internal/ai"
	"github.com/invoiceworks/invoice-pipeline/internal/common"
	"github.com/invoiceworks/invoice-pipeline/internal/ocr"
	"github.com/invoiceworks/invoice-pipeline/internal/pipeline"
	"github.com/invoiceworks/invoice-pipeline/internal/repository"
	"github.com/invoiceworks/invoice-pipeline/internal/resilience"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "invoiced s3://bucket/key")
		os.Exit(2)
	}
	bucket, key, ok := parseS3URI(os.Args[1])
	if !ok {
		logger.Error("invalid object reference (must be s3://bucket/key)", "arg", os.Args[1])
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("load aws config", "error", err)
		os.Exit(1)
	}

	extractor := ocr.NewExtractor(textract.NewFromConfig(awscfg), logger)
	aiClient := ai.NewClient(bedrockruntime.NewFromConfig(awscfg), cfg.AI.ModelID, cfg.AI.MaxTokens, logger)
	store := repository.NewDynamoStore(dynamodb.NewFromConfig(awscfg), cfg.AWS.TableName, logger)

	var notifier pipeline.FailureNotifier
	if cfg.AWS.DLQURL != "" {
		notifier = pipeline.NewDeadLetter(sqs.NewFromConfig(awscfg), cfg.AWS.DLQURL, logger)
	}

	p := pipeline.NewProcessor(logger, extractor, aiClient, store, notifier, resilience.NewRegistry(logger))

	start := time.Now()
	item, err := p.ProcessDocument(ctx, bucket, key)
	dur := time.Since(start)
	if err != nil {
		logger.Error("invoice processing failed",
			"bucket", bucket, "key", key, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	// Mirror the record into the local archive when one is configured so the
	// export tool can run without DynamoDB access.
	if cfg.Archive.Path != "" {
		archive, aerr := repository.OpenArchive(cfg.Archive.Path)
		if aerr != nil {
			logger.Warn("open archive", "path", cfg.Archive.Path, "error", aerr)
		} else {
			if aerr := archive.SaveInvoice(ctx, item); aerr != nil {
				logger.Warn("archive invoice", "invoice_id", item.InvoiceID, "error", aerr)
			}
			_ = archive.Close()
		}
	}

	logger.Info("invoice processing OK",
		"invoice_id", item.InvoiceID,
		"key", key,
		"method", item.ExtractionMethod,
		"confidence", item.Confidence,
		"attempts", item.ProcessingAttempts,
		"duration_ms", dur.Milliseconds(),
	)
}

func parseS3URI(arg string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(arg, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
