package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/invoiceworks/invoice-pipeline/internal/entity"
	"github.com/invoiceworks/invoice-pipeline/internal/extract"
)

// parseinvoice runs the rule-based extraction engine over a local text file
// and prints the resulting record. Debug tool for tuning the field patterns
// without touching AWS.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "parseinvoice <text-file>")
		os.Exit(2)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read file", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	doc := &entity.ExtractedDocument{RawText: string(raw)}
	record := extract.ExtractWithRules(doc)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		logger.Error("encode record", "error", err)
		os.Exit(1)
	}
}
