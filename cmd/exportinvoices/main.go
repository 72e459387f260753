package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/invoiceworks/invoice-pipeline/internal/export"
	"github.com/invoiceworks/invoice-pipeline/internal/repository"
)

// exportinvoices writes the local invoice archive to an XLSX workbook.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 3 {
		logger.Error("usage", "cmd", "exportinvoices <archive-db> <output.xlsx>")
		os.Exit(2)
	}
	dbPath, outPath := os.Args[1], os.Args[2]

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	archive, err := repository.OpenArchive(dbPath)
	if err != nil {
		logger.Error("open archive", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := archive.Close(); cerr != nil {
			logger.Error("close archive", "error", cerr)
		}
	}()

	svc := export.NewService(archive, logger)
	data, err := svc.ExportInvoicesXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		logger.Error("write workbook", "path", outPath, "error", err)
		os.Exit(1)
	}

	logger.Info("export OK", "path", outPath, "bytes", len(data))
}
