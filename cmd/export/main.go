package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/maltedev/aliexpress-listing-scraper/internal/config"
	"github.com/maltedev/aliexpress-listing-scraper/internal/export"
	"github.com/maltedev/aliexpress-listing-scraper/internal/storage"
)

// export combines every stored listing into one CSV file with continuous
// row numbering, ready for bulk upload.
func main() {
	godotenv.Load()

	output := flag.String("o", "", "output CSV path (default stdout)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewFileStore(cfg.Storage.FilePath)
	if err != nil {
		logger.Error("failed to open listing store", "error", err)
		os.Exit(1)
	}

	rows := store.AllRows()
	if len(rows) == 0 {
		logger.Warn("no listings stored", "path", cfg.Storage.FilePath)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Error("failed to create output file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteCSV(out, rows); err != nil {
		logger.Error("failed to write CSV", "error", err)
		os.Exit(1)
	}

	logger.Info("export complete",
		"listings", store.Count(),
		"rows", len(rows))
}
