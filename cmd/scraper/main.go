package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/maltedev/aliexpress-listing-scraper/internal/browser"
	"github.com/maltedev/aliexpress-listing-scraper/internal/config"
	"github.com/maltedev/aliexpress-listing-scraper/internal/export"
	"github.com/maltedev/aliexpress-listing-scraper/internal/parser"
	"github.com/maltedev/aliexpress-listing-scraper/internal/queue"
	"github.com/maltedev/aliexpress-listing-scraper/internal/ratelimit"
	"github.com/maltedev/aliexpress-listing-scraper/internal/scraper"
	"github.com/maltedev/aliexpress-listing-scraper/internal/storage"
)

func main() {
	godotenv.Load()

	var (
		productURL = flag.String("url", "", "product URL to scrape")
		urlFile    = flag.String("urls", "", "file with one product URL per line")
		output     = flag.String("o", "", "write this product's CSV to a file (default stdout)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *productURL == "" && *urlFile == "" {
		fmt.Fprintln(os.Stderr, "usage: scraper -url <product-url> [-o out.csv]")
		fmt.Fprintln(os.Stderr, "       scraper -urls <file-with-urls>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("interrupted, finishing current product")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
		UserAgent:      cfg.Scraper.UserAgents[0],
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	limiter := ratelimit.NewSimpleRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)

	svc := scraper.NewService(b, parser.NewAliExpressParser(), scraper.ServiceOptions{
		Timing: scraper.Timing{
			GroupSettle:   cfg.Scraper.GroupSettle,
			ObserveSettle: cfg.Scraper.ObserveSettle,
			Cooldown:      cfg.Scraper.Cooldown,
		},
		MaxRetries: cfg.Scraper.MaxRetries,
		Limiter:    limiter,
	}, logger)

	store, err := storage.NewFileStore(cfg.Storage.FilePath)
	if err != nil {
		logger.Error("failed to open listing store", "error", err)
		os.Exit(1)
	}

	tasks := queue.NewInMemoryQueue()
	if err := enqueue(tasks, *productURL, *urlFile); err != nil {
		logger.Error("failed to read URLs", "error", err)
		os.Exit(1)
	}
	tasks.Close()

	batches := queue.NewBatchQueue(tasks, cfg.Queue.BatchSize)

	var rows []export.Row
	scraped := 0
	for {
		batch, err := batches.PopBatch(ctx)
		if err != nil {
			break
		}
		logger.Info("processing batch", "size", len(batch))

		for _, task := range batch {
			result, err := svc.ScrapeProduct(ctx, task.URL)
			if err != nil {
				logger.Error("scrape failed", "url", task.URL, "error", err)
				continue
			}

			listing := &storage.StoredListing{
				URL:          task.URL,
				Title:        result.Snapshot.Title,
				CustomLabel:  result.Snapshot.CustomLabel,
				ScanDate:     result.Snapshot.ScanDate,
				VariantCount: len(result.Records),
				Rows:         result.Rows,
			}
			if err := store.Upsert(listing); err != nil {
				logger.Error("failed to store listing", "url", task.URL, "error", err)
			}

			rows = append(rows, result.Rows...)
			scraped++
		}
	}

	if err := writeCSV(*output, export.Renumber(rows)); err != nil {
		logger.Error("failed to write CSV", "error", err)
		os.Exit(1)
	}

	logger.Info("done", "scraped", scraped, "stored", store.Count())
}

func enqueue(q *queue.InMemoryQueue, singleURL, urlFile string) error {
	push := func(u string) error {
		return q.Push(&queue.Task{
			ID:        uuid.New().String(),
			URL:       u,
			CreatedAt: time.Now(),
		})
	}

	if singleURL != "" {
		return push(singleURL)
	}

	f, err := os.Open(urlFile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := push(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeCSV(path string, rows []export.Row) error {
	if path == "" {
		return export.WriteCSV(os.Stdout, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return export.WriteCSV(f, rows)
}
