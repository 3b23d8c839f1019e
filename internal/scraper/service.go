package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/maltedev/aliexpress-listing-scraper/internal/browser"
	"github.com/maltedev/aliexpress-listing-scraper/internal/export"
	"github.com/maltedev/aliexpress-listing-scraper/internal/media"
	"github.com/maltedev/aliexpress-listing-scraper/internal/models"
	"github.com/maltedev/aliexpress-listing-scraper/internal/parser"
	"github.com/maltedev/aliexpress-listing-scraper/internal/ratelimit"
	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

var productURLPattern = regexp.MustCompile(`/\d+\.html`)

// Service runs the full scrape pipeline for one product URL: navigate,
// snapshot, format, enumerate variants, reconcile, resolve media.
type Service struct {
	browser    *browser.Browser
	parser     parser.Parser
	limiter    ratelimit.RateLimiter
	uploader   media.Uploader
	timing     Timing
	maxRetries int
	logger     *slog.Logger
}

type ServiceOptions struct {
	Timing     Timing
	MaxRetries int
	Limiter    ratelimit.RateLimiter
	Uploader   media.Uploader
}

func NewService(b *browser.Browser, p parser.Parser, opts ServiceOptions, logger *slog.Logger) *Service {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Service{
		browser:    b,
		parser:     p,
		limiter:    opts.Limiter,
		uploader:   opts.Uploader,
		timing:     opts.Timing,
		maxRetries: opts.MaxRetries,
		logger:     logger.With("component", "scraper_service"),
	}
}

// ExportResult is one product's complete scrape output: the snapshot, the
// reconciled rows (numbered from 1) and the raw variant records.
type ExportResult struct {
	Snapshot *models.ProductSnapshot
	Rows     []export.Row
	Records  []variants.VariantRecord
}

// ScrapeProduct extracts a product and enumerates its variants. Only an
// unavailable product aborts; selection and observation failures degrade to
// rows with blank or sentinel values, which the export format expects.
func (s *Service) ScrapeProduct(ctx context.Context, url string) (*ExportResult, error) {
	result, err := s.scrape(ctx, url)
	s.recordOutcome(err)
	return result, err
}

// recordOutcome feeds the scrape result back into an adaptive limiter.
// Cancellation says nothing about the target site, so it is not counted.
func (s *Service) recordOutcome(err error) {
	rec, ok := s.limiter.(ratelimit.OutcomeRecorder)
	if !ok {
		return
	}
	if err == nil {
		rec.RecordSuccess()
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	rec.RecordError()
}

func (s *Service) scrape(ctx context.Context, url string) (*ExportResult, error) {
	if !productURLPattern.MatchString(url) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	s.logger.Info("scraping product", "url", url)

	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := s.browser.NavigateWithRetry(page, url, s.maxRetries); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := s.browser.HumanizeInteraction(page); err != nil {
		s.logger.Debug("humanize interaction failed", "error", err)
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	snapshot, err := s.parser.ParseSnapshot(content, url)
	if err != nil {
		// ErrProductUnavailable propagates untouched; enumeration would be
		// pointless and the caller surfaces it to the user.
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	rows := export.Format(snapshot, 1)

	driver := NewPageDriver(page, s.timing, s.logger)
	observer := NewPageObserver(page, s.parser, s.logger)
	records, err := NewEnumerator(driver, observer, s.logger).Enumerate(ctx, snapshot.OptionGroups)
	if err != nil {
		return nil, fmt.Errorf("variant enumeration failed: %w", err)
	}

	rows = export.Reconcile(rows, records, s.logger)
	s.resolveMedia(ctx, rows)

	s.logger.Info("product scraped",
		"url", url,
		"rows", len(rows),
		"variants", len(records))

	return &ExportResult{
		Snapshot: snapshot,
		Rows:     rows,
		Records:  records,
	}, nil
}

// resolveMedia re-hosts each photo URL, keeping originals on failure.
func (s *Service) resolveMedia(ctx context.Context, rows []export.Row) {
	if s.uploader == nil {
		return
	}

	resolved := make(map[string]string)
	for i := range rows {
		if rows[i].PhotoURL == "" {
			continue
		}

		urls := strings.Split(rows[i].PhotoURL, "|")
		for j, u := range urls {
			if hosted, ok := resolved[u]; ok {
				urls[j] = hosted
				continue
			}
			hosted := media.Resolve(ctx, s.uploader, u, s.logger)
			resolved[u] = hosted
			urls[j] = hosted
		}
		rows[i].PhotoURL = strings.Join(urls, "|")
	}
}
