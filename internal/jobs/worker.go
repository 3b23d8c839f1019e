package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/aliexpress-listing-scraper/internal/database"
	"github.com/maltedev/aliexpress-listing-scraper/internal/events"
	"github.com/maltedev/aliexpress-listing-scraper/internal/parser"
)

// StartWorker starts the background job worker
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("job worker stopping")
			return
		case <-ticker.C:
			m.processNextJob(ctx)
		}
	}
}

// processNextJob claims and processes the next pending job
func (m *Manager) processNextJob(ctx context.Context) {
	var jobID, url string

	// Claim and flip to running in one transaction, so the SKIP LOCKED row
	// lock holds until the flip commits and no second worker picks the job.
	err := m.db.Transaction(ctx, func(tx pgx.Tx) error {
		var err error
		jobID, url, err = claimPendingJob(ctx, tx)
		return err
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			m.logger.Error("failed to claim job", "error", err)
		}
		return
	}

	m.logger.Info("processing job", "id", jobID, "url", url)

	if err := m.processJob(ctx, jobID, url); err != nil {
		m.logger.Error("job failed", "id", jobID, "error", err)
		m.updateJobStatus(ctx, jobID, "failed", err)
		return
	}

	if err := m.updateJobStatus(ctx, jobID, "completed", nil); err != nil {
		m.logger.Error("failed to mark job as completed", "error", err)
	}

	m.logger.Info("job completed", "id", jobID)
}

// claimPendingJob locks the oldest pending job and marks it running. Both
// statements must run on the same transaction.
func claimPendingJob(ctx context.Context, tx pgx.Tx) (string, string, error) {
	query := `
		SELECT id, url
		FROM scrape_jobs
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var jobID, url string
	if err := tx.QueryRow(ctx, query).Scan(&jobID, &url); err != nil {
		return "", "", err
	}

	flip := `UPDATE scrape_jobs SET status = 'running', started_at = $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, flip, time.Now(), jobID); err != nil {
		return "", "", fmt.Errorf("failed to mark job running: %w", err)
	}

	return jobID, url, nil
}

// processJob scrapes one product, stores its listing and publishes the
// export event in the same transaction.
func (m *Manager) processJob(ctx context.Context, jobID, url string) error {
	result, err := m.scraper.ScrapeProduct(ctx, url)
	if err != nil {
		if errors.Is(err, parser.ErrProductUnavailable) {
			return fmt.Errorf("product unavailable: %s", url)
		}
		return fmt.Errorf("scrape failed: %w", err)
	}

	snapshot := result.Snapshot
	listing, err := database.NewListing(
		url, snapshot.Title, snapshot.CustomLabel, snapshot.ScanDate,
		result.Rows, len(result.Records),
	)
	if err != nil {
		return fmt.Errorf("failed to build listing: %w", err)
	}

	err = m.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := m.listings.UpsertWithTx(ctx, tx, listing); err != nil {
			return err
		}

		payload := &events.ListingExportedPayload{
			URL:          url,
			Title:        snapshot.Title,
			CustomLabel:  snapshot.CustomLabel,
			RowCount:     len(result.Rows),
			VariantCount: len(result.Records),
		}
		return m.publisher.PublishListingExportedWithTx(ctx, tx, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to store listing: %w", err)
	}

	if err := m.updateJobResult(ctx, jobID, len(result.Rows), len(result.Records)); err != nil {
		m.logger.Error("failed to record job result", "error", err)
	}

	return nil
}
