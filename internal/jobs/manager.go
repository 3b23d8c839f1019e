package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/aliexpress-listing-scraper/internal/database"
	"github.com/maltedev/aliexpress-listing-scraper/internal/events"
	"github.com/maltedev/aliexpress-listing-scraper/internal/scraper"
)

type Manager struct {
	db        *database.DB
	scraper   *scraper.Service
	listings  *database.ListingsRepository
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewManager(db *database.DB, svc *scraper.Service, publisher *events.Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		db:        db,
		scraper:   svc,
		listings:  database.NewListingsRepository(db),
		publisher: publisher,
		logger:    logger.With("component", "job_manager"),
	}
}

// Job represents one product scrape request
type Job struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Status        string     `json:"status"`
	RowsExported  int        `json:"rows_exported"`
	VariantsFound int        `json:"variants_found"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Stats represents scraper statistics
type Stats struct {
	TotalJobs     int     `json:"total_jobs"`
	PendingJobs   int     `json:"pending_jobs"`
	RunningJobs   int     `json:"running_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	FailedJobs    int     `json:"failed_jobs"`
	TotalListings int     `json:"total_listings"`
	TotalRows     int     `json:"total_rows"`
	TotalVariants int     `json:"total_variants"`
	SuccessRate   float64 `json:"success_rate"`
}

// CreateJob queues a new scrape job for a product URL
func (m *Manager) CreateJob(ctx context.Context, url string) (*Job, error) {
	job := &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO scrape_jobs (id, url, status, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := m.db.Exec(ctx, query, job.ID, job.URL, job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	m.logger.Info("job created", "id", job.ID, "url", url)
	return job, nil
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID string) (*Job, error) {
	query := `
		SELECT id, url, status, rows_exported, variants_found,
		       created_at, started_at, completed_at, COALESCE(error, '')
		FROM scrape_jobs
		WHERE id = $1
	`

	job := &Job{}
	err := m.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.URL, &job.Status, &job.RowsExported, &job.VariantsFound,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListJobs lists recent jobs, newest first
func (m *Manager) ListJobs(ctx context.Context) ([]*Job, error) {
	query := `
		SELECT id, url, status, rows_exported, variants_found,
		       created_at, started_at, completed_at, COALESCE(error, '')
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := m.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job := &Job{}
		err := rows.Scan(
			&job.ID, &job.URL, &job.Status, &job.RowsExported, &job.VariantsFound,
			&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
		)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// GetStats retrieves scraper statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	query := `
		SELECT
			COUNT(*) as total_jobs,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) as pending_jobs,
			COUNT(CASE WHEN status = 'running' THEN 1 END) as running_jobs,
			COUNT(CASE WHEN status = 'completed' THEN 1 END) as completed_jobs,
			COUNT(CASE WHEN status = 'failed' THEN 1 END) as failed_jobs
		FROM scrape_jobs
	`

	err := m.db.QueryRow(ctx, query).Scan(
		&stats.TotalJobs, &stats.PendingJobs, &stats.RunningJobs,
		&stats.CompletedJobs, &stats.FailedJobs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs) * 100
	}

	listings, rowTotal, variantTotal, err := m.listings.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to get listing stats", "error", err)
	} else {
		stats.TotalListings = listings
		stats.TotalRows = rowTotal
		stats.TotalVariants = variantTotal
	}

	return stats, nil
}

// Listings exposes the listings repository for read endpoints
func (m *Manager) Listings() *database.ListingsRepository {
	return m.listings
}

// updateJobStatus updates the status of a job
func (m *Manager) updateJobStatus(ctx context.Context, jobID, status string, err error) error {
	var query string
	var args []interface{}

	switch {
	case status == "running":
		query = `UPDATE scrape_jobs SET status = $1, started_at = $2 WHERE id = $3`
		args = []interface{}{status, time.Now(), jobID}
	case status == "completed":
		query = `UPDATE scrape_jobs SET status = $1, completed_at = $2 WHERE id = $3`
		args = []interface{}{status, time.Now(), jobID}
	case status == "failed" && err != nil:
		query = `UPDATE scrape_jobs SET status = $1, completed_at = $2, error = $3 WHERE id = $4`
		args = []interface{}{status, time.Now(), err.Error(), jobID}
	default:
		query = `UPDATE scrape_jobs SET status = $1 WHERE id = $2`
		args = []interface{}{status, jobID}
	}

	_, execErr := m.db.Exec(ctx, query, args...)
	return execErr
}

// updateJobResult records how much a completed scrape produced
func (m *Manager) updateJobResult(ctx context.Context, jobID string, rowsExported, variantsFound int) error {
	query := `
		UPDATE scrape_jobs
		SET rows_exported = $1, variants_found = $2
		WHERE id = $3
	`
	_, err := m.db.Exec(ctx, query, rowsExported, variantsFound, jobID)
	return err
}
