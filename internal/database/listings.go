package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/aliexpress-listing-scraper/internal/export"
)

// Listing is one scraped product's stored export: its reconciled rows as
// JSON plus metadata for listing and stats. The url column carries a unique
// index; a re-scrape of the same URL replaces the earlier record.
type Listing struct {
	ID           uuid.UUID       `db:"id"`
	URL          string          `db:"url"`
	Title        string          `db:"title"`
	CustomLabel  string          `db:"custom_label"`
	ScanDate     string          `db:"scan_date"`
	RowCount     int             `db:"row_count"`
	VariantCount int             `db:"variant_count"`
	Rows         json.RawMessage `db:"rows"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// ListingsRepository persists listings in Postgres.
type ListingsRepository struct {
	db *DB
}

func NewListingsRepository(db *DB) *ListingsRepository {
	return &ListingsRepository{db: db}
}

// NewListing packs export rows into a storable record.
func NewListing(url, title, customLabel, scanDate string, rows []export.Row, variantCount int) (*Listing, error) {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rows: %w", err)
	}
	return &Listing{
		ID:           uuid.New(),
		URL:          url,
		Title:        title,
		CustomLabel:  customLabel,
		ScanDate:     scanDate,
		RowCount:     len(rows),
		VariantCount: variantCount,
		Rows:         rowsJSON,
	}, nil
}

// ExportRows unpacks the stored rows.
func (l *Listing) ExportRows() ([]export.Row, error) {
	var rows []export.Row
	if err := json.Unmarshal(l.Rows, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}
	return rows, nil
}

// Upsert inserts the listing or replaces the record already stored for its
// URL.
func (r *ListingsRepository) Upsert(ctx context.Context, l *Listing) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	query := `
		INSERT INTO listings (id, url, title, custom_label, scan_date, row_count, variant_count, rows)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			custom_label = EXCLUDED.custom_label,
			scan_date = EXCLUDED.scan_date,
			row_count = EXCLUDED.row_count,
			variant_count = EXCLUDED.variant_count,
			rows = EXCLUDED.rows,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	err := r.db.pool.QueryRow(ctx, query,
		l.ID, l.URL, l.Title, l.CustomLabel, l.ScanDate, l.RowCount, l.VariantCount, l.Rows,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}

	return nil
}

// UpsertWithTx is the transactional form, used when the caller also writes
// an outbox event in the same transaction.
func (r *ListingsRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, l *Listing) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	query := `
		INSERT INTO listings (id, url, title, custom_label, scan_date, row_count, variant_count, rows)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			custom_label = EXCLUDED.custom_label,
			scan_date = EXCLUDED.scan_date,
			row_count = EXCLUDED.row_count,
			variant_count = EXCLUDED.variant_count,
			rows = EXCLUDED.rows,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		l.ID, l.URL, l.Title, l.CustomLabel, l.ScanDate, l.RowCount, l.VariantCount, l.Rows,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}

	return nil
}

// GetByURL returns the stored listing for a product URL, or nil when none
// exists.
func (r *ListingsRepository) GetByURL(ctx context.Context, url string) (*Listing, error) {
	query := `
		SELECT id, url, title, custom_label, scan_date, row_count, variant_count, rows, created_at, updated_at
		FROM listings
		WHERE url = $1`

	l := &Listing{}
	err := r.db.pool.QueryRow(ctx, query, url).Scan(
		&l.ID, &l.URL, &l.Title, &l.CustomLabel, &l.ScanDate,
		&l.RowCount, &l.VariantCount, &l.Rows, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return l, nil
}

// List returns listings ordered oldest first, which keeps batch exports in
// scrape order.
func (r *ListingsRepository) List(ctx context.Context, limit int) ([]*Listing, error) {
	query := `
		SELECT id, url, title, custom_label, scan_date, row_count, variant_count, rows, created_at, updated_at
		FROM listings
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*Listing
	for rows.Next() {
		l := &Listing{}
		err := rows.Scan(
			&l.ID, &l.URL, &l.Title, &l.CustomLabel, &l.ScanDate,
			&l.RowCount, &l.VariantCount, &l.Rows, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return listings, nil
}

func (r *ListingsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing not found: %s", id)
	}
	return nil
}

func (r *ListingsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.pool.Exec(ctx, `DELETE FROM listings`); err != nil {
		return fmt.Errorf("failed to clear listings: %w", err)
	}
	return nil
}

// Stats returns listing and row counts for the stats endpoint.
func (r *ListingsRepository) Stats(ctx context.Context) (listings, rowTotal, variantTotal int, err error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(row_count), 0), COALESCE(SUM(variant_count), 0)
		FROM listings`

	if err = r.db.pool.QueryRow(ctx, query).Scan(&listings, &rowTotal, &variantTotal); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get listing stats: %w", err)
	}
	return listings, rowTotal, variantTotal, nil
}
