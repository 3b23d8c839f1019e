package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/aliexpress-listing-scraper/internal/database"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeListingExported is published when a product's export rows are stored
	EventTypeListingExported EventType = "LISTING_EXPORTED"
)

// ListingExportedPayload is the payload for LISTING_EXPORTED events.
// Downstream consumers pick up the stored rows via the listing URL.
type ListingExportedPayload struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	CustomLabel  string    `json:"custom_label"`
	RowCount     int       `json:"row_count"`
	VariantCount int       `json:"variant_count"`
	Source       string    `json:"source"`
}

// Publisher handles event publishing using transactional outbox pattern
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
	logger *slog.Logger
}

// NewPublisher creates a new event publisher with database connection
func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		outbox: database.NewOutboxRepository(db),
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishListingExported publishes a LISTING_EXPORTED event using the
// transactional outbox.
func (p *Publisher) PublishListingExported(ctx context.Context, payload *ListingExportedPayload) error {
	// Set event metadata
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeListingExported)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "scraper"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "listing",
		AggregateID:   payload.URL,
		EventType:     string(EventTypeListingExported),
		Payload:       data,
		TargetStream:  "stream:listing_export",
	}

	// Use transaction to ensure atomicity
	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"url", payload.URL,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}

// PublishListingExportedWithTx writes the outbox event inside an existing
// transaction, for callers that persist the listing in the same transaction.
func (p *Publisher) PublishListingExportedWithTx(ctx context.Context, tx pgx.Tx, payload *ListingExportedPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeListingExported)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "scraper"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "listing",
		AggregateID:   payload.URL,
		EventType:     string(EventTypeListingExported),
		Payload:       data,
		TargetStream:  "stream:listing_export",
	}

	if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}
