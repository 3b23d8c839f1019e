package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maltedev/aliexpress-listing-scraper/internal/database"
	"github.com/maltedev/aliexpress-listing-scraper/internal/export"
	"github.com/maltedev/aliexpress-listing-scraper/internal/jobs"
)

type Handlers struct {
	jobs     *jobs.Manager
	listings *database.ListingsRepository
	logger   *slog.Logger
}

func NewHandlers(jobManager *jobs.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:     jobManager,
		listings: jobManager.Listings(),
		logger:   logger,
	}
}

// CreateScrapeRequest represents a new scrape job request
type CreateScrapeRequest struct {
	URL string `json:"url"`
}

// CreateScrapeResponse represents the job creation response
type CreateScrapeResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateScrape queues a scrape job for a product URL
func (h *Handlers) CreateScrape(w http.ResponseWriter, r *http.Request) {
	var req CreateScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateScrapeResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Job created successfully",
	})
}

// GetJob handles job status retrieval
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListJobs handles listing all jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobList, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	h.respondJSON(w, http.StatusOK, jobList)
}

// ListingSummary is a listing without its row payload
type ListingSummary struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	CustomLabel  string `json:"custom_label"`
	ScanDate     string `json:"scan_date"`
	RowCount     int    `json:"row_count"`
	VariantCount int    `json:"variant_count"`
}

// ListListings returns stored listings without their rows
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context(), 1000)
	if err != nil {
		h.logger.Error("failed to list listings", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list listings")
		return
	}

	summaries := make([]ListingSummary, 0, len(listings))
	for _, l := range listings {
		summaries = append(summaries, ListingSummary{
			ID:           l.ID.String(),
			URL:          l.URL,
			Title:        l.Title,
			CustomLabel:  l.CustomLabel,
			ScanDate:     l.ScanDate,
			RowCount:     l.RowCount,
			VariantCount: l.VariantCount,
		})
	}

	h.respondJSON(w, http.StatusOK, summaries)
}

// DeleteListing removes one stored listing
func (h *Handlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid listing ID")
		return
	}

	if err := h.listings.Delete(r.Context(), id); err != nil {
		h.respondError(w, http.StatusNotFound, "listing not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ClearListings removes all stored listings
func (h *Handlers) ClearListings(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear listings", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to clear listings")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ExportCSV streams every stored listing's rows as one CSV file with
// continuous row numbering.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context(), 10000)
	if err != nil {
		h.logger.Error("failed to load listings", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}

	var rows []export.Row
	for _, l := range listings {
		listingRows, err := l.ExportRows()
		if err != nil {
			h.logger.Warn("skipping listing with unreadable rows", "url", l.URL, "error", err)
			continue
		}
		rows = append(rows, listingRows...)
	}
	rows = export.Renumber(rows)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="listings.csv"`)
	if err := export.WriteCSV(w, rows); err != nil {
		h.logger.Error("failed to write CSV", "error", err)
	}
}

// GetStats handles statistics retrieval
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
