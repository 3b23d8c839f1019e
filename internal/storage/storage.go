package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/maltedev/aliexpress-listing-scraper/internal/export"
)

// StoredListing is one scraped product's durable export unit: its rows plus
// enough metadata to list and re-export it later.
type StoredListing struct {
	URL          string       `json:"url"`
	Title        string       `json:"title"`
	CustomLabel  string       `json:"custom_label"`
	ScanDate     string       `json:"scan_date"`
	VariantCount int          `json:"variant_count"`
	Rows         []export.Row `json:"rows"`
	AddedAt      time.Time    `json:"added_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FileStore keeps listings in a JSON file, keyed by product URL. Upserting
// the same URL replaces the earlier record, never duplicates, so a
// re-scrape is idempotent.
type FileStore struct {
	mu       sync.RWMutex
	listings map[string]*StoredListing
	filename string
}

func NewFileStore(filename string) (*FileStore, error) {
	fs := &FileStore{
		listings: make(map[string]*StoredListing),
		filename: filename,
	}

	if err := fs.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return fs, nil
}

// Upsert stores the listing, replacing any previous record for its URL.
func (fs *FileStore) Upsert(listing *StoredListing) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if listing.URL == "" {
		return fmt.Errorf("listing URL is required")
	}

	now := time.Now()
	if prev, ok := fs.listings[listing.URL]; ok {
		listing.AddedAt = prev.AddedAt
	} else {
		listing.AddedAt = now
	}
	listing.UpdatedAt = now

	fs.listings[listing.URL] = listing
	return fs.save()
}

func (fs *FileStore) Get(url string) (*StoredListing, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	l, ok := fs.listings[url]
	return l, ok
}

// List returns all listings ordered by when they were first added.
func (fs *FileStore) List() []*StoredListing {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]*StoredListing, 0, len(fs.listings))
	for _, l := range fs.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

func (fs *FileStore) Delete(url string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.listings[url]; !ok {
		return fmt.Errorf("listing not found: %s", url)
	}
	delete(fs.listings, url)
	return fs.save()
}

func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.listings = make(map[string]*StoredListing)
	return fs.save()
}

func (fs *FileStore) Count() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.listings)
}

// AllRows concatenates every stored listing's rows in List order and
// renumbers them continuously, ready for one combined export file.
func (fs *FileStore) AllRows() []export.Row {
	var rows []export.Row
	for _, l := range fs.List() {
		rows = append(rows, l.Rows...)
	}
	return export.Renumber(rows)
}

func (fs *FileStore) save() error {
	data, err := json.MarshalIndent(fs.listings, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first for atomicity
	tmpFile := fs.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, fs.filename)
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &fs.listings)
}
