package models

import (
	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// ProductSnapshot is the page-level extraction result consumed by the row
// formatter. Scalar money/stock fields are kept as display strings; variant
// level figures live in VariantRecords, not here.
type ProductSnapshot struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Price          string `json:"price"`
	Shipping       string `json:"shipping"`
	Total          string `json:"total"`
	Quantity       string `json:"quantity"`
	CategoryID     string `json:"category_id"`
	CategoryName   string `json:"category_name"`
	CustomLabel    string `json:"custom_label"`
	Description    string `json:"description"`
	Specifications string `json:"specifications"`
	Warning        string `json:"warning"`
	SellPoints     string `json:"sell_points"`
	StoreName      string `json:"store_name"`
	StoreNo        string `json:"store_no"`
	OpenSince      string `json:"open_since"`
	ShipTo         string `json:"ship_to"`
	ScanDate       string `json:"scan_date"`
	UPC            string `json:"upc"`
	EPID           string `json:"epid"`

	Photos []string `json:"photos"`
	Videos []string `json:"videos"`

	OptionGroups []variants.OptionGroup `json:"option_groups"`
}

// FirstPhoto returns the parent-level fallback image for variant rows.
func (s *ProductSnapshot) FirstPhoto() string {
	if len(s.Photos) == 0 {
		return ""
	}
	return s.Photos[0]
}
