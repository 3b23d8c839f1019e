package parser

import (
	"errors"

	"github.com/maltedev/aliexpress-listing-scraper/internal/models"
	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// ErrProductUnavailable is returned when the page says the product cannot
// be bought at all (removed listing, cannot ship to the configured address).
// This is the only extraction error that aborts a scrape.
var ErrProductUnavailable = errors.New("product unavailable")

// Parser extracts listing data from rendered product page HTML. The variant
// observer reuses the text heuristics (ShippingCost, QuantitySignal,
// SoldOut) so rendered-state reads and snapshot extraction cannot drift
// apart.
type Parser interface {
	ParseSnapshot(html, url string) (*models.ProductSnapshot, error)
	DiscoverOptionGroups(html string) []variants.OptionGroup
	RenderedPrice(html string) string
	ShippingCost(text string) string
	QuantitySignal(text string) variants.Quantity
	SoldOut(text string) bool
	Unavailable(text string) bool
}
