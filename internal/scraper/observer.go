package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/aliexpress-listing-scraper/internal/parser"
)

// PageObserver reads the rendered variant state through the shared parser
// heuristics, so observed shipping/quantity values can never drift from
// what snapshot extraction would report for the same markup.
type PageObserver struct {
	page   playwright.Page
	parser parser.Parser
	logger *slog.Logger
}

func NewPageObserver(page playwright.Page, p parser.Parser, logger *slog.Logger) *PageObserver {
	return &PageObserver{
		page:   page,
		parser: p,
		logger: logger.With("component", "variant_observer"),
	}
}

// Observe is a pure read of current page state.
func (o *PageObserver) Observe(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	content, err := o.page.Content()
	if err != nil {
		return Observation{}, fmt.Errorf("failed to read page content: %w", err)
	}

	text, err := o.page.InnerText("body")
	if err != nil {
		return Observation{}, fmt.Errorf("failed to read page text: %w", err)
	}

	return Observation{
		Price:     o.parser.RenderedPrice(content),
		Shipping:  o.parser.ShippingCost(text),
		Quantity:  o.parser.QuantitySignal(text),
		Available: !o.parser.SoldOut(text),
	}, nil
}
