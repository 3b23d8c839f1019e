package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// PageDriver drives the live page's own option widgets via playwright.
type PageDriver struct {
	page   playwright.Page
	timing Timing
	logger *slog.Logger
}

func NewPageDriver(page playwright.Page, timing Timing, logger *slog.Logger) *PageDriver {
	return &PageDriver{
		page:   page,
		timing: timing,
		logger: logger.With("component", "selection_driver"),
	}
}

// Select activates each choice in group order, waiting a settle interval
// after every activation because the page recomputes price and stock
// asynchronously. A choice whose element cannot be found or clicked is
// logged and skipped; the observation then reflects whatever partial state
// the page reached. Only context cancellation aborts.
func (d *PageDriver) Select(ctx context.Context, combo variants.Combination) error {
	for _, choice := range combo.Choices {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.activate(choice); err != nil {
			d.logger.Warn("option activation failed",
				"group", choice.Group,
				"value", choice.Value,
				"error", err)
		}

		if err := sleep(ctx, d.timing.GroupSettle); err != nil {
			return err
		}
	}

	return sleep(ctx, d.timing.ObserveSettle)
}

// Cooldown pauses briefly after an observation so successive combinations
// do not hammer the host page.
func (d *PageDriver) Cooldown(ctx context.Context) error {
	return sleep(ctx, d.timing.Cooldown)
}

// activate clicks the option element for one (group, value) pair. Image
// swatches are matched by their alt text, text options by their label.
func (d *PageDriver) activate(choice variants.Choice) error {
	block := d.page.Locator(
		fmt.Sprintf(`div[class*="sku-item--property"]:has(div[class*="sku-item--title"]:has-text(%q))`, choice.Group),
	).First()

	count, err := block.Count()
	if err != nil {
		return fmt.Errorf("failed to locate group %q: %w", choice.Group, err)
	}
	if count == 0 {
		return fmt.Errorf("group %q not found on page", choice.Group)
	}

	option := block.Locator(fmt.Sprintf(`div[data-sku-col]:has(img[alt=%q])`, choice.Value)).First()
	if n, err := option.Count(); err != nil || n == 0 {
		option = block.Locator(fmt.Sprintf(`div[data-sku-col]:has-text(%q)`, choice.Value)).First()
		if n, err := option.Count(); err != nil || n == 0 {
			return fmt.Errorf("option %q not found in group %q", choice.Value, choice.Group)
		}
	}

	if err := option.Click(); err != nil {
		return fmt.Errorf("failed to click option %q: %w", choice.Value, err)
	}

	return nil
}
