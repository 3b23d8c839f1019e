package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// Enumerator walks every combination sequentially: the rendered page is a
// single shared mutable resource, so concurrent selection would attribute
// observations to the wrong combination.
type Enumerator struct {
	driver   SelectionDriver
	observer Observer
	logger   *slog.Logger
}

func NewEnumerator(driver SelectionDriver, observer Observer, logger *slog.Logger) *Enumerator {
	return &Enumerator{
		driver:   driver,
		observer: observer,
		logger:   logger.With("component", "variant_enumerator"),
	}
}

// Enumerate selects and observes every combination of groups, in generation
// order. Empty groups return (nil, nil) immediately: the product has no
// variants, which is distinct from "variants exist but every observation
// failed" (an empty-but-attempted record list).
//
// A failure on one combination skips that combination and continues; no
// record is emitted for it. Cancellation takes effect between combinations
// and returns the records accumulated so far with a nil error, since a
// partial enumeration is still a usable export.
//
// Wall-clock cost is roughly two seconds per combination, so large products
// take minutes; per-combination progress is logged for that reason.
func (e *Enumerator) Enumerate(ctx context.Context, groups []variants.OptionGroup) ([]variants.VariantRecord, error) {
	groups = variants.Normalize(groups)
	if len(groups) == 0 {
		return nil, nil
	}

	combos := variants.Generate(groups)
	e.logger.Info("starting variant enumeration",
		"groups", len(groups),
		"combinations", len(combos))

	records := make([]variants.VariantRecord, 0, len(combos))

	for i, combo := range combos {
		if ctx.Err() != nil {
			e.logger.Info("enumeration cancelled",
				"observed", len(records),
				"total", len(combos))
			return records, nil
		}

		if err := e.driver.Select(ctx, combo); err != nil {
			if canceled(err) {
				return records, nil
			}
			e.logger.Warn("combination selection failed, skipping",
				"key", combo.RelationshipKey(),
				"error", err)
			continue
		}

		obs, err := e.observer.Observe(ctx)
		if err != nil {
			if canceled(err) {
				return records, nil
			}
			e.logger.Warn("combination observation failed, skipping",
				"key", combo.RelationshipKey(),
				"error", err)
			continue
		}

		records = append(records, variants.VariantRecord{
			Combination: combo,
			Price:       obs.Price,
			Shipping:    obs.Shipping,
			Quantity:    obs.Quantity,
			Available:   obs.Available,
		})

		e.logger.Info("variant observed",
			"progress", i+1,
			"total", len(combos),
			"key", combo.RelationshipKey(),
			"price", obs.Price,
			"available", obs.Available)

		if err := e.driver.Cooldown(ctx); err != nil {
			return records, nil
		}
	}

	e.logger.Info("variant enumeration complete",
		"observed", len(records),
		"total", len(combos))

	return records, nil
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
