package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

var (
	ErrInvalidURL = errors.New("invalid product URL")
	ErrNoSnapshot = errors.New("page yielded no product snapshot")
)

// SelectionDriver puts the live page into one combination's state. Select
// includes every settle wait up to the point where the page can be
// observed; Cooldown is the short pause after observation before the next
// combination starts.
type SelectionDriver interface {
	Select(ctx context.Context, combo variants.Combination) error
	Cooldown(ctx context.Context) error
}

// Observer reads the currently rendered variant state. It has no idea which
// combination produced that state; the enumerator attributes it.
type Observer interface {
	Observe(ctx context.Context) (Observation, error)
}

// Observation is one read of the page after a selection settled.
type Observation struct {
	Price     string
	Shipping  string
	Quantity  variants.Quantity
	Available bool
}

// Timing holds the settle intervals around variant selection. The page
// recomputes price and stock asynchronously with no completion signal, so
// these fixed waits are what keeps observations attributable to the right
// combination.
type Timing struct {
	GroupSettle   time.Duration
	ObserveSettle time.Duration
	Cooldown      time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		GroupSettle:   time.Second,
		ObserveSettle: 700 * time.Millisecond,
		Cooldown:      200 * time.Millisecond,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
