package export

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// Reconcile merges enumerated variant data into formatted rows, returning a
// new slice. Each record is matched against variant rows by exact
// relationship key equality; the key on both sides comes from the same
// Combination value, so a miss means the record belongs to a different
// product or the rows were formatted from different groups. Missed records
// are logged and dropped; their rows keep blank numeric fields.
func Reconcile(rows []Row, records []variants.VariantRecord, logger *slog.Logger) []Row {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Row, len(rows))
	copy(out, rows)

	for _, rec := range records {
		key := rec.Combination.RelationshipKey()

		matched := false
		for i := range out {
			if !out[i].IsVariant() || out[i].RelationshipDetails != key {
				continue
			}

			out[i].Price = rec.Price
			out[i].Ship = rec.Shipping
			if rec.Available {
				out[i].Quantity = rec.Quantity.Export()
			} else {
				out[i].Quantity = "0"
			}
			out[i].Total = total(rec.Price, rec.Shipping)

			matched = true
			break
		}

		if !matched {
			logger.Warn("variant record matched no row", "key", key)
		}
	}

	return out
}

// total is price plus shipping at two decimals, or empty when either side
// is absent or not numeric.
func total(price, shipping string) string {
	if price == "" || shipping == "" {
		return ""
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return ""
	}
	s, err := decimal.NewFromString(shipping)
	if err != nil {
		return ""
	}
	return p.Add(s).StringFixed(2)
}
