package export

import (
	"strings"

	"github.com/maltedev/aliexpress-listing-scraper/internal/models"
	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// Format flattens a snapshot into export rows: one parent row, then one row
// per variant combination in generation order. Row numbers start at
// startNumber and are contiguous, so callers can concatenate several
// products and renumber once at export time.
//
// A product without option groups gets a single row carrying the snapshot's
// scalar fields. A product with groups gets a parent row that describes the
// family (aggregate relationship details, no per-unit price or quantity)
// and variant rows whose numeric fields stay blank until Reconcile fills
// them from enumeration.
func Format(snapshot *models.ProductSnapshot, startNumber int) []Row {
	groups := variants.Normalize(snapshot.OptionGroups)

	parent := Row{
		Number:         startNumber,
		SKU:            snapshot.CustomLabel,
		StoreName:      snapshot.StoreName,
		StoreNo:        snapshot.StoreNo,
		URL:            snapshot.URL,
		ShipTo:         snapshot.ShipTo,
		Title:          snapshot.Title,
		Description:    snapshot.Description,
		Specifications: snapshot.Specifications,
		Warning:        snapshot.Warning,
		SellPoints:     snapshot.SellPoints,
		ScanDate:       snapshot.ScanDate,
		Action:         ActionAdd,
		CategoryID:     snapshot.CategoryID,
		CategoryName:   snapshot.CategoryName,
		UPC:            snapshot.UPC,
		EPID:           snapshot.EPID,
		PhotoURL:       strings.Join(snapshot.Photos, "|"),
		VideoID:        strings.Join(snapshot.Videos, "|"),
	}

	if len(groups) == 0 {
		parent.Price = snapshot.Price
		parent.Quantity = snapshot.Quantity
		parent.Ship = snapshot.Shipping
		parent.Total = snapshot.Total
		return []Row{parent}
	}

	parent.RelationshipDetails = variants.AggregateDetails(groups)

	combos := variants.Generate(groups)
	rows := make([]Row, 0, len(combos)+1)
	rows = append(rows, parent)

	for i, combo := range combos {
		rows = append(rows, Row{
			Number:              startNumber + 1 + i,
			SKU:                 snapshot.CustomLabel + "-" + combo.SKUSuffix(),
			Relationship:        RelationshipVariation,
			RelationshipDetails: combo.RelationshipKey(),
			PhotoURL:            variantPhoto(combo, snapshot),
		})
	}

	return rows
}

// variantPhoto picks the image for a variant row: the chosen option's image
// from the first color-like group that has one, else the product's first
// parent-level photo.
func variantPhoto(combo variants.Combination, snapshot *models.ProductSnapshot) string {
	for _, ch := range combo.Choices {
		if strings.Contains(strings.ToLower(ch.Group), "color") && ch.Image != "" {
			return ch.Image
		}
	}
	return snapshot.FirstPhoto()
}
