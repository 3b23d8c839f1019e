package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/aliexpress-listing-scraper/internal/models"
	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

func snapshotFixture() *models.ProductSnapshot {
	return &models.ProductSnapshot{
		URL:          "https://www.aliexpress.com/item/1005001234567890.html",
		Title:        "Wireless Earbuds",
		Price:        "19.99",
		Shipping:     "2.50",
		Total:        "22.49",
		Quantity:     "999",
		CategoryID:   "44",
		CategoryName: "Consumer Electronics",
		CustomLabel:  "P1005001234567890",
		StoreName:    "Best Gadget Store",
		StoreNo:      "1102345",
		ShipTo:       "United States",
		ScanDate:     "2026-09-01",
		Photos:       []string{"https://cdn.example.com/main.jpg", "https://cdn.example.com/alt.jpg"},
	}
}

func TestFormat_NoVariants(t *testing.T) {
	rows := Format(snapshotFixture(), 1)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 1, r.Number)
	assert.Equal(t, "P1005001234567890", r.SKU)
	assert.Equal(t, "19.99", r.Price)
	assert.Equal(t, "999", r.Quantity)
	assert.Equal(t, "2.50", r.Ship)
	assert.Equal(t, "22.49", r.Total)
	assert.Equal(t, ActionAdd, r.Action)
	assert.Equal(t, "", r.Relationship)
	assert.Equal(t, "", r.RelationshipDetails)
	assert.Equal(t, "https://cdn.example.com/main.jpg|https://cdn.example.com/alt.jpg", r.PhotoURL)
}

func TestFormat_WithVariants(t *testing.T) {
	snap := snapshotFixture()
	snap.OptionGroups = []variants.OptionGroup{
		{Name: "Color", Options: []variants.Option{
			{Value: "Black", Image: "https://cdn.example.com/black.jpg"},
			{Value: "White"},
		}},
		{Name: "Plug Type", Options: []variants.Option{{Value: "US"}, {Value: "EU"}}},
	}

	rows := Format(snap, 1)
	require.Len(t, rows, 5)

	parent := rows[0]
	assert.Equal(t, "", parent.Relationship)
	assert.Equal(t, "Color=Black;White|Plug Type=US;EU", parent.RelationshipDetails)
	assert.Equal(t, ActionAdd, parent.Action)
	// Per-unit figures belong to variant rows once the product has variants.
	assert.Empty(t, parent.Price)
	assert.Empty(t, parent.Quantity)
	assert.Empty(t, parent.Ship)
	assert.Empty(t, parent.Total)

	wantKeys := []string{
		"Color=Black|Plug Type=US",
		"Color=Black|Plug Type=EU",
		"Color=White|Plug Type=US",
		"Color=White|Plug Type=EU",
	}
	wantSKUs := []string{
		"P1005001234567890-Black-US",
		"P1005001234567890-Black-EU",
		"P1005001234567890-White-US",
		"P1005001234567890-White-EU",
	}
	for i, r := range rows[1:] {
		assert.Equal(t, i+2, r.Number)
		assert.Equal(t, RelationshipVariation, r.Relationship)
		assert.Equal(t, wantKeys[i], r.RelationshipDetails)
		assert.Equal(t, wantSKUs[i], r.SKU)
		assert.Empty(t, r.Price)
		assert.Empty(t, r.Action)
	}

	// Black rows carry the color swatch, White rows fall back to the first
	// parent photo.
	assert.Equal(t, "https://cdn.example.com/black.jpg", rows[1].PhotoURL)
	assert.Equal(t, "https://cdn.example.com/black.jpg", rows[2].PhotoURL)
	assert.Equal(t, "https://cdn.example.com/main.jpg", rows[3].PhotoURL)
	assert.Equal(t, "https://cdn.example.com/main.jpg", rows[4].PhotoURL)
}

func TestFormat_StartNumberOffset(t *testing.T) {
	snap := snapshotFixture()
	snap.OptionGroups = []variants.OptionGroup{
		{Name: "Size", Options: []variants.Option{{Value: "S"}, {Value: "M"}}},
	}

	rows := Format(snap, 7)
	require.Len(t, rows, 3)
	assert.Equal(t, 7, rows[0].Number)
	assert.Equal(t, 8, rows[1].Number)
	assert.Equal(t, 9, rows[2].Number)
}

func TestFormat_EmptyGroupsAreIgnored(t *testing.T) {
	snap := snapshotFixture()
	snap.OptionGroups = []variants.OptionGroup{{Name: "Ships From"}}

	rows := Format(snap, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, "19.99", rows[0].Price)
}

func TestRenumber(t *testing.T) {
	rows := []Row{{Number: 4}, {Number: 9}, {Number: 1}}
	out := Renumber(rows)

	for i, r := range out {
		assert.Equal(t, i+1, r.Number)
	}
	// Input untouched.
	assert.Equal(t, 4, rows[0].Number)
}
