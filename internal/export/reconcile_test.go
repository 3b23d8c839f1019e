package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

func combo(pairs ...string) variants.Combination {
	var c variants.Combination
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Choices = append(c.Choices, variants.Choice{Group: pairs[i], Value: pairs[i+1]})
	}
	return c
}

func TestReconcile(t *testing.T) {
	rows := []Row{
		{Number: 1, Action: ActionAdd},
		{Number: 2, Relationship: RelationshipVariation, RelationshipDetails: "Color=Red|Size=S"},
		{Number: 3, Relationship: RelationshipVariation, RelationshipDetails: "Color=Red|Size=M"},
	}

	records := []variants.VariantRecord{
		{
			Combination: combo("Color", "Red", "Size", "S"),
			Price:       "12.50",
			Shipping:    "3.00",
			Quantity:    variants.KnownQuantity(4),
			Available:   true,
		},
		{
			Combination: combo("Color", "Red", "Size", "M"),
			Price:       "13.00",
			Shipping:    "0",
			Quantity:    variants.Unconstrained(),
			Available:   true,
		},
	}

	out := Reconcile(rows, records, nil)
	require.Len(t, out, 3)

	assert.Equal(t, "12.50", out[1].Price)
	assert.Equal(t, "3.00", out[1].Ship)
	assert.Equal(t, "4", out[1].Quantity)
	assert.Equal(t, "15.50", out[1].Total)

	assert.Equal(t, "13.00", out[2].Price)
	assert.Equal(t, "999", out[2].Quantity)
	assert.Equal(t, "13.00", out[2].Total)

	// Parent row untouched.
	assert.Empty(t, out[0].Price)
}

func TestReconcile_UnavailableForcesZeroQuantity(t *testing.T) {
	rows := []Row{
		{Number: 1, Relationship: RelationshipVariation, RelationshipDetails: "Size=L"},
	}
	records := []variants.VariantRecord{
		{
			Combination: combo("Size", "L"),
			Price:       "9.99",
			Shipping:    "0",
			Quantity:    variants.KnownQuantity(5),
			Available:   false,
		},
	}

	out := Reconcile(rows, records, nil)
	assert.Equal(t, "0", out[0].Quantity)
	assert.Equal(t, "9.99", out[0].Price)
}

func TestReconcile_MissIsDropped(t *testing.T) {
	rows := []Row{
		{Number: 1, Relationship: RelationshipVariation, RelationshipDetails: "Size=S"},
	}
	records := []variants.VariantRecord{
		{Combination: combo("Size", "XL"), Price: "5.00", Shipping: "0", Available: true},
	}

	out := Reconcile(rows, records, nil)
	assert.Empty(t, out[0].Price)
	assert.Empty(t, out[0].Quantity)
}

func TestReconcile_TotalRequiresNumericPriceAndShipping(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		shipping string
		want     string
	}{
		{"both numeric", "10.00", "2.5", "12.50"},
		{"missing price", "", "2.5", ""},
		{"missing shipping", "10.00", "", ""},
		{"non numeric price", "call us", "2.5", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []Row{{Relationship: RelationshipVariation, RelationshipDetails: "Size=S"}}
			records := []variants.VariantRecord{{
				Combination: combo("Size", "S"),
				Price:       tt.price,
				Shipping:    tt.shipping,
				Available:   true,
			}}
			out := Reconcile(rows, records, nil)
			assert.Equal(t, tt.want, out[0].Total)
		})
	}
}

func TestReconcile_FirstMatchWinsAndInputNotMutated(t *testing.T) {
	rows := []Row{
		{Number: 1, Relationship: RelationshipVariation, RelationshipDetails: "Size=S"},
		{Number: 2, Relationship: RelationshipVariation, RelationshipDetails: "Size=S"},
	}
	records := []variants.VariantRecord{
		{Combination: combo("Size", "S"), Price: "1.00", Shipping: "0", Available: true},
	}

	out := Reconcile(rows, records, nil)
	assert.Equal(t, "1.00", out[0].Price)
	assert.Empty(t, out[1].Price)

	assert.Empty(t, rows[0].Price, "input rows must not be mutated")
}

func TestReconcile_FullEnumerationLeavesNoVariantRowUnmatched(t *testing.T) {
	groups := []variants.OptionGroup{
		{Name: "Color", Options: []variants.Option{{Value: "Red"}, {Value: "Blue"}}},
		{Name: "Size", Options: []variants.Option{{Value: "S"}, {Value: "M"}}},
	}

	rows := make([]Row, 0)
	for i, c := range variants.Generate(groups) {
		rows = append(rows, Row{
			Number:              i + 2,
			Relationship:        RelationshipVariation,
			RelationshipDetails: c.RelationshipKey(),
		})
	}

	records := make([]variants.VariantRecord, 0)
	for _, c := range variants.Generate(groups) {
		records = append(records, variants.VariantRecord{
			Combination: c,
			Price:       "7.00",
			Shipping:    "1.00",
			Quantity:    variants.KnownQuantity(3),
			Available:   true,
		})
	}

	out := Reconcile(rows, records, nil)
	for _, r := range out {
		assert.Equal(t, "7.00", r.Price, "row %q left unmatched", r.RelationshipDetails)
		assert.Equal(t, "8.00", r.Total)
	}
}
