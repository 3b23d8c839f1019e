package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingExportedPayload_JSON(t *testing.T) {
	payload := &ListingExportedPayload{
		EventID:      "evt-1",
		EventType:    string(EventTypeListingExported),
		Timestamp:    time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		URL:          "https://www.aliexpress.com/item/1005001.html",
		Title:        "Test Product",
		CustomLabel:  "P1005001",
		RowCount:     5,
		VariantCount: 4,
		Source:       "scraper",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "LISTING_EXPORTED", decoded["event_type"])
	assert.Equal(t, "https://www.aliexpress.com/item/1005001.html", decoded["url"])
	assert.Equal(t, "P1005001", decoded["custom_label"])
	assert.EqualValues(t, 5, decoded["row_count"])
	assert.EqualValues(t, 4, decoded["variant_count"])
	assert.Equal(t, "scraper", decoded["source"])
}

func TestEventTypeListingExported(t *testing.T) {
	assert.Equal(t, EventType("LISTING_EXPORTED"), EventTypeListingExported)
}
