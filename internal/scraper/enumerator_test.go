package scraper

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

// fakeDriver records the combinations it was asked to select and can fail
// on chosen keys.
type fakeDriver struct {
	selected   []string
	failKeys   map[string]error
	cancelOn   string
	cancelFunc context.CancelFunc
}

func (d *fakeDriver) Select(ctx context.Context, combo variants.Combination) error {
	key := combo.RelationshipKey()
	d.selected = append(d.selected, key)
	if d.cancelOn == key && d.cancelFunc != nil {
		d.cancelFunc()
	}
	if err, ok := d.failKeys[key]; ok {
		return err
	}
	return ctx.Err()
}

func (d *fakeDriver) Cooldown(ctx context.Context) error {
	return ctx.Err()
}

type fakeObserver struct {
	observations []Observation
	errs         []error
	calls        int
}

func (o *fakeObserver) Observe(ctx context.Context) (Observation, error) {
	i := o.calls
	o.calls++
	if i < len(o.errs) && o.errs[i] != nil {
		return Observation{}, o.errs[i]
	}
	if i < len(o.observations) {
		return o.observations[i], nil
	}
	return Observation{Price: "1.00", Shipping: "0", Available: true}, nil
}

func testGroups() []variants.OptionGroup {
	return []variants.OptionGroup{
		{Name: "Color", Options: []variants.Option{{Value: "Red"}, {Value: "Blue"}}},
		{Name: "Size", Options: []variants.Option{{Value: "S"}, {Value: "M"}}},
	}
}

func TestEnumerate_EmptyGroups(t *testing.T) {
	driver := &fakeDriver{}
	observer := &fakeObserver{}
	e := NewEnumerator(driver, observer, slog.Default())

	records, err := e.Enumerate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Empty(t, driver.selected, "no UI interaction for a product without variants")
	assert.Zero(t, observer.calls)
}

func TestEnumerate_AllCombinationsInOrder(t *testing.T) {
	driver := &fakeDriver{}
	observer := &fakeObserver{observations: []Observation{
		{Price: "10.00", Shipping: "0", Quantity: variants.KnownQuantity(5), Available: true},
		{Price: "11.00", Shipping: "0", Available: true},
		{Price: "12.00", Shipping: "2.00", Available: false},
		{Price: "13.00", Shipping: "0", Available: true},
	}}
	e := NewEnumerator(driver, observer, slog.Default())

	records, err := e.Enumerate(context.Background(), testGroups())
	require.NoError(t, err)
	require.Len(t, records, 4)

	wantOrder := []string{
		"Color=Red|Size=S",
		"Color=Red|Size=M",
		"Color=Blue|Size=S",
		"Color=Blue|Size=M",
	}
	assert.Equal(t, wantOrder, driver.selected)

	for i, r := range records {
		assert.Equal(t, wantOrder[i], r.Combination.RelationshipKey())
	}
	assert.Equal(t, "10.00", records[0].Price)
	n, known := records[0].Quantity.Known()
	assert.True(t, known)
	assert.Equal(t, 5, n)
	assert.False(t, records[2].Available)
}

func TestEnumerate_SelectionFailureSkipsCombination(t *testing.T) {
	driver := &fakeDriver{failKeys: map[string]error{
		"Color=Red|Size=M": errors.New("element detached"),
	}}
	observer := &fakeObserver{}
	e := NewEnumerator(driver, observer, slog.Default())

	records, err := e.Enumerate(context.Background(), testGroups())
	require.NoError(t, err)
	require.Len(t, records, 3, "failed combination skipped, loop continues")

	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Combination.RelationshipKey())
	}
	assert.NotContains(t, keys, "Color=Red|Size=M")
	assert.Len(t, driver.selected, 4, "every combination was still attempted")
}

func TestEnumerate_ObservationFailureSkipsCombination(t *testing.T) {
	driver := &fakeDriver{}
	observer := &fakeObserver{errs: []error{nil, errors.New("read failed")}}
	e := NewEnumerator(driver, observer, slog.Default())

	records, err := e.Enumerate(context.Background(), testGroups())
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, r := range records {
		assert.NotEqual(t, "Color=Red|Size=M", r.Combination.RelationshipKey())
	}
}

func TestEnumerate_CancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	driver := &fakeDriver{cancelOn: "Color=Blue|Size=S", cancelFunc: cancel}
	observer := &fakeObserver{}
	e := NewEnumerator(driver, observer, slog.Default())

	records, err := e.Enumerate(ctx, testGroups())
	require.NoError(t, err, "cancellation is partial success, not failure")
	require.Len(t, records, 2, "combinations observed before cancellation are kept")

	assert.Equal(t, "Color=Red|Size=S", records[0].Combination.RelationshipKey())
	assert.Equal(t, "Color=Red|Size=M", records[1].Combination.RelationshipKey())
	assert.Less(t, len(driver.selected), 4, "no further combinations attempted after cancel")
}

func TestEnumerate_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := &fakeDriver{}
	e := NewEnumerator(driver, &fakeObserver{}, slog.Default())

	records, err := e.Enumerate(ctx, testGroups())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, driver.selected)
}
