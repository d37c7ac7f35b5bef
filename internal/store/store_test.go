package store

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(n int) *int {
	return &n
}

func TestSearchEventsWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	inserted, err := s.InsertSearchEvents(ctx, []types.SearchEvent{
		{Query: "rtx 4090 ti", OriginalQuery: "rtx 4090ti", ResultCount: 0, Category: "GPUs", Timestamp: now.AddDate(0, 0, -2)},
		{Query: "ddr5 ram", ResultCount: 14, Timestamp: now.AddDate(0, 0, -5)},
		{Query: "agp graphics card", ResultCount: 0, Timestamp: now.AddDate(0, 0, -60)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	events, err := s.SearchEvents(ctx, 30)
	require.NoError(t, err)
	require.Len(t, events, 2, "rows older than the window are excluded")

	// Oldest first.
	assert.Equal(t, "ddr5 ram", events[0].Query)
	assert.Empty(t, events[0].OriginalQuery)
	assert.Equal(t, "rtx 4090 ti", events[1].Query)
	assert.Equal(t, "rtx 4090ti", events[1].OriginalQuery)
	assert.Equal(t, "GPUs", events[1].Category)
	assert.Equal(t, 0, events[1].ResultCount)
}

func TestZeroResultEventsWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	inserted, err := s.InsertZeroResultEvents(ctx, []types.ZeroResultEvent{
		{Query: "vertical gpu mount", Timestamp: now.AddDate(0, 0, -1)},
		{Query: "vertical gpu mount", Timestamp: now.AddDate(0, 0, -45)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	events, err := s.ZeroResultEvents(ctx, 30)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "vertical gpu mount", events[0].Query)
}

func TestReplaceInventory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.ReplaceInventory(ctx, []types.InventoryItem{
		{Name: "Old SKU", StockLevel: intPtr(1)},
	})
	require.NoError(t, err)

	// A second snapshot fully replaces the first.
	err = s.ReplaceInventory(ctx, []types.InventoryItem{
		{Name: "NZXT Kraken 240", StockLevel: intPtr(12)},
		{Name: "Unlisted Stock Item"},
	})
	require.NoError(t, err)

	items, err := s.Inventory(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "NZXT Kraken 240", items[0].Name)
	require.NotNil(t, items[0].StockLevel)
	assert.Equal(t, 12, *items[0].StockLevel)

	assert.Equal(t, "Unlisted Stock Item", items[1].Name)
	assert.Nil(t, items[1].StockLevel, "unknown stock round-trips as nil")
}

func TestConversionsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpsertConversions(ctx, map[string]types.ConversionStats{
		"rtx 4090 ti": {AddToCart: 3, Checkout: 2, Revenue: decimal.RequireFromString("3299.98")},
	})
	require.NoError(t, err)

	// Upserting the same key overwrites.
	err = s.UpsertConversions(ctx, map[string]types.ConversionStats{
		"rtx 4090 ti": {AddToCart: 4, Checkout: 2, Revenue: decimal.RequireFromString("3299.98")},
	})
	require.NoError(t, err)

	conversions, err := s.Conversions(ctx)
	require.NoError(t, err)
	require.Len(t, conversions, 1)

	stats := conversions["rtx 4090 ti"]
	assert.Equal(t, 4, stats.AddToCart)
	assert.Equal(t, 2, stats.Checkout)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("3299.98")))
}

func TestTopQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	var events []types.SearchEvent
	for i := 0; i < 3; i++ {
		events = append(events, types.SearchEvent{Query: "Graphics Card", ResultCount: 10, Timestamp: now})
	}
	events = append(events,
		types.SearchEvent{Query: "  graphics card ", ResultCount: 2, Timestamp: now},
		types.SearchEvent{Query: "psu", ResultCount: 8, Timestamp: now},
		types.SearchEvent{Query: "   ", ResultCount: 0, Timestamp: now},
	)
	_, err := s.InsertSearchEvents(ctx, events)
	require.NoError(t, err)

	counts, err := s.TopQueries(ctx, 30, 10)
	require.NoError(t, err)
	require.Len(t, counts, 2, "casing and whitespace variants group together, blanks are dropped")

	assert.Equal(t, "graphics card", counts[0].Query)
	assert.Equal(t, 4, counts[0].Count)
	assert.InDelta(t, 8.0, counts[0].AvgResults, 0.001)
	assert.Equal(t, "psu", counts[1].Query)
	assert.Equal(t, 1, counts[1].Count)
}

func TestZeroResultQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := s.InsertZeroResultEvents(ctx, []types.ZeroResultEvent{
		{Query: "noctua nh-d15", Timestamp: now},
		{Query: "Noctua NH-D15", Timestamp: now},
		{Query: "pcie riser", Timestamp: now},
	})
	require.NoError(t, err)

	counts, err := s.ZeroResultQueries(ctx, 30, 1)
	require.NoError(t, err)
	require.Len(t, counts, 1, "limit applies")
	assert.Equal(t, "noctua nh-d15", counts[0].Query)
	assert.Equal(t, 2, counts[0].Count)
}

func TestEventCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := s.InsertSearchEvents(ctx, []types.SearchEvent{
		{Query: "case fans", ResultCount: 3, Timestamp: now},
		{Query: "case fans", ResultCount: 3, Timestamp: now},
	})
	require.NoError(t, err)
	_, err = s.InsertZeroResultEvents(ctx, []types.ZeroResultEvent{
		{Query: "case fans 140mm", Timestamp: now},
	})
	require.NoError(t, err)

	searches, zeroes, err := s.EventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, searches)
	assert.Equal(t, 1, zeroes)
}
