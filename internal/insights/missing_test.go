package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

func searchEvents(query string, n, resultCount int) []types.SearchEvent {
	events := make([]types.SearchEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, types.SearchEvent{Query: query, ResultCount: resultCount})
	}
	return events
}

func intPtr(n int) *int { return &n }

func TestRankMissingProducts(t *testing.T) {
	t.Run("below_volume_threshold_excluded", func(t *testing.T) {
		agg := buildAggregates(searchEvents("rtx 5090", 4, 0), nil)
		assert.Empty(t, rankMissingProducts(agg, nil, nil))
	})

	t.Run("healthy_results_excluded", func(t *testing.T) {
		agg := buildAggregates(searchEvents("rtx 4080", 20, 8), nil)
		assert.Empty(t, rankMissingProducts(agg, nil, nil))
	})

	t.Run("zero_result_demand_scores", func(t *testing.T) {
		// 6 searches, 3 zero results, avg 0.5: base 3*5+6, +10 for low
		// average, +25 for no catalogue match.
		events := append(searchEvents("water block", 3, 0), searchEvents("water block", 3, 1)...)
		agg := buildAggregates(events, nil)

		items := rankMissingProducts(agg, nil, nil)
		require.Len(t, items, 1)
		item := items[0]
		assert.Equal(t, "water block", item.Query)
		assert.Equal(t, 6, item.Searches)
		assert.Equal(t, 3, item.ZeroResults)
		assert.Nil(t, item.InventoryMatch)
		assert.Equal(t, 56.0, item.ImpactScore)
	})

	t.Run("inventory_match_reduces_penalty", func(t *testing.T) {
		agg := buildAggregates(searchEvents("water block", 6, 0), nil)

		inStock := []types.InventoryItem{{Name: "EK Water Block Pro", StockLevel: intPtr(40)}}
		items := rankMissingProducts(agg, inStock, nil)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].InventoryMatch)
		assert.Equal(t, "EK Water Block Pro", items[0].InventoryMatch.Name)
		// 6*5+6+10, no inventory penalty
		assert.Equal(t, 46.0, items[0].ImpactScore)

		lowStock := []types.InventoryItem{{Name: "EK Water Block Pro", StockLevel: intPtr(2)}}
		items = rankMissingProducts(agg, lowStock, nil)
		require.Len(t, items, 1)
		assert.Equal(t, 61.0, items[0].ImpactScore)
	})

	t.Run("conversions_add_bonus", func(t *testing.T) {
		agg := buildAggregates(searchEvents("water block", 6, 0), nil)
		conversions := map[string]types.ConversionStats{
			"water block": {AddToCart: 3, Checkout: 2},
		}

		items := rankMissingProducts(agg, nil, conversions)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].AddToCart)
		assert.Equal(t, 2, items[0].Checkout)
		// 6*5+6+10+25 + 2*5+3*2
		assert.Equal(t, 87.0, items[0].ImpactScore)
	})

	t.Run("sorted_descending_and_capped", func(t *testing.T) {
		var events []types.SearchEvent
		queries := []string{"a", "b", "c", "d", "e", "f", "g"}
		for i, q := range queries {
			events = append(events, searchEvents(q, 5+i, 0)...)
		}
		agg := buildAggregates(events, nil)

		items := rankMissingProducts(agg, nil, nil)
		require.Len(t, items, maxMissingProducts)
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].ImpactScore, items[i].ImpactScore)
		}
		for _, item := range items {
			assert.GreaterOrEqual(t, item.ImpactScore, 0.0)
		}
	})

	t.Run("removing_one_event_never_inflates_others", func(t *testing.T) {
		events := append(searchEvents("water block", 6, 0), searchEvents("riser cable", 5, 0)...)
		full := rankMissingProducts(buildAggregates(events, nil), nil, nil)
		reduced := rankMissingProducts(buildAggregates(events[1:], nil), nil, nil)

		counts := func(items []MissingProduct) map[string]int {
			m := make(map[string]int)
			for _, it := range items {
				m[it.Query] = it.Searches
			}
			return m
		}
		fullCounts := counts(full)
		for query, n := range counts(reduced) {
			assert.LessOrEqual(t, n, fullCounts[query])
		}
	})
}
