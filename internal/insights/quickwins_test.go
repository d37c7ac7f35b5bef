package insights

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

func TestRankQuickWins(t *testing.T) {
	t.Run("volume_band_enforced", func(t *testing.T) {
		events := searchEvents("only two searches", 2, 0)
		events = append(events, searchEvents("twenty searches", 20, 0)...)
		agg := buildAggregates(events, nil)

		assert.Empty(t, rankQuickWins(agg, nil, nil))
	})

	t.Run("healthy_query_excluded", func(t *testing.T) {
		agg := buildAggregates(searchEvents("ddr5 ram", 5, 4), nil)
		assert.Empty(t, rankQuickWins(agg, nil, nil))
	})

	t.Run("zero_results_score_and_label", func(t *testing.T) {
		// 4 searches, all zero results, no inventory match:
		// 20 + 10 + 4 + 10.
		agg := buildAggregates(searchEvents("vertical gpu mount", 4, 0), nil)

		items := rankQuickWins(agg, nil, nil)
		require.Len(t, items, 1)
		assert.Equal(t, "vertical gpu mount", items[0].Query)
		assert.Equal(t, impactAddProduct, items[0].PotentialImpact)
		assert.Equal(t, 44.0, items[0].ImpactScore)
		assert.Nil(t, items[0].InventoryMatch)
	})

	t.Run("low_average_with_stock_gets_index_label", func(t *testing.T) {
		// 6 searches averaging 1 result, item in stock:
		// 10 + 6 + 0 penalty.
		agg := buildAggregates(searchEvents("thermal paste", 6, 1), nil)
		inventory := []types.InventoryItem{{Name: "Arctic Thermal Paste 4g", StockLevel: intPtr(40)}}

		items := rankQuickWins(agg, inventory, nil)
		require.Len(t, items, 1)
		assert.Equal(t, impactImproveIndex, items[0].PotentialImpact)
		assert.Equal(t, 16.0, items[0].ImpactScore)
		require.NotNil(t, items[0].InventoryMatch)
		assert.Equal(t, "Arctic Thermal Paste 4g", items[0].InventoryMatch.Name)
	})

	t.Run("low_stock_penalty", func(t *testing.T) {
		// 5 searches averaging 1 result, stock at 2:
		// 10 + 5 + 8.
		agg := buildAggregates(searchEvents("sata cable", 5, 1), nil)
		inventory := []types.InventoryItem{{Name: "SATA Cable 50cm", StockLevel: intPtr(2)}}

		items := rankQuickWins(agg, inventory, nil)
		require.Len(t, items, 1)
		assert.Equal(t, 23.0, items[0].ImpactScore)
	})

	t.Run("conversions_weighted", func(t *testing.T) {
		// 4 zero-result searches with recorded funnel activity:
		// 20 + 10 + 4 + 10 + 2*4 + 2*1.5.
		agg := buildAggregates(searchEvents("fan splitter", 4, 0), nil)
		conversions := map[string]types.ConversionStats{
			"fan splitter": {AddToCart: 2, Checkout: 2},
		}

		items := rankQuickWins(agg, nil, conversions)
		require.Len(t, items, 1)
		assert.Equal(t, 55.0, items[0].ImpactScore)
		assert.Equal(t, 2, items[0].AddToCart)
		assert.Equal(t, 2, items[0].Checkout)
	})

	t.Run("sorted_descending_and_capped", func(t *testing.T) {
		var events []types.SearchEvent
		for i := 0; i < 12; i++ {
			events = append(events, searchEvents(fmt.Sprintf("win query %02d", i), 3+i%10, 0)...)
		}
		agg := buildAggregates(events, nil)

		items := rankQuickWins(agg, nil, nil)
		require.Len(t, items, maxQuickWins)
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].ImpactScore, items[i].ImpactScore)
		}
	})
}
