package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

const maxMissingProducts = 5

// MissingProduct is a query that looks like unmet demand: repeated searches
// with no or near-no results, strengthened by catalogue absence and by
// conversions that happen despite the poor results.
type MissingProduct struct {
	Query          string          `json:"query"`
	Searches       int             `json:"searches"`
	ZeroResults    int             `json:"zeroResults"`
	AvgResults     float64         `json:"avgResults"`
	InventoryMatch *InventoryMatch `json:"inventoryMatch,omitempty"`
	AddToCart      int             `json:"addToCart"`
	Checkout       int             `json:"checkout"`
	Reason         string          `json:"reason"`
	ImpactScore    float64         `json:"impactScore"`
}

// rankMissingProducts scores every candidate QueryKey and returns the top
// candidates by impact. Inventory and conversion inputs are optional; their
// score terms default to the "absent" branch when not supplied.
func rankMissingProducts(agg *aggregates, inventory []types.InventoryItem, conversions map[string]types.ConversionStats) []MissingProduct {
	items := make([]MissingProduct, 0)

	for _, key := range agg.queries.orderedKeys() {
		rec, _ := agg.queries.get(key)
		avg := rec.avgResults()
		if rec.Searches < 5 || (rec.ZeroResults < 3 && avg >= 1) {
			continue
		}

		score := float64(rec.ZeroResults*5 + rec.Searches)
		reasons := []string{fmt.Sprintf("%d searches, %d with zero results", rec.Searches, rec.ZeroResults)}
		if avg < 1 {
			score += 10
			reasons = append(reasons, fmt.Sprintf("averages %.1f results", avg))
		}

		match := matchInventory(key, inventory)
		if penalty := inventoryPenalty(match, 25, 15); penalty > 0 {
			score += penalty
			if match == nil {
				reasons = append(reasons, "no matching catalogue item")
			} else {
				reasons = append(reasons, fmt.Sprintf("matched item %q is low on stock", match.Name))
			}
		}

		item := MissingProduct{
			Query:          key,
			Searches:       rec.Searches,
			ZeroResults:    rec.ZeroResults,
			AvgResults:     avg,
			InventoryMatch: match,
		}
		if conv, ok := conversions[key]; ok {
			score += float64(conv.Checkout*5 + conv.AddToCart*2)
			item.AddToCart = conv.AddToCart
			item.Checkout = conv.Checkout
			if conv.Checkout > 0 {
				reasons = append(reasons, fmt.Sprintf("%d checkouts despite poor results", conv.Checkout))
			}
		}

		item.ImpactScore = score
		item.Reason = strings.Join(reasons, "; ")
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].ImpactScore != items[j].ImpactScore {
			return items[i].ImpactScore > items[j].ImpactScore
		}
		return items[i].Query < items[j].Query
	})
	if len(items) > maxMissingProducts {
		items = items[:maxMissingProducts]
	}
	return items
}
