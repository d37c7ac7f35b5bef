package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

const maxQuickWins = 10

// Categorical potentialImpact labels, chosen solely by whether the query
// ever returned zero results.
const (
	impactAddProduct   = "Add matching product"
	impactImproveIndex = "Improve index / metadata"
)

// QuickWin is a lower-volume query that is cheap to fix with a metadata or
// synonym tweak, as distinct from the missing-product scorer's higher-volume
// "source new stock" signals. The volume band is deliberately narrower than
// the missing-product filter so the two lists stay mostly disjoint.
type QuickWin struct {
	Query           string          `json:"query"`
	Searches        int             `json:"searches"`
	ZeroResults     int             `json:"zeroResults"`
	AvgResults      float64         `json:"avgResults"`
	InventoryMatch  *InventoryMatch `json:"inventoryMatch,omitempty"`
	AddToCart       int             `json:"addToCart"`
	Checkout        int             `json:"checkout"`
	PotentialImpact string          `json:"potentialImpact"`
	Reason          string          `json:"reason"`
	ImpactScore     float64         `json:"impactScore"`
}

func rankQuickWins(agg *aggregates, inventory []types.InventoryItem, conversions map[string]types.ConversionStats) []QuickWin {
	items := make([]QuickWin, 0)

	for _, key := range agg.queries.orderedKeys() {
		rec, _ := agg.queries.get(key)
		avg := rec.avgResults()
		if rec.Searches < 3 || rec.Searches > 12 {
			continue
		}
		if avg >= 2 && rec.ZeroResults == 0 {
			continue
		}

		score := float64(rec.Searches)
		reasons := []string{fmt.Sprintf("%d searches", rec.Searches)}
		if rec.ZeroResults > 0 {
			score += 20
			reasons = append(reasons, fmt.Sprintf("%d zero-result searches", rec.ZeroResults))
		}
		if avg < 2 {
			score += 10
			reasons = append(reasons, fmt.Sprintf("averages %.1f results", avg))
		}

		match := matchInventory(key, inventory)
		score += inventoryPenalty(match, 10, 8)

		item := QuickWin{
			Query:          key,
			Searches:       rec.Searches,
			ZeroResults:    rec.ZeroResults,
			AvgResults:     avg,
			InventoryMatch: match,
		}
		if conv, ok := conversions[key]; ok {
			score += float64(conv.Checkout)*4 + float64(conv.AddToCart)*1.5
			item.AddToCart = conv.AddToCart
			item.Checkout = conv.Checkout
		}

		if rec.ZeroResults > 0 {
			item.PotentialImpact = impactAddProduct
		} else {
			item.PotentialImpact = impactImproveIndex
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
	if len(items) > maxQuickWins {
		items = items[:maxQuickWins]
	}
	return items
}
