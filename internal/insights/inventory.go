package insights

import (
	"strings"

	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

// lowStockThreshold is the stock level at or below which a matched
// catalogue item still counts toward the "source new stock" signal.
const lowStockThreshold = 5

// InventoryMatch records the catalogue item whose name contained the query,
// carried on recommendation items for explainability.
type InventoryMatch struct {
	Name       string `json:"name"`
	StockLevel *int   `json:"stockLevel,omitempty"`
}

// matchInventory returns the first inventory item whose normalized name
// contains key as a substring, or nil when the catalogue has no match.
// Absence of a match is itself a signal.
func matchInventory(key string, items []types.InventoryItem) *InventoryMatch {
	for _, item := range items {
		name := normalizeQuery(item.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, key) {
			return &InventoryMatch{Name: item.Name, StockLevel: item.StockLevel}
		}
	}
	return nil
}

// inventoryPenalty maps a match outcome onto a scorer's penalty tiers:
// noMatch when the catalogue has nothing, lowStock when the matched item is
// nearly out of stock, zero otherwise.
func inventoryPenalty(match *InventoryMatch, noMatch, lowStock float64) float64 {
	if match == nil {
		return noMatch
	}
	if match.StockLevel != nil && *match.StockLevel <= lowStockThreshold {
		return lowStock
	}
	return 0
}
