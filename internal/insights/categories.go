package insights

import (
	"fmt"
	"sort"
)

const maxCategoryInsights = 10

// CategoryInsight is a category with weak search-to-result yield.
type CategoryInsight struct {
	Category    string  `json:"category"`
	Searches    int     `json:"searches"`
	AvgResults  float64 `json:"avgResults"`
	ZeroRate    float64 `json:"zeroRate"`
	Reason      string  `json:"reason"`
	ImpactScore float64 `json:"impactScore"`
}

func rankCategories(agg *aggregates) []CategoryInsight {
	items := make([]CategoryInsight, 0)

	for _, cat := range agg.categories.orderedKeys() {
		rec, _ := agg.categories.get(cat)
		avg := rec.avgResults()
		zeroRate := rec.zeroRate()
		if rec.Count < 10 || (avg >= 2 && zeroRate <= 0.3) {
			continue
		}

		score := float64(rec.Count) + zeroRate*50
		if avg < 2 {
			score += 10
		}

		items = append(items, CategoryInsight{
			Category:    cat,
			Searches:    rec.Count,
			AvgResults:  avg,
			ZeroRate:    zeroRate,
			Reason:      fmt.Sprintf("%d searches averaging %.1f results, %.0f%% with zero results", rec.Count, avg, zeroRate*100),
			ImpactScore: score,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].ImpactScore != items[j].ImpactScore {
			return items[i].ImpactScore > items[j].ImpactScore
		}
		return items[i].Category < items[j].Category
	})
	if len(items) > maxCategoryInsights {
		items = items[:maxCategoryInsights]
	}
	return items
}
