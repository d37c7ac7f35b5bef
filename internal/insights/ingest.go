package insights

import (
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

// aggregateRecord accumulates per-QueryKey counts across both log streams.
// It is built once during ingestion and shared read-only by all four
// scorers, so every report section ranks against the same counts.
type aggregateRecord struct {
	Searches         int
	ZeroResults      int
	TotalResultCount int
}

func (r *aggregateRecord) avgResults() float64 {
	if r.Searches == 0 {
		return 0
	}
	return float64(r.TotalResultCount) / float64(r.Searches)
}

// categoryRecord accumulates per-category counts from search events that
// carry a category.
type categoryRecord struct {
	Count        int
	TotalResults int
	Zeroes       int
}

func (r *categoryRecord) avgResults() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.TotalResults) / float64(r.Count)
}

func (r *categoryRecord) zeroRate() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Zeroes) / float64(r.Count)
}

// aggregates is the output of the ingestion stage: the frequency tables the
// scorers rank against.
type aggregates struct {
	queries    *cappedMap[*aggregateRecord]
	categories *cappedMap[*categoryRecord]
	// variants maps a canonical QueryKey to the counts of raw-typed
	// originals recorded against it. Sole input to spelling clustering.
	variants *cappedMap[*cappedCounter]
}

// buildAggregates folds the two event streams into frequency tables keyed
// by normalized query. Rows with empty normalized queries are silently
// dropped; this is a best-effort analytics pass, not a validating pipeline.
func buildAggregates(searches []types.SearchEvent, zeroes []types.ZeroResultEvent) *aggregates {
	agg := &aggregates{
		queries:    newCappedMap[*aggregateRecord](maxQueryKeys),
		categories: newCappedMap[*categoryRecord](maxCategoryKeys),
		variants:   newCappedMap[*cappedCounter](maxCanonicalKeys),
	}

	for _, ev := range searches {
		key := normalizeQuery(ev.Query)
		if key == "" {
			continue
		}
		rec, ok := agg.queries.getOrCreate(key, func() *aggregateRecord { return &aggregateRecord{} })
		if !ok {
			continue
		}
		rec.Searches++
		rec.TotalResultCount += ev.ResultCount
		if ev.ResultCount == 0 {
			rec.ZeroResults++
		}

		if cat := normalizeQuery(ev.Category); cat != "" {
			if crec, ok := agg.categories.getOrCreate(cat, func() *categoryRecord { return &categoryRecord{} }); ok {
				crec.Count++
				crec.TotalResults += ev.ResultCount
				if ev.ResultCount == 0 {
					crec.Zeroes++
				}
			}
		}

		// A divergence between what the user typed and the corrected query
		// is the raw material for spelling clusters.
		if orig := normalizeQuery(ev.OriginalQuery); orig != "" && orig != key {
			if counter, ok := agg.variants.getOrCreate(key, func() *cappedCounter {
				return newCappedCounter(maxVariantsPerCanonical)
			}); ok {
				counter.add(orig)
			}
		}
	}

	// The zero-result stream is logged independently of the search stream;
	// it contributes zero-result counts only, reconciled by QueryKey.
	for _, ev := range zeroes {
		key := normalizeQuery(ev.Query)
		if key == "" {
			continue
		}
		rec, ok := agg.queries.getOrCreate(key, func() *aggregateRecord { return &aggregateRecord{} })
		if !ok {
			continue
		}
		rec.ZeroResults++
	}

	return agg
}
