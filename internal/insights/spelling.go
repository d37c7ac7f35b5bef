package insights

import (
	"fmt"
	"sort"
	"strings"
)

const maxSpellingClusters = 10

// SpellingVariant is a repeated raw-typed near-miss of a canonical query.
type SpellingVariant struct {
	Variant      string `json:"variant"`
	Count        int    `json:"count"`
	EditDistance int    `json:"editDistance"`
}

// SpellingCluster groups the near-duplicate typed variants recorded against
// one canonical query, with a suggested synonym/redirect rule.
type SpellingCluster struct {
	Canonical     string            `json:"canonical"`
	Variants      []SpellingVariant `json:"variants"`
	TotalVariants int               `json:"totalVariants"`
	Suggestion    string            `json:"suggestion"`
}

// detectSpellingClusters walks the canonical->variant counts collected
// during ingestion and keeps only repeated near-misses: a variant survives
// iff its edit distance to the canonical is 1 or 2 and it was typed at
// least twice. Exact duplicates and one-off typos are not worth a rule.
//
// The whole pass recovers from any panic and degrades to an empty list;
// spelling suggestions are not load-bearing and must never sink the report.
func detectSpellingClusters(agg *aggregates) (clusters []SpellingCluster) {
	defer func() {
		if r := recover(); r != nil {
			clusters = []SpellingCluster{}
		}
	}()

	clusters = make([]SpellingCluster, 0)
	for _, canonical := range agg.variants.orderedKeys() {
		counter, _ := agg.variants.get(canonical)
		canonicalCmp := truncateForDistance(canonical)

		variantKeys := counter.inner.orderedKeys()
		if len(variantKeys) > maxVariantsForDistance {
			variantKeys = variantKeys[:maxVariantsForDistance]
		}

		variants := make([]SpellingVariant, 0)
		total := 0
		for _, variant := range variantKeys {
			count := counter.count(variant)
			if count < 2 {
				continue
			}
			dist := editDistance(canonicalCmp, truncateForDistance(variant))
			if dist < 1 || dist > 2 {
				continue
			}
			variants = append(variants, SpellingVariant{
				Variant:      variant,
				Count:        count,
				EditDistance: dist,
			})
			total += count
		}
		if len(variants) == 0 {
			continue
		}

		sort.Slice(variants, func(i, j int) bool {
			if variants[i].Count != variants[j].Count {
				return variants[i].Count > variants[j].Count
			}
			return variants[i].Variant < variants[j].Variant
		})
		if len(variants) > maxVariantsPerCluster {
			variants = variants[:maxVariantsPerCluster]
		}

		clusters = append(clusters, SpellingCluster{
			Canonical:     canonical,
			Variants:      variants,
			TotalVariants: total,
			Suggestion:    fmt.Sprintf("Add search synonyms redirecting %d misspelling(s) to %q", len(variants), canonical),
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].TotalVariants != clusters[j].TotalVariants {
			return clusters[i].TotalVariants > clusters[j].TotalVariants
		}
		return clusters[i].Canonical < clusters[j].Canonical
	})
	if len(clusters) > maxSpellingClusters {
		clusters = clusters[:maxSpellingClusters]
	}
	return clusters
}

// editDistance computes the classic dynamic-programming Levenshtein
// distance, case-insensitive. Inputs are pre-truncated by the caller, so
// the O(n*m) table stays small.
func editDistance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
