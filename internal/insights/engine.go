package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

// defaultWindowDays is the trailing window used when the caller doesn't
// specify one.
const defaultWindowDays = 30

// EventSource supplies the two log streams for a trailing window of days.
// The caller owns all I/O and any row-count limit on the fetch; the engine
// itself is a pure batch computation over what it is handed.
type EventSource interface {
	SearchEvents(ctx context.Context, days int) ([]types.SearchEvent, error)
	ZeroResultEvents(ctx context.Context, days int) ([]types.ZeroResultEvent, error)
}

// Options carries the optional side inputs. Absent inventory or conversion
// data degrades the relevant score terms to their "absent" branch rather
// than failing.
type Options struct {
	WindowDays  int
	Inventory   []types.InventoryItem
	Conversions map[string]types.ConversionStats
}

// Report is the merged output of the four scorers plus window metadata.
type Report struct {
	MissingProducts           []MissingProduct  `json:"missingProducts"`
	UnderperformingCategories []CategoryInsight `json:"underperformingCategories"`
	QuickWins                 []QuickWin        `json:"quickWins"`
	SpellingCorrections       []SpellingCluster `json:"spellingCorrections"`
	WindowDays                int               `json:"windowDays"`
	GeneratedAt               time.Time         `json:"generatedAt"`
}

// Engine turns raw site-search and zero-result logs into merchandising
// recommendations. Every invocation builds fresh local tables; concurrent
// invocations are fully independent.
type Engine struct {
	logger *log.Logger
}

// New creates a new insights engine.
func New(logger *log.Logger) *Engine {
	return &Engine{logger: logger}
}

// Generate fetches the window from source, aggregates it, and runs the four
// scorers. The scorers are pure functions over shared read-only frequency
// tables, so the same inputs always produce the same report apart from
// GeneratedAt.
func (e *Engine) Generate(ctx context.Context, source EventSource, opts Options) (*Report, error) {
	startTime := time.Now()
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}

	searches, err := source.SearchEvents(ctx, opts.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search events: %w", err)
	}
	zeroes, err := source.ZeroResultEvents(ctx, opts.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zero-result events: %w", err)
	}
	e.logger.Debug("Fetched event window",
		"window_days", opts.WindowDays,
		"search_events", len(searches),
		"zero_result_events", len(zeroes))

	agg := buildAggregates(searches, zeroes)
	e.logger.Debug("Built frequency tables",
		"query_keys", agg.queries.len(),
		"category_keys", agg.categories.len(),
		"canonical_keys", agg.variants.len())

	report := &Report{
		MissingProducts:           rankMissingProducts(agg, opts.Inventory, opts.Conversions),
		UnderperformingCategories: rankCategories(agg),
		QuickWins:                 rankQuickWins(agg, opts.Inventory, opts.Conversions),
		SpellingCorrections:       detectSpellingClusters(agg),
		WindowDays:                opts.WindowDays,
		GeneratedAt:               time.Now().UTC(),
	}

	e.logger.Info("Generated search insights",
		"window_days", opts.WindowDays,
		"missing_products", len(report.MissingProducts),
		"underperforming_categories", len(report.UnderperformingCategories),
		"quick_wins", len(report.QuickWins),
		"spelling_clusters", len(report.SpellingCorrections),
		"duration", time.Since(startTime))

	return report, nil
}
