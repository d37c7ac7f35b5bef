package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SearchEvent represents one user search as logged by the storefront.
// Query is the corrected term actually used for matching; OriginalQuery is
// what the user literally typed and may differ due to autocorrection.
type SearchEvent struct {
	Query         string    `json:"query"`
	OriginalQuery string    `json:"originalQuery,omitempty"`
	ResultCount   int       `json:"resultCount"`
	Category      string    `json:"category,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ZeroResultEvent represents a search that returned no results. The
// storefront logs these to a separate stream, not as a filtered view of
// SearchEvent, so the two are reconciled only by normalized query string.
type ZeroResultEvent struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryItem is a catalogue entry used for substring matching against
// query strings. StockLevel is nil when the feed doesn't carry stock data.
type InventoryItem struct {
	Name       string `json:"name"`
	StockLevel *int   `json:"stockLevel,omitempty"`
}

// ConversionStats holds pre-aggregated conversion counts for one normalized
// query, supplied by the caller. The engine never joins raw conversion
// events itself.
type ConversionStats struct {
	AddToCart int             `json:"addToCart"`
	Checkout  int             `json:"checkout"`
	Revenue   decimal.Decimal `json:"revenue"`
}
