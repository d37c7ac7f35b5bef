package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

// Store is the SQLite-backed event store holding the search and zero-result
// log streams plus the inventory and conversion side-tables.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// New opens (creating if necessary) the event store under dataDir.
func New(dataDir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "search-insights.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	s := &Store{db: db, logger: logger}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := ApplyMigrations(context.Background(), db, logger.Debugf); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS search_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			original_query TEXT,
			result_count INTEGER NOT NULL,
			category TEXT,
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS zero_result_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS inventory_items (
			name TEXT PRIMARY KEY,
			stock_level INTEGER
		);

		CREATE TABLE IF NOT EXISTS query_conversions (
			query TEXT PRIMARY KEY,
			add_to_cart INTEGER NOT NULL DEFAULT 0,
			checkout INTEGER NOT NULL DEFAULT 0,
			revenue DECIMAL(15,2) NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create event tables: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_search_events_timestamp ON search_events(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_search_events_query ON search_events(query)",
		"CREATE INDEX IF NOT EXISTS idx_zero_result_events_timestamp ON zero_result_events(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_zero_result_events_query ON zero_result_events(query)",
	}
	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// InsertSearchEvents stores a batch of search events in a single
// transaction and returns the number inserted.
func (s *Store) InsertSearchEvents(ctx context.Context, events []types.SearchEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_events (query, original_query, result_count, category, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.Query, nullString(ev.OriginalQuery), ev.ResultCount, nullString(ev.Category), ev.Timestamp,
		); err != nil {
			return inserted, fmt.Errorf("failed to insert search event: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit search events: %w", err)
	}
	s.logger.Debug("Inserted search events", "count", inserted)
	return inserted, nil
}

// InsertZeroResultEvents stores a batch of zero-result events.
func (s *Store) InsertZeroResultEvents(ctx context.Context, events []types.ZeroResultEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO zero_result_events (query, timestamp) VALUES (?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.Query, ev.Timestamp); err != nil {
			return inserted, fmt.Errorf("failed to insert zero-result event: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit zero-result events: %w", err)
	}
	s.logger.Debug("Inserted zero-result events", "count", inserted)
	return inserted, nil
}

// ReplaceInventory swaps the inventory snapshot for a fresh one.
func (s *Store) ReplaceInventory(ctx context.Context, items []types.InventoryItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items`); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO inventory_items (name, stock_level) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		var stock sql.NullInt64
		if item.StockLevel != nil {
			stock = sql.NullInt64{Int64: int64(*item.StockLevel), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, item.Name, stock); err != nil {
			return fmt.Errorf("failed to insert inventory item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory: %w", err)
	}
	s.logger.Debug("Replaced inventory snapshot", "items", len(items))
	return nil
}

// UpsertConversions stores pre-aggregated conversion counts keyed by
// normalized query string.
func (s *Store) UpsertConversions(ctx context.Context, conversions map[string]types.ConversionStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO query_conversions (query, add_to_cart, checkout, revenue)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for query, stats := range conversions {
		if _, err := stmt.ExecContext(ctx, query, stats.AddToCart, stats.Checkout, stats.Revenue.String()); err != nil {
			return fmt.Errorf("failed to upsert conversion row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversions: %w", err)
	}
	return nil
}

// SearchEvents returns search events from the last N days, oldest first.
// Row-count limiting is the caller's policy; the engine self-caps distinct
// keys regardless.
func (s *Store) SearchEvents(ctx context.Context, days int) ([]types.SearchEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, original_query, result_count, category, timestamp
		FROM search_events
		WHERE timestamp >= datetime('now', ? || ' days')
		ORDER BY timestamp ASC, id ASC
	`, -days)
	if err != nil {
		return nil, fmt.Errorf("failed to query search events: %w", err)
	}
	defer rows.Close()

	var events []types.SearchEvent
	for rows.Next() {
		var ev types.SearchEvent
		var originalQuery, category sql.NullString
		var ts time.Time
		if err := rows.Scan(&ev.Query, &originalQuery, &ev.ResultCount, &category, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan search event: %w", err)
		}
		ev.OriginalQuery = originalQuery.String
		ev.Category = category.String
		ev.Timestamp = ts
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search events: %w", err)
	}
	return events, nil
}

// ZeroResultEvents returns zero-result events from the last N days, oldest
// first.
func (s *Store) ZeroResultEvents(ctx context.Context, days int) ([]types.ZeroResultEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, timestamp
		FROM zero_result_events
		WHERE timestamp >= datetime('now', ? || ' days')
		ORDER BY timestamp ASC, id ASC
	`, -days)
	if err != nil {
		return nil, fmt.Errorf("failed to query zero-result events: %w", err)
	}
	defer rows.Close()

	var events []types.ZeroResultEvent
	for rows.Next() {
		var ev types.ZeroResultEvent
		var ts time.Time
		if err := rows.Scan(&ev.Query, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan zero-result event: %w", err)
		}
		ev.Timestamp = ts
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zero-result events: %w", err)
	}
	return events, nil
}

// Inventory returns the current inventory snapshot.
func (s *Store) Inventory(ctx context.Context) ([]types.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, stock_level FROM inventory_items ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []types.InventoryItem
	for rows.Next() {
		var item types.InventoryItem
		var stock sql.NullInt64
		if err := rows.Scan(&item.Name, &stock); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		if stock.Valid {
			level := int(stock.Int64)
			item.StockLevel = &level
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}
	return items, nil
}

// Conversions returns the pre-aggregated conversion table keyed by query.
func (s *Store) Conversions(ctx context.Context) (map[string]types.ConversionStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, add_to_cart, checkout, revenue FROM query_conversions
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	conversions := make(map[string]types.ConversionStats)
	for rows.Next() {
		var query string
		var stats types.ConversionStats
		var revenue string
		if err := rows.Scan(&query, &stats.AddToCart, &stats.Checkout, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan conversion row: %w", err)
		}
		stats.Revenue, err = decimal.NewFromString(revenue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse revenue for %q: %w", query, err)
		}
		conversions[query] = stats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversions: %w", err)
	}
	return conversions, nil
}

// QueryCount is a query string with its occurrence count in a window.
type QueryCount struct {
	Query      string  `json:"query"`
	Count      int     `json:"count"`
	AvgResults float64 `json:"avgResults"`
}

// TopQueries returns the most frequent search queries in the last N days.
func (s *Store) TopQueries(ctx context.Context, days, limit int) ([]QueryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lower(trim(query)) AS q, COUNT(*) AS count, AVG(result_count) AS avg_results
		FROM search_events
		WHERE timestamp >= datetime('now', ? || ' days')
		AND trim(query) != ''
		GROUP BY q
		ORDER BY count DESC, q ASC
		LIMIT ?
	`, -days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top queries: %w", err)
	}
	defer rows.Close()

	return scanQueryCounts(rows)
}

// ZeroResultQueries returns the most frequent zero-result queries in the
// last N days.
func (s *Store) ZeroResultQueries(ctx context.Context, days, limit int) ([]QueryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lower(trim(query)) AS q, COUNT(*) AS count, 0 AS avg_results
		FROM zero_result_events
		WHERE timestamp >= datetime('now', ? || ' days')
		AND trim(query) != ''
		GROUP BY q
		ORDER BY count DESC, q ASC
		LIMIT ?
	`, -days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query zero-result queries: %w", err)
	}
	defer rows.Close()

	return scanQueryCounts(rows)
}

func scanQueryCounts(rows *sql.Rows) ([]QueryCount, error) {
	var counts []QueryCount
	for rows.Next() {
		var qc QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count, &qc.AvgResults); err != nil {
			return nil, fmt.Errorf("failed to scan query count: %w", err)
		}
		counts = append(counts, qc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query counts: %w", err)
	}
	return counts, nil
}

// EventCounts returns the total number of rows in each log stream.
func (s *Store) EventCounts(ctx context.Context) (searches, zeroes int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_events`).Scan(&searches); err != nil {
		return 0, 0, fmt.Errorf("failed to count search events: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zero_result_events`).Scan(&zeroes); err != nil {
		return 0, 0, fmt.Errorf("failed to count zero-result events: %w", err)
	}
	return searches, zeroes, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
