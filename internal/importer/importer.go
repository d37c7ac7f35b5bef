// Package importer reads JSON-lines exports of the storefront's analytics
// feeds for loading into the event store. Malformed lines are logged and
// skipped rather than aborting the import; these are best-effort log feeds.
package importer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
)

// maxLineBytes bounds a single JSONL line. Anything larger is not a
// plausible analytics event.
const maxLineBytes = 1 << 20

// ReadSearchEvents reads a JSONL export of search events.
func ReadSearchEvents(r io.Reader, logger *log.Logger) ([]types.SearchEvent, error) {
	var events []types.SearchEvent
	err := eachLine(r, logger, "search event", func(line []byte) error {
		var ev types.SearchEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	return events, err
}

// ReadZeroResultEvents reads a JSONL export of zero-result events.
func ReadZeroResultEvents(r io.Reader, logger *log.Logger) ([]types.ZeroResultEvent, error) {
	var events []types.ZeroResultEvent
	err := eachLine(r, logger, "zero-result event", func(line []byte) error {
		var ev types.ZeroResultEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	return events, err
}

// ReadInventory reads a JSONL export of inventory items.
func ReadInventory(r io.Reader, logger *log.Logger) ([]types.InventoryItem, error) {
	var items []types.InventoryItem
	err := eachLine(r, logger, "inventory item", func(line []byte) error {
		var item types.InventoryItem
		if err := json.Unmarshal(line, &item); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

type conversionLine struct {
	Query string `json:"query"`
	types.ConversionStats
}

// ReadConversions reads a JSONL export of pre-aggregated conversion rows
// keyed by query. Later rows for the same query replace earlier ones.
func ReadConversions(r io.Reader, logger *log.Logger) (map[string]types.ConversionStats, error) {
	conversions := make(map[string]types.ConversionStats)
	err := eachLine(r, logger, "conversion row", func(line []byte) error {
		var row conversionLine
		if err := json.Unmarshal(line, &row); err != nil {
			return err
		}
		if row.Query == "" {
			return fmt.Errorf("missing query")
		}
		conversions[row.Query] = row.ConversionStats
		return nil
	})
	return conversions, err
}

func eachLine(r io.Reader, logger *log.Logger, kind string, parse func(line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := parse(line); err != nil {
			skipped++
			logger.Warn("Skipping malformed line",
				"kind", kind,
				"line", lineNo,
				"error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s feed: %w", kind, err)
	}
	if skipped > 0 {
		logger.Info("Import finished with skipped lines", "kind", kind, "skipped", skipped, "total", lineNo)
	}
	return nil
}
