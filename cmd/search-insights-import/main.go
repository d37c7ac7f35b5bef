package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/vortexpcsltd-afk/search-insights/internal/commands"
	"github.com/vortexpcsltd-afk/search-insights/internal/importer"
	"github.com/vortexpcsltd-afk/search-insights/internal/store"
)

// insertBatchSize is the number of rows written per transaction.
const insertBatchSize = 500

type CLI struct {
	commands.CommonConfig

	SearchEvents string `help:"Path to a search events JSONL export" type:"existingfile"`
	ZeroResults  string `help:"Path to a zero-result events JSONL export" type:"existingfile"`
	Inventory    string `help:"Path to an inventory snapshot JSONL export" type:"existingfile"`
	Conversions  string `help:"Path to a conversion summary JSONL export" type:"existingfile"`
	NoProgress   bool   `help:"Disable progress bar" default:"false"`
}

func (c *CLI) Run() error {
	logger, err := c.SetupLogger()
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if c.SearchEvents == "" && c.ZeroResults == "" && c.Inventory == "" && c.Conversions == "" {
		return fmt.Errorf("nothing to import: provide at least one feed file")
	}

	eventStore, err := c.SetupStore(logger)
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer eventStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if c.SearchEvents != "" {
		if err := c.importSearchEvents(ctx, eventStore, logger); err != nil {
			return err
		}
	}
	if c.ZeroResults != "" {
		if err := c.importZeroResultEvents(ctx, eventStore, logger); err != nil {
			return err
		}
	}
	if c.Inventory != "" {
		if err := c.importInventory(ctx, eventStore, logger); err != nil {
			return err
		}
	}
	if c.Conversions != "" {
		if err := c.importConversions(ctx, eventStore, logger); err != nil {
			return err
		}
	}

	searches, zeroes, err := eventStore.EventCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}
	logger.Info("Import complete", "search_events", searches, "zero_result_events", zeroes)
	return nil
}

func (c *CLI) importSearchEvents(ctx context.Context, eventStore *store.Store, logger *log.Logger) error {
	file, err := os.Open(c.SearchEvents)
	if err != nil {
		return fmt.Errorf("failed to open search events file: %w", err)
	}
	defer file.Close()

	events, err := importer.ReadSearchEvents(file, logger)
	if err != nil {
		return fmt.Errorf("failed to read search events: %w", err)
	}

	progress := c.newProgress(len(events))
	defer progress.Close()

	for start := 0; start < len(events); start += insertBatchSize {
		end := min(start+insertBatchSize, len(events))
		n, err := eventStore.InsertSearchEvents(ctx, events[start:end])
		if err != nil {
			return fmt.Errorf("failed to insert search events: %w", err)
		}
		if err := progress.Add(n); err != nil {
			logger.Warn("Failed to update progress", "error", err)
		}
	}

	logger.Info("Imported search events", "count", len(events))
	return nil
}

func (c *CLI) importZeroResultEvents(ctx context.Context, eventStore *store.Store, logger *log.Logger) error {
	file, err := os.Open(c.ZeroResults)
	if err != nil {
		return fmt.Errorf("failed to open zero-result events file: %w", err)
	}
	defer file.Close()

	events, err := importer.ReadZeroResultEvents(file, logger)
	if err != nil {
		return fmt.Errorf("failed to read zero-result events: %w", err)
	}

	progress := c.newProgress(len(events))
	defer progress.Close()

	for start := 0; start < len(events); start += insertBatchSize {
		end := min(start+insertBatchSize, len(events))
		n, err := eventStore.InsertZeroResultEvents(ctx, events[start:end])
		if err != nil {
			return fmt.Errorf("failed to insert zero-result events: %w", err)
		}
		if err := progress.Add(n); err != nil {
			logger.Warn("Failed to update progress", "error", err)
		}
	}

	logger.Info("Imported zero-result events", "count", len(events))
	return nil
}

func (c *CLI) importInventory(ctx context.Context, eventStore *store.Store, logger *log.Logger) error {
	file, err := os.Open(c.Inventory)
	if err != nil {
		return fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer file.Close()

	items, err := importer.ReadInventory(file, logger)
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}
	if err := eventStore.ReplaceInventory(ctx, items); err != nil {
		return fmt.Errorf("failed to replace inventory: %w", err)
	}

	logger.Info("Imported inventory snapshot", "items", len(items))
	return nil
}

func (c *CLI) importConversions(ctx context.Context, eventStore *store.Store, logger *log.Logger) error {
	file, err := os.Open(c.Conversions)
	if err != nil {
		return fmt.Errorf("failed to open conversions file: %w", err)
	}
	defer file.Close()

	conversions, err := importer.ReadConversions(file, logger)
	if err != nil {
		return fmt.Errorf("failed to read conversions: %w", err)
	}
	if err := eventStore.UpsertConversions(ctx, conversions); err != nil {
		return fmt.Errorf("failed to upsert conversions: %w", err)
	}

	logger.Info("Imported conversion summary", "queries", len(conversions))
	return nil
}

func (c *CLI) newProgress(total int) importer.Progress {
	if c.NoProgress || total == 0 {
		return importer.NewNoopProgress()
	}
	return importer.NewBarProgress(total)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("search-insights-import"),
		kong.Description("Import storefront search analytics exports into the event store"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
