package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/vortexpcsltd-afk/search-insights/internal/commands"
	"github.com/vortexpcsltd-afk/search-insights/internal/insights"
	"github.com/vortexpcsltd-afk/search-insights/internal/notify"
	"github.com/vortexpcsltd-afk/search-insights/internal/types"
	"golang.org/x/sync/errgroup"
)

type CLI struct {
	commands.CommonConfig

	Days       int    `help:"Number of days of logs to analyze" default:"30"`
	Output     string `help:"Write the report to this file instead of stdout" type:"path"`
	WebhookURL string `help:"Deliver the report to this webhook after generation" env:"INSIGHTS_WEBHOOK_URL"`
	Compact    bool   `help:"Emit compact JSON instead of indented" default:"false"`
}

func (c *CLI) Run() error {
	logger, err := c.SetupLogger()
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	eventStore, err := c.SetupStore(logger)
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer eventStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// The side inputs are independent reads; fetch them concurrently. The
	// engine itself stays single-threaded.
	var inventory []types.InventoryItem
	var conversions map[string]types.ConversionStats
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inventory, err = eventStore.Inventory(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		conversions, err = eventStore.Conversions(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load side inputs: %w", err)
	}

	engine := insights.New(logger)
	report, err := engine.Generate(ctx, eventStore, insights.Options{
		WindowDays:  c.Days,
		Inventory:   inventory,
		Conversions: conversions,
	})
	if err != nil {
		return fmt.Errorf("failed to generate insights: %w", err)
	}

	var b []byte
	if c.Compact {
		b, err = json.Marshal(report)
	} else {
		b, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, append(b, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Wrote insights report", "path", c.Output)
	} else {
		fmt.Println(string(b))
	}

	// Delivery is best-effort: a generated report on stdout is still useful
	// when the webhook is down.
	if c.WebhookURL != "" {
		notifier, err := notify.NewWebhookNotifier(notify.NewConfig().
			WithURL(c.WebhookURL).
			WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to configure webhook: %w", err)
		}
		if err := notifier.Send(ctx, report); err != nil {
			logger.Warn("Failed to deliver report", "error", err)
		}
	}

	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("search-insights"),
		kong.Description("Generate merchandising recommendations from site-search analytics"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
