package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/vortexpcsltd-afk/search-insights/internal/commands"
	"github.com/vortexpcsltd-afk/search-insights/internal/insights"
	"github.com/vortexpcsltd-afk/search-insights/internal/mcp"
)

type CLI struct {
	commands.CommonConfig
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

	s := mcp.New(eventStore, insights.New(logger), logger)
	return s.Run()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("insights-mcp-server"),
		kong.Description("Expose search insights as MCP tools over stdio"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
