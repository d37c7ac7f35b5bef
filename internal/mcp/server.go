package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vortexpcsltd-afk/search-insights/internal/insights"
	"github.com/vortexpcsltd-afk/search-insights/internal/store"
)

type Server struct {
	store  *store.Store
	engine *insights.Engine
	logger *log.Logger
}

func New(store *store.Store, engine *insights.Engine, logger *log.Logger) *Server {
	return &Server{
		store:  store,
		engine: engine,
		logger: logger,
	}
}

func (s *Server) Run() error {
	// Create MCP server
	mcpServer := server.NewMCPServer(
		"Search Insights",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("generate_search_insights",
		mcp.WithDescription("Generate the merchandising insights report: missing products, underperforming categories, quick wins and spelling clusters"),
		mcp.WithString("days",
			mcp.Description("Number of days to look back (default: 30)"),
		),
	), s.generateInsightsHandler)

	mcpServer.AddTool(mcp.NewTool("top_queries",
		mcp.WithDescription("List the most frequent search queries with their average result counts"),
		mcp.WithString("days",
			mcp.Required(),
			mcp.Description("Number of days to look back"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of queries to return (default: 20)"),
		),
	), s.topQueriesHandler)

	mcpServer.AddTool(mcp.NewTool("zero_result_queries",
		mcp.WithDescription("List the most frequent searches that returned no results"),
		mcp.WithString("days",
			mcp.Required(),
			mcp.Description("Number of days to look back"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of queries to return (default: 20)"),
		),
	), s.zeroResultQueriesHandler)

	// Start the stdio server
	if err := server.ServeStdio(mcpServer); err != nil {
		return err
	}

	return nil
}

func (s *Server) generateInsightsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := 30
	if daysVal, ok := request.Params.Arguments["days"]; ok {
		var err error
		days, err = intArg(daysVal)
		if err != nil {
			return nil, fmt.Errorf("days must be a valid integer: %w", err)
		}
	}

	inventory, err := s.store.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	conversions, err := s.store.Conversions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversions: %w", err)
	}

	report, err := s.engine.Generate(ctx, s.store, insights.Options{
		WindowDays:  days,
		Inventory:   inventory,
		Conversions: conversions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) topQueriesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := intArg(request.Params.Arguments["days"])
	if err != nil {
		return nil, fmt.Errorf("days must be a valid integer: %w", err)
	}

	limit := 20
	if limitVal, ok := request.Params.Arguments["limit"]; ok {
		limit, err = intArg(limitVal)
		if err != nil {
			return nil, fmt.Errorf("limit must be a valid integer: %w", err)
		}
	}

	counts, err := s.store.TopQueries(ctx, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top queries: %w", err)
	}

	result := fmt.Sprintf("Top Search Queries (Last %d days)\n\n", days)
	for _, qc := range counts {
		result += fmt.Sprintf("%-40s %d searches, %.1f avg results\n", qc.Query, qc.Count, qc.AvgResults)
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) zeroResultQueriesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := intArg(request.Params.Arguments["days"])
	if err != nil {
		return nil, fmt.Errorf("days must be a valid integer: %w", err)
	}

	limit := 20
	if limitVal, ok := request.Params.Arguments["limit"]; ok {
		limit, err = intArg(limitVal)
		if err != nil {
			return nil, fmt.Errorf("limit must be a valid integer: %w", err)
		}
	}

	counts, err := s.store.ZeroResultQueries(ctx, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list zero-result queries: %w", err)
	}

	result := fmt.Sprintf("Zero-Result Queries (Last %d days)\n\n", days)
	for _, qc := range counts {
		result += fmt.Sprintf("%-40s %d searches\n", qc.Query, qc.Count)
	}

	return mcp.NewToolResultText(result), nil
}

// intArg coerces a tool argument into an int; MCP clients variously send
// numbers and strings.
func intArg(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case float64:
		return int(val), nil
	case string:
		return strconv.Atoi(val)
	default:
		return 0, errors.New("must be a number or string")
	}
}
