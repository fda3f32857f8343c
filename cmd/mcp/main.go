package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/lost-time-companion/internal/bootstrap"
	"github.com/kirillkom/lost-time-companion/internal/config"
	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
	"github.com/kirillkom/lost-time-companion/internal/observability/logging"
)

const searchToolName = "search_lost_time"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp")
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := server.ServeStdio(newServer(app.Retriever)); err != nil {
		logger.Error("mcp_server_failed", "error", err)
	}
}

func newServer(retriever ports.PassageRetriever) *server.MCPServer {
	s := server.NewMCPServer("lost-time-companion", "1.0.0", server.WithToolCapabilities(false))
	tool := mcp.NewTool(searchToolName,
		mcp.WithDescription("Find up to two passages of In Search of Lost Time relevant to a query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text question or theme, e.g. 'memory and the sea'."),
		),
	)
	s.AddTool(tool, searchHandler(retriever))
	return s
}

func searchHandler(retriever ports.PassageRetriever) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := retriever.Retrieve(ctx, query)
		if err != nil {
			slog.ErrorContext(ctx, "mcp_search_failed", "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if result.Empty() {
			return mcp.NewToolResultText(domain.NoPassagesFound), nil
		}
		return mcp.NewToolResultText(domain.RenderPassages(result.Passages)), nil
	}
}
