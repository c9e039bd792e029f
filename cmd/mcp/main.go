package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dogsub/Open-Source-TermP/common/id"
	"github.com/dogsub/Open-Source-TermP/common/logger"
	"github.com/dogsub/Open-Source-TermP/core/config"
	"github.com/dogsub/Open-Source-TermP/internal/mcp"
	"github.com/dogsub/Open-Source-TermP/internal/service"
)

// stdout carries the MCP protocol, so everything else goes to stderr.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeMCP)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg, os.Stderr)

	if err := id.Init(id.NodeMCP); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	if err := cfg.ValidateLLM(); err != nil {
		slog.WarnContext(ctx, "model credentials incomplete, affected steps will be skipped", "error", err)
	}

	analysis, err := service.NewAnalysisServiceFromConfig(ctx, cfg)
	if err != nil {
		slog.WarnContext(ctx, "analyze_repository disabled", "error", err)
	}

	slog.InfoContext(ctx, "termp mcp server starting")
	if err := mcp.NewServer(analysis).ServeStdio(); err != nil {
		slog.ErrorContext(ctx, "mcp server error", "error", err)
		os.Exit(1)
	}
}
