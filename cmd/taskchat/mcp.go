package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/taskchat/taskchat/internal/adapter/mcp"
	"github.com/taskchat/taskchat/internal/adapter/postgres"
	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/service"
)

// runMCP serves the task tools over MCP stdio transport, for AI agents that
// manage todo lists directly instead of going through the chat endpoint.
func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// stdout belongs to the MCP transport from here on; logging moves to
	// stderr and quiets down to warnings.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	store := postgres.NewStore(pool)
	taskSvc := service.NewTaskService(store, nil, nil)

	s := mcp.NewServer(
		mcp.ServerConfig{Name: "taskchat", Version: version},
		mcp.ServerDeps{
			Executor:  service.NewToolExecutor(taskSvc),
			DemoOwner: cfg.Auth.DemoUser,
		},
	)
	return s.ServeStdio()
}
