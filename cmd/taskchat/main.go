// taskchat is the Todo chatbot backend: a REST API and chat turn
// orchestrator backed by PostgreSQL, with optional NATS event fan-out.
//
// Usage:
//
//	taskchat [serve]   # start the HTTP server (default)
//	taskchat migrate   # run schema migrations
//	taskchat admin     # user administration
//	taskchat mcp       # serve task tools over MCP stdio
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go/jetstream"

	tchttp "github.com/taskchat/taskchat/internal/adapter/http"
	tcnats "github.com/taskchat/taskchat/internal/adapter/nats"
	"github.com/taskchat/taskchat/internal/adapter/natskv"
	"github.com/taskchat/taskchat/internal/adapter/openai"
	tcotel "github.com/taskchat/taskchat/internal/adapter/otel"
	"github.com/taskchat/taskchat/internal/adapter/postgres"
	"github.com/taskchat/taskchat/internal/adapter/ristretto"
	"github.com/taskchat/taskchat/internal/adapter/tiered"
	"github.com/taskchat/taskchat/internal/adapter/ws"
	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/logger"
	"github.com/taskchat/taskchat/internal/middleware"
	"github.com/taskchat/taskchat/internal/port/a2a"
	"github.com/taskchat/taskchat/internal/port/cache"
	"github.com/taskchat/taskchat/internal/port/messagequeue"
	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/resilience"
	"github.com/taskchat/taskchat/internal/service"
)

const version = "1.0.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = run()
	case "migrate":
		err = runMigrate(args)
	case "admin":
		err = runAdmin(args)
	case "mcp":
		err = runMCP(args)
	case "version", "--version", "-v":
		fmt.Printf("taskchat v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		printUsage()
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		slog.Error("fatal", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: taskchat [command]

Commands:
  serve      Start the HTTP server (default)
  migrate    Run schema migrations (up, down, version)
  admin      User administration (create-user, reset-password, list-users)
  mcp        Serve the task tools over MCP stdio transport
  version    Print the version
  help       Show this help message
`)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logClose := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logClose.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"history_limit", cfg.Chat.HistoryLimit,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Telemetry ---

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := tcotel.Init(ctx, cfg.Telemetry, version)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(flushCtx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
		slog.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	// Run migrations
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS is optional. Without it the service runs with turn events and
	// the shared replay cache disabled.
	var queue messagequeue.Queue
	var js jetstream.JetStream
	if cfg.NATS.URL != "" {
		q, err := tcnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q
		js = q.JetStream()
	}

	// Idempotency replay cache: in-process L1, NATS KV L2 when available.
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("replay cache: %w", err)
	}
	defer l1.Close()
	var replay cache.Cache = l1
	if js != nil {
		l2, err := natskv.Open(ctx, js, cfg.Cache.L2Bucket, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("replay kv bucket: %w", err)
		}
		replay = tiered.New(l1, l2, cfg.Cache.TTL)
	}

	// --- Reasoning backend ---

	var provider reasoning.Provider
	if client := openai.Resolve(cfg.Reasoning); client != nil {
		client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		provider = client
		slog.Info("reasoning provider resolved", "provider", client.Name(), "model", client.Model())
	} else {
		slog.Warn("no reasoning provider configured, chat turns will fail until an API key is set")
	}

	// --- Services ---

	hub := ws.NewHub()
	defer hub.Shutdown()

	store := postgres.NewStore(pool)
	authSvc := service.NewAuthService(store, cfg.Auth)
	taskSvc := service.NewTaskService(store, queue, hub)
	convSvc := service.NewConversationService(store)

	turnSvc, err := service.NewTurnService(store, provider, service.NewToolExecutor(taskSvc), cfg.Chat, cfg.Reasoning)
	if err != nil {
		return fmt.Errorf("turn service: %w", err)
	}
	turnSvc.SetQueue(queue)
	turnSvc.SetBroadcaster(hub)
	if cfg.Telemetry.Enabled {
		metrics, err := tcotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		turnSvc.SetMetrics(metrics)
	}

	// --- HTTP ---

	handlers := &tchttp.Handlers{
		Tasks:         taskSvc,
		Turns:         turnSvc,
		Conversations: convSvc,
		Auth:          authSvc,
		DB:            pool,
		Queue:         queue,
		Provider:      provider,
		Version:       version,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(tchttp.SecurityHeaders)
	r.Use(tchttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tchttp.Logger)
	if cfg.Telemetry.Enabled {
		r.Use(tcotel.HTTPMiddleware(cfg.Telemetry.ServiceName))
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	defer limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)()
	r.Use(limiter.Handler)

	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	// WebSocket endpoint. Identity comes from the token query parameter,
	// or the demo owner when none is presented.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authSvc, cfg.Auth.DemoUser))
		r.Get("/ws", hub.HandleWS)
	})

	// Agent-to-agent surface
	a2a.NewHandler(publicBaseURL(cfg.Server), version, cfg.Auth.DemoUser, turnSvc).MountRoutes(r)

	// API routes
	tchttp.MountRoutes(r, handlers, cfg.Auth, replay, cfg.Cache.TTL)

	addr := cfg.Server.Host + ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// publicBaseURL derives the base URL advertised on the agent card. The
// wildcard bind address is not reachable by peers, so it is advertised as
// localhost.
func publicBaseURL(cfg config.Server) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + host + ":" + cfg.Port
}

// runMigrate dispatches migration subcommands (up, down, version).
func runMigrate(args []string) error {
	sub := "up"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx := context.Background()

	switch sub {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Fprintln(os.Stderr, "migrations applied")
		return nil
	case "down":
		fs := flag.NewFlagSet("down", flag.ContinueOnError)
		steps := fs.Int("steps", 1, "number of migrations to roll back")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintf(os.Stderr, "rolled back %d migration(s)\n", *steps)
		return nil
	case "version", "status":
		v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		fmt.Printf("%d\n", v)
		return nil
	default:
		return fmt.Errorf("unknown migrate command: %s (want up, down, or version)", sub)
	}
}
