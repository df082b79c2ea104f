// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/decknotes/internal/api"
	"github.com/starford/decknotes/internal/cardservice"
	"github.com/starford/decknotes/internal/index"
	"github.com/starford/decknotes/internal/mcpserver"
	"github.com/starford/decknotes/internal/session"
	"github.com/starford/decknotes/internal/sse"
	"github.com/starford/decknotes/internal/state"
	"github.com/starford/decknotes/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// Deck is an opened card service together with the resources it holds.
type Deck struct {
	Service *cardservice.Service
	db      *index.DB
}

// Close releases the database, if any.
func (d *Deck) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// NewLogger creates the structured JSON logger used by every command.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// OpenDeck wires storage, persistence, and the search index from cfg, loads
// saved state, and runs the initial scan.
func OpenDeck(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...cardservice.Option) (*Deck, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	deck := &Deck{}
	if cfg.SQLite.Enabled() {
		deck.db, err = index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		opts = append([]cardservice.Option{cardservice.WithIndex(deck.db)}, opts...)
	}

	var persist state.Store
	switch cfg.State.Driver {
	case StateDriverSQLite:
		persist = deck.db
	default:
		persist = state.NewJSONFile(cfg.State.Path)
	}

	opts = append([]cardservice.Option{cardservice.WithLogger(logger)}, opts...)
	deck.Service = cardservice.New(store, persist, cfg.Deck, opts...)

	if err := deck.Service.Load(ctx); err != nil {
		_ = deck.Close()
		return nil, err
	}
	if _, err := deck.Service.Scan(ctx); err != nil {
		_ = deck.Close()
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	return deck, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := NewLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("state_driver", cfg.State.Driver),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker receives service events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	deck, err := OpenDeck(ctx, cfg, logger, cardservice.WithEvents(broker.Notify))
	if err != nil {
		return err
	}
	defer deck.Close()
	svc := deck.Service

	sessions := session.NewManager(svc)
	apiRouter := api.NewRouter(svc, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"cards":    svc.Stats().Cards,
			"sessions": sessions.Len(),
		})
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Rescan when card documents change on disk.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			err := index.Watch(gCtx, cfg.Vault.Path, cfg.Watch.Debounce, logger, func(ctx context.Context, changed []string) {
				logger.Info("watcher: documents changed", slog.Int("count", len(changed)))
				if _, err := svc.Scan(ctx); err != nil && ctx.Err() == nil {
					logger.Error("watcher: rescan failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the deck over MCP on stdin/stdout. Logs go to the configured
// output (stderr by default) since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	logger := NewLogger(app.config, app.logOutput)
	slog.SetDefault(logger)

	deck, err := OpenDeck(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer deck.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(deck.Service, app.version).ServeStdio()
}
