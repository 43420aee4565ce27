package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/cardflow/internal/config"
	httpadapter "github.com/aretw0/cardflow/pkg/adapters/http"
	mcpadapter "github.com/aretw0/cardflow/pkg/adapters/mcp"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/aretw0/cardflow/pkg/session"
)

// NewSessions builds the session manager over the backend. Extra options
// are applied last.
func NewSessions(b *Backend, logger *slog.Logger, hooks domain.EditorHooks, opts ...session.Option) *session.Manager {
	base := []session.Option{
		session.WithLogger(logger),
		session.WithHooks(hooks),
	}
	if b.Locker != nil {
		base = append(base, session.WithLocker(b.Locker))
	}
	return session.NewManager(b.Store, append(base, opts...)...)
}

// BuildHandler wires sessions, SSE streams and metrics into the HTTP handler.
func BuildHandler(cfg *config.Config, b *Backend, logger *slog.Logger) http.Handler {
	streams := httpadapter.NewStreamManager(logger)
	hooks := observability.LoggingHooks(logger)

	var metrics *observability.Metrics
	if cfg.Metrics {
		metrics = observability.NewMetrics()
		hooks = hooks.Chain(metrics.Hooks())
	}

	mgr := NewSessions(b, logger, hooks, session.WithOnSaved(streams.PublishDiff))
	return httpadapter.NewHandler(mgr,
		httpadapter.WithStreams(streams),
		httpadapter.WithMetrics(metrics),
		httpadapter.WithLogger(logger),
	)
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, cfg *config.Config, b *Backend, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           BuildHandler(cfg, b, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr, "store", cfg.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			if cerr := srv.Close(); cerr != nil {
				logger.Error("error killing server", "err", cerr)
			}
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	}
}

// ServeMCP exposes the backend over MCP. An empty addr serves stdio.
func ServeMCP(ctx context.Context, b *Backend, logger *slog.Logger, addr string) error {
	mgr := NewSessions(b, logger, observability.LoggingHooks(logger))
	srv := mcpadapter.NewServer(mgr, mcpadapter.WithLogger(logger))
	if addr == "" {
		return srv.ServeStdio()
	}
	return srv.ServeSSE(ctx, addr)
}
