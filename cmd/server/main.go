package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damacus/iron-index/internal/config"
	"github.com/damacus/iron-index/internal/handlers"
	"github.com/damacus/iron-index/internal/logger"
	"github.com/damacus/iron-index/internal/metrics"
	customMiddleware "github.com/damacus/iron-index/internal/middleware"
	"github.com/damacus/iron-index/internal/renderer"
	"github.com/damacus/iron-index/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Version:       version,
		Use:           "iron-index",
		Short:         "Browse an S3 bucket as a file tree over HTTP",
		Long:          `iron-index serves the objects of an S3-compatible bucket as plain files and its prefixes as HTML directory listings.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.Flags().String("config", "", "config file path (default: ./iron-index.{toml,yaml})")
	cmd.Flags().String("address", "", "listen address (default: 127.0.0.1, env: IRON_INDEX_SERVER_ADDRESS)")
	cmd.Flags().Int("port", 0, "listen port (default: 8000, env: IRON_INDEX_SERVER_PORT)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error (env: IRON_INDEX_LOG_LEVEL)")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.OutOrStdout(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

// serve runs the gateway until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	m := metrics.New()

	store, err := services.NewMinioStore(cfg.Bucket)
	if err != nil {
		return fmt.Errorf("create object store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("bucket", store.Bucket()).Msg("bucket is not reachable yet")
	}
	cancel()

	resolver := services.NewResolver(
		services.InstrumentStore(store, m),
		services.WithLogger(log),
		services.WithObserver(m),
	)

	e := newServer(resolver, log, m)
	listener, err := net.Listen("tcp", cfg.Server.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.ListenAddr(), err)
	}
	e.Listener = listener

	servers := []*echo.Echo{e}
	errCh := make(chan error, 2)

	log.Info().Msgf("Serving contents from bucket %s at %s", cfg.Bucket.Name, cfg.Bucket.Endpoint)
	log.Info().Msgf("Listening on http://%s", listener.Addr())
	go func() { errCh <- e.Start("") }()

	if cfg.Metrics.Address != "" {
		ops := newOpsServer(m, store)
		servers = append(servers, ops)
		log.Info().Str("address", cfg.Metrics.Address).Msg("ops listener enabled")
		go func() { errCh <- ops.Start(cfg.Metrics.Address) }()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			shutdown(servers, log)
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdown(servers, log)
	return nil
}

func shutdown(servers []*echo.Echo, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}
}

func newServer(resolver handlers.PathResolver, log zerolog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(m.Middleware())
	e.Use(customMiddleware.SecurityHeaders())
	e.Use(logger.RequestLogger(log))

	// Template Renderer
	e.Renderer = renderer.New()

	// Every path is a key or a prefix in the bucket
	browseHandler := handlers.NewBrowseHandler(resolver)
	e.GET("/*", browseHandler.Browse)

	return e
}

// Pinger reports whether the object store can be reached.
type Pinger interface {
	Ping(ctx context.Context) error
}

// newOpsServer serves metrics and health checks on a separate listener so
// they never shadow object keys.
func newOpsServer(m *metrics.Metrics, store Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "object store unavailable")
		}
		return c.String(http.StatusOK, "OK")
	})

	return e
}
