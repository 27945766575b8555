package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zippuff/zippuff/internal/config"
	"github.com/zippuff/zippuff/internal/log"
	"github.com/zippuff/zippuff/internal/server"
	"github.com/zippuff/zippuff/internal/usps"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Long: `Run the REST API server exposing lookups over HTTP.

Endpoints:
  GET /health                 liveness check
  GET /api/zip-to-city        ?zipcode=<5-digit ZIP>
  GET /api/city-to-zip        ?city=<city>&state=<2-letter state>
  GET /api/validate-zip       ?zipcode=<ZIP>
  GET /api/config             non-secret configuration snapshot

The server starts even without USPS credentials; lookup endpoints then
answer 503 until credentials are configured. It shuts down gracefully
on SIGINT or SIGTERM, giving in-flight requests a grace period to
finish.

Examples:
  # Listen on the configured host and port (default 0.0.0.0:8080)
  zippuff serve

  # Override the listen address
  zippuff serve --host 127.0.0.1 --port 9090`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addConfigFlags(cmd)

	cmd.Flags().String("host", config.DefaultHost, "Listen address")
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Listen port")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		if cfg.Host, err = cmd.Flags().GetString("host"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("port") {
		if cfg.Port, err = cmd.Flags().GetInt("port"); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// The server logs access lines at info level; debug mode uses the
	// JSON handler for machine-readable logs.
	var logger *slog.Logger
	if cfg.Debug {
		logger = log.NewSecureJSONLogger(os.Stderr, true)
	} else {
		logger = log.NewSecureLogger(os.Stderr, true)
	}
	slog.SetDefault(logger)

	svc, closeSvc, err := newService(cfg, logger)
	if err != nil {
		if !errors.Is(err, config.ErrMissingCredentials) {
			return err
		}
		// Missing credentials keep the server up; each lookup answers
		// 503 until they are configured.
		logger.Warn("no USPS credentials configured, lookup endpoints will answer 503")
		svc = usps.NewUnavailableService(err)
		closeSvc = func() error { return nil }
	}
	defer closeSvc() //nolint:errcheck // Best effort cleanup

	handler := server.NewHandler(svc, server.ConfigInfo{
		TestMode:     cfg.TestMode,
		BaseURL:      svc.Status().BaseURL,
		CacheEnabled: cfg.CacheEnabled,
		Timeout:      cfg.Timeout.String(),
		Version:      getVersion(),
	})

	router := server.NewRouter(handler, logger,
		server.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	srv := server.New(router, server.Options{
		Addr:                net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		MaxConnections:      cfg.MaxConnections,
		ShutdownGracePeriod: cfg.ShutdownGracePeriod,
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting REST API",
		"host", cfg.Host,
		"port", cfg.Port,
		"client", svc.Status().Service,
		"test_mode", cfg.TestMode,
		"cache_enabled", cfg.CacheEnabled,
	)

	return srv.Run(ctx)
}
