package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/pityka/tilth/internal/mcpserver"
	"github.com/pityka/tilth/pkg/config"
	"github.com/pityka/tilth/pkg/observability"
	"github.com/pityka/tilth/pkg/version"
)

// metricsServerReadHeaderTimeout bounds the optional /metrics HTTP server's
// header read, avoiding an unbounded-request-time footgun on an endpoint
// that's reachable from the local network by default.
const metricsServerReadHeaderTimeout = 10 * time.Second

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		edit        bool
		debug       bool
		configPath  string
		metricsAddr string
		scope       string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport,
exposing tilth_read, tilth_search, tilth_files, tilth_map, and tilth_session.
--edit additionally registers tilth_edit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if edit {
				cfg.Edit.Enabled = true
			}

			if metricsAddr != "" {
				cfg.OTEL.MetricsAddr = metricsAddr
			}

			providers, err := initMCPObservability(cfg, debug)
			if err != nil {
				return err
			}

			defer func() {
				if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			meter := providers.Meter

			if cfg.OTEL.MetricsAddr != "" {
				stopMetrics, promMeter, metricsErr := serveMetrics(cfg.OTEL.MetricsAddr, providers.Logger)
				if metricsErr != nil {
					return metricsErr
				}

				defer stopMetrics()

				meter = promMeter
			}

			red, err := observability.NewREDMetrics(meter)
			if err != nil {
				return err
			}

			deps := mcpserver.Deps{
				Logger: providers.Logger, Metrics: red, Tracer: providers.Tracer,
				Config: cfg, Scope: scope,
			}

			srv := mcpserver.NewServer(deps)

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&edit, "edit", false, "enable tilth_edit")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and always-on tracing")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a tilth config file (default: tilth.yaml searched in ., ./.tilth, /etc/tilth)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090); disabled by default")
	cmd.Flags().StringVar(&scope, "scope", ".", "root directory for the symbol index (not read by the server; the index is built under each tilth_search call's scope)")

	return cmd
}

func initMCPObservability(cfg *config.Config, debug bool) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = observability.ModeMCP
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.LogLevel = parseLevel(cfg.Logging.Level)
	obsCfg.OTLPEndpoint = firstNonEmpty(cfg.OTEL.Endpoint, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	obsCfg.OTLPInsecure = cfg.OTEL.Insecure || os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.OTLPHeaders = cfg.OTEL.Headers

	if obsCfg.OTLPHeaders == nil {
		obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	}

	if debug {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	return observability.Init(obsCfg)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

// serveMetrics starts the optional /metrics scrape endpoint and returns a
// function that shuts it down, plus a meter whose instruments the endpoint
// exports.
func serveMetrics(addr string, logger *slog.Logger) (func(), metric.Meter, error) {
	handler, mp, err := observability.PrometheusHandler()
	if err != nil {
		return nil, nil, fmt.Errorf("start metrics server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsServerReadHeaderTimeout,
	}

	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", serveErr)
		}
	}()

	return func() {
		_ = server.Shutdown(context.Background())
	}, mp.Meter("tilth"), nil
}
