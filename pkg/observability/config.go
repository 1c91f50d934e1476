package observability

import "log/slog"

// defaultShutdownTimeoutSec bounds how long Shutdown waits for exporters to flush.
const defaultShutdownTimeoutSec = 5

// AppMode identifies which tilth entry point is running, attached to every
// span and log line as "mode" so a shared OTEL backend can separate MCP
// server traffic from one-shot CLI invocations.
type AppMode string

// Recognized application modes.
const (
	ModeCLI AppMode = "cli"
	ModeMCP AppMode = "mcp"
)

// Config controls OpenTelemetry and logging setup. The zero value is not
// directly usable — call DefaultConfig and override fields as needed.
type Config struct {
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string

	// ServiceVersion is the OTel service.version resource attribute, typically
	// the build version reported by pkg/version.
	ServiceVersion string

	// Environment is the OTel deployment.environment resource attribute.
	Environment string

	// Mode tags spans and logs with the running entry point (cli or mcp).
	Mode AppMode

	// LogLevel is the minimum slog level emitted.
	LogLevel slog.Level

	// LogJSON selects JSON log output; false uses human-readable text.
	LogJSON bool

	// OTLPEndpoint is the gRPC OTLP collector address. Empty disables export —
	// tracer and meter providers fall back to no-op implementations.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// OTLPHeaders are extra gRPC metadata headers sent with every export
	// (e.g. authentication for a hosted collector).
	OTLPHeaders map[string]string

	// DebugTrace forces an always-on sampler, bypassing SampleRatio and
	// OTEL_TRACES_SAMPLER, and makes the attribute filter log each blocked
	// attribute key as a warning.
	DebugTrace bool

	// TraceVerbose disables the attribute filter even when exporting, so
	// every span attribute reaches the collector unfiltered.
	TraceVerbose bool

	// SampleRatio is the trace sampling ratio in (0, 1] used when no
	// OTEL_TRACES_SAMPLER env override and DebugTrace is false. Zero selects
	// the default always-on parent-based sampler.
	SampleRatio float64

	// ShutdownTimeoutSec bounds the exporter flush on Shutdown. Zero uses
	// defaultShutdownTimeoutSec.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config that is safe to use as-is: no OTLP export
// (no-op providers), info-level text logging, CLI mode.
func DefaultConfig() Config {
	return Config{
		ServiceName:        "tilth",
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
