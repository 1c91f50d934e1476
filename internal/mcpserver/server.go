// Package mcpserver wires tilth's internal engines to an MCP tool surface
// over stdio, mirroring the teacher's pkg/mcp server: a thin Server wrapping
// the SDK server, per-tool registration through generic withTracing/
// withMetrics decorators, and RED metrics keyed by tool name.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pityka/tilth/internal/bloomcache"
	"github.com/pityka/tilth/internal/outlinecache"
	"github.com/pityka/tilth/internal/session"
	"github.com/pityka/tilth/internal/symbolindex"
	"github.com/pityka/tilth/pkg/config"
	"github.com/pityka/tilth/pkg/observability"
)

const (
	serverName    = "tilth"
	serverVersion = "0.1.0"

	toolCountReadOnly = 5
	toolCountEdit     = 6
)

// Deps holds injectable dependencies for the MCP server.
type Deps struct {
	// Logger is an optional structured logger. Nil uses the SDK default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Config controls cache sizing, the read token budget, and whether
	// tilth_edit is registered.
	Config *config.Config

	// Scope is the value of the mcp command's --scope flag. NewServer does
	// not read it: the symbol index is built lazily, under the scope of the
	// first tilth_search call that asks for expansion.
	Scope string
}

// Server wraps the MCP SDK server with tilth's tool registrations and the
// shared engine state (caches, symbol index, session) every handler reads
// and writes.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer

	editMode bool
	cfg      *config.Config

	outlineCache *outlinecache.Cache
	bloomCache   *bloomcache.Cache
	symbolIndex  *symbolindex.Index
	sess         *session.Session
}

// NewServer creates a new MCP server with every tilth tool registered;
// tilth_edit is included only when deps.Config.Edit.Enabled is set.
func NewServer(deps Deps) *Server {
	cfg := deps.Config
	if cfg == nil {
		defaultCfg := config.Config{}
		cfg = &defaultCfg
	}

	editMode := cfg.Edit.Enabled

	instructions := readOnlyInstructions
	if editMode {
		instructions = editModeInstructions
	}

	opts := &mcpsdk.ServerOptions{Instructions: instructions}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: serverName, Version: serverVersion},
		opts,
	)

	toolCap := toolCountReadOnly
	if editMode {
		toolCap = toolCountEdit
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCap),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,

		editMode: editMode,
		cfg:      cfg,

		outlineCache: outlinecache.New(),
		bloomCache:   bloomcache.New(),
		symbolIndex:  symbolindex.New(),
		sess:         session.New(),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	if err := s.inner.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	s.registerReadTool()
	s.registerSearchTool()
	s.registerFilesTool()
	s.registerMapTool()
	s.registerSessionTool()

	if s.editMode {
		s.registerEditTool()
	}
}

func (s *Server) registerReadTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRead,
		Description: readToolDescription,
	}, withMetrics(s.metrics, ToolNameRead, withTracing(s.tracer, ToolNameRead, s.handleRead)))

	s.trackTool(ToolNameRead)
}

func (s *Server) registerSearchTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSearch,
		Description: searchToolDescription,
	}, withMetrics(s.metrics, ToolNameSearch, withTracing(s.tracer, ToolNameSearch, s.handleSearch)))

	s.trackTool(ToolNameSearch)
}

func (s *Server) registerFilesTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFiles,
		Description: filesToolDescription,
	}, withMetrics(s.metrics, ToolNameFiles, withTracing(s.tracer, ToolNameFiles, s.handleFiles)))

	s.trackTool(ToolNameFiles)
}

func (s *Server) registerMapTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameMap,
		Description: mapToolDescription,
	}, withMetrics(s.metrics, ToolNameMap, withTracing(s.tracer, ToolNameMap, s.handleMap)))

	s.trackTool(ToolNameMap)
}

func (s *Server) registerSessionTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSession,
		Description: sessionToolDescription,
	}, withMetrics(s.metrics, ToolNameSession, withTracing(s.tracer, ToolNameSession, s.handleSession)))

	s.trackTool(ToolNameSession)
}

func (s *Server) registerEditTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameEdit,
		Description: editToolDescription,
	}, withMetrics(s.metrics, ToolNameEdit, withTracing(s.tracer, ToolNameEdit, s.handleEdit)))

	s.trackTool(ToolNameEdit)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// mcpSpanPrefix prefixes every tool-call span name.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the key under which a sampled span's trace_id is
// appended to a tool response.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per
// invocation and appends trace_id to the response when the span is sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content, &mcpsdk.TextContent{
				Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String()),
			})
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}
