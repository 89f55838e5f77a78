package inspector

import (
	"context"
	"net/http"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/config"
)

// Presentation surfaces selectable with WithPresentation.
const (
	PresentationMCP = config.PresentationMCP
	PresentationLog = config.PresentationLog
)

// inspectorConfig holds configuration built from options.
type inspectorConfig struct {
	config     *config.Config
	httpClient *http.Client

	// Logging overrides
	logLevel string
	logFile  string

	// Extension toggles
	disableBuiltinTools bool

	// Custom extensions - registration callbacks that preserve generic type info
	registrations []func(*mcp.Server)

	// Deferred tool registrations that need access to Deps
	deferredToolRegistrations []func(*mcp.Server, *Deps)
}

// Option configures an Inspector.
type Option func(*inspectorConfig)

// WithHTTPClient selects the client Start instruments. The default is
// http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *inspectorConfig) {
		cfg.httpClient = c
	}
}

// WithMaxRecords bounds the record log; the oldest records are evicted
// first. Zero or less keeps every record.
func WithMaxRecords(n int) Option {
	return func(cfg *inspectorConfig) {
		cfg.config.MaxRecords = n
	}
}

// WithMaxBodyBytes caps how much of each body is captured.
func WithMaxBodyBytes(n int) Option {
	return func(cfg *inspectorConfig) {
		cfg.config.MaxBodyBytes = n
	}
}

// WithPresentation selects how Run presents the log: PresentationMCP or
// PresentationLog. Unknown values are ignored.
func WithPresentation(p string) Option {
	return func(cfg *inspectorConfig) {
		if p == PresentationMCP || p == PresentationLog {
			cfg.config.Presentation = p
		}
	}
}

// WithIndexRefreshInterval sets how often Run folds log changes into the
// search index.
func WithIndexRefreshInterval(d time.Duration) Option {
	return func(cfg *inspectorConfig) {
		cfg.config.IndexRefreshInterval = d
	}
}

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *inspectorConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile sets the log file path.
// If empty, logs are written to stderr only.
func WithLogFile(path string) Option {
	return func(cfg *inspectorConfig) {
		cfg.logFile = path
	}
}

// WithoutBuiltinTools disables all builtin httpinspect tools and resources.
// Use this if you want to register only your own tools.
func WithoutBuiltinTools() Option {
	return func(cfg *inspectorConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithTool registers a custom tool with the MCP server.
//
// The handler signature must match the MCP SDK pattern:
//
//	func(ctx context.Context, req *mcp.CallToolRequest, input T) (*mcp.CallToolResult, Out, error)
//
// Where T is the input type (will be unmarshaled from JSON) and Out is the
// output type (will be marshaled to JSON).
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *inspectorConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a custom tool that has access to Deps.
// Use this when your tool needs the record log, search, or tree cache.
//
// The builder receives Deps and returns a handler function.
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *inspectorConfig) {
		cfg.deferredToolRegistrations = append(cfg.deferredToolRegistrations, func(srv *mcp.Server, deps *Deps) {
			AddTool(srv, tool, builder(deps))
		})
	}
}

// WithPrompt registers a custom prompt with the MCP server.
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *inspectorConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a custom resource template with the MCP
// server.
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *inspectorConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
