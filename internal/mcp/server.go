// Package mcp serves the record log to MCP clients.
package mcp

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/mcp/tools"
)

// Version is reported to MCP clients.
const Version = "0.3.0"

const instructions = "Inspect HTTP exchanges captured from the host application. " +
	"Start with httpinspect_list_records, then drill into one record_id with the body tools. " +
	"Records are also readable as resources at " + tools.RecordURIPrefix + "{record_id}."

// Server exposes the record log as MCP tools and resources.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	builtins      bool
	registrations []func(*sdkmcp.Server)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithBuiltinTools registers the httpinspect tools and the record resource.
func WithBuiltinTools() ServerOption {
	return func(s *Server) { s.builtins = true }
}

// WithCustomRegistration runs fn against the underlying MCP server after the
// builtins are registered, so it can add tools, prompts or resources.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) { s.registrations = append(s.registrations, fn) }
}

// NewServer builds a Server over deps.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, errors.New("mcp: deps is required")
	}
	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "httpinspect", Version: Version},
		&sdkmcp.ServerOptions{Instructions: instructions},
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.builtins {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	for _, fn := range s.registrations {
		fn(s.mcpServer)
	}
	return s, nil
}

// Run serves MCP over stdio until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &sdkmcp.StdioTransport{})
}

// Serve serves one MCP session over t.
func (s *Server) Serve(ctx context.Context, t sdkmcp.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
