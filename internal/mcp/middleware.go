package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware logs each request the server receives. Tool calls carry
// the tool name, and a tool result flagged as an error is logged at warn.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)

			level := slog.LevelInfo
			attrs := make([]slog.Attr, 0, 4)
			attrs = append(attrs, slog.String("method", method))
			if call, ok := req.(*sdkmcp.CallToolRequest); ok && call.Params != nil {
				attrs = append(attrs, slog.String("tool", call.Params.Name))
			}
			attrs = append(attrs, slog.Duration("took", time.Since(start)))

			switch res, _ := result.(*sdkmcp.CallToolResult); {
			case err != nil:
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", err.Error()))
			case res != nil && res.IsError:
				level = slog.LevelWarn
				attrs = append(attrs, slog.Bool("tool_error", true))
			}
			slog.LogAttrs(ctx, level, "mcp request", attrs...)
			return result, err
		}
	}
}
