// Package inspector records the HTTP traffic of the program it is linked into
// and presents it for inspection.
//
// An Inspector owns a record log fed by a RoundTripper decorator installed on
// an http.Client, an index over that log, and a presentation surface: an MCP
// server on stdio, or structured log lines.
//
// # Basic Usage
//
//	insp, err := inspector.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer insp.Close()
//	insp.Start() // instrument http.DefaultClient
//
//	go insp.Run(ctx)
//	resp, err := http.Get("https://api.example.com/items")
//
// # Extension
//
// Add custom MCP tools that read the record log through Deps:
//
//	insp, err := inspector.New(
//	    inspector.WithDepsTool(
//	        &mcp.Tool{Name: "slow_requests", Description: "List slow exchanges"},
//	        func(d *inspector.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in SlowInput) (*mcp.CallToolResult, SlowOutput, error) {
//	            ...
//	        },
//	    ),
//	)
//
// # Configuration
//
// Settings come from the environment (HTTPINSPECT_MAX_RECORDS,
// PRESENTATION, LOG_LEVEL and others) and can be overridden with options:
//
//	insp, err := inspector.New(
//	    inspector.WithHTTPClient(apiClient),
//	    inspector.WithMaxRecords(200),
//	    inspector.WithPresentation(inspector.PresentationLog),
//	)
package inspector
