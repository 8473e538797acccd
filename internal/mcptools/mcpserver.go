package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewContentMCPServer creates an MCP server with the 3 content tools
// registered: generate_pages, validate_product, and get_last_run.
func NewContentMCPServer(svc *ContentService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "contentgen",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_pages",
		Description: "Run the full content pipeline for a product record. Generates FAQ, product page and comparison page bundles, gated on quality checks, and writes them as JSON files.",
	}, svc.GeneratePages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_product",
		Description: "Normalize a raw product record (mapping free-form field names) and validate the required fields, without running the pipeline.",
	}, svc.ValidateProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_last_run",
		Description: "Summarize the most recent pipeline run: phase, logs, and any errors.",
	}, svc.GetLastRun)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP starts an HTTP server exposing the content tools.
func RunMCPServerHTTP(ctx context.Context, svc *ContentService, addr string) error {
	server := NewContentMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
