package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the enrich_presentation and
// list_layouts tools registered.
func NewServer(svc *EnrichService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "deckenrich",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "enrich_presentation",
		Description: "Generate text, charts, images and diagrams for every slide of a presentation outline in parallel, validate the result against each slide's layout and return the enriched presentation with a summary.",
	}, svc.Enrich)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_layouts",
		Description: "List the built-in slide layouts and their required fields.",
	}, svc.ListLayouts)

	return server
}

// RunStdio serves on stdio until stdin closes or ctx is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
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

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
