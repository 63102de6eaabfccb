package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kurator/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const instructions = `Kurator answers questions about the Porsche 911 range from an indexed
document corpus. Use "ask" for a grounded answer with citations; it abstains
with a fixed sentence when the documents do not support an answer. Use
"retrieve" to inspect the ranked passages without generating an answer.`

// Server exposes the query engine to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates an MCP server over the query service in ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "kurator",
		Title:   "Kurator grounded answers",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: serverInstructions(ports)}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// serverInstructions appends the serving generation when a store is open.
func serverInstructions(ports *Ports) string {
	info, err := ports.Query.Info()
	if err != nil || info.Generation == "" {
		return instructions
	}
	return fmt.Sprintf("%s\n\nServing index generation %s (%d passages from %d sources).",
		instructions, info.Generation, info.Passages, info.Sources)
}

// Run serves over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.ServeHTTP(ctx, ln)
}

// ServeHTTP serves the streamable HTTP transport on ln until the context
// is cancelled, then shuts down gracefully.
func (s *Server) ServeHTTP(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Debug("MCP server on http://%s", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down MCP server: %w", err)
	}
	return <-errCh
}
