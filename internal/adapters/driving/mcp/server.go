// Package mcp exposes the knowledge base over the Model Context
// Protocol, so external MCP clients can search and read ingested
// documents.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingVectorStore is returned when no vector store is provided.
var ErrMissingVectorStore = errors.New("mcp: vector store is required")

// Server is the MCP server for the knowledge base.
type Server struct {
	vectors driven.VectorStore
	server  *mcp.Server
}

// NewServer creates an MCP server over the given vector store.
func NewServer(vectors driven.VectorStore) (*Server, error) {
	if vectors == nil {
		return nil, ErrMissingVectorStore
	}

	impl := &mcp.Implementation{
		Name:    "centerbot",
		Version: Version,
	}

	s := &Server{
		vectors: vectors,
		server:  mcp.NewServer(impl, nil),
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
