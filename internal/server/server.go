// Package server exposes OpenAPI endpoints as MCP tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/logger"
	"github.com/brizzai/swapi/internal/parser"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/brizzai/swapi/internal/server/handler"
	"github.com/brizzai/swapi/internal/server/tool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server is the MCP server. It registers one tool per parsed endpoint and
// serves them over SSE, streamable HTTP or STDIO.
type Server struct {
	config    *config.Config
	parser    parser.Parser
	mcp       *mcpserver.MCPServer
	requester *requester.Requester
	handler   *handler.Handler
	tool      *tool.Handler
}

// NewServer parses the configured OpenAPI document and registers its tools
func NewServer(cfg *config.Config, p parser.Parser, r *requester.Requester) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if p == nil {
		return nil, errors.New("parser cannot be nil")
	}
	if r == nil {
		return nil, errors.New("requester cannot be nil")
	}

	srv := &Server{
		config:    cfg,
		parser:    p,
		mcp:       mcpserver.NewMCPServer(cfg.Server.Name, cfg.Server.Version),
		requester: r,
		handler:   handler.NewHandler(cfg.Server.CORS),
		tool:      tool.NewHandler(r),
	}

	if err := srv.setupTools(); err != nil {
		return nil, err
	}
	return srv, nil
}

func (s *Server) setupTools() error {
	if err := s.parser.Init(s.config.OpenAPIFile, s.config.AdjustmentsFile); err != nil {
		return fmt.Errorf("failed to initialize parser: %w", err)
	}

	for _, et := range s.parser.GetEndpointTools() {
		logger.Debug("Adding tool", zap.String("name", et.Tool.Name))
		s.mcp.AddTool(et.Tool, s.tool.CreateHandler(et))
	}
	logger.Info("Registered tools", zap.Int("count", len(s.parser.GetEndpointTools())))
	return nil
}

// MCP returns the underlying mcp-go server
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) address() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

func (s *Server) ServeSSE(ctx context.Context) error {
	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s", s.address())),
	)
	return s.serveHTTP(ctx, sseServer, "SSE")
}

func (s *Server) ServeHTTP(ctx context.Context) error {
	return s.serveHTTP(ctx, mcpserver.NewStreamableHTTPServer(s.mcp), "HTTP")
}

func (s *Server) serveHTTP(ctx context.Context, mcpHandler http.Handler, mode string) error {
	addr := s.address()
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler.CreateHTTPHandler(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("mode", mode),
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting STDIO server")
	return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// Start serves in the configured mode until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
	)

	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		return s.ServeSSE(ctx)
	case config.ServerModeHTTP:
		return s.ServeHTTP(ctx)
	case config.ServerModeSTDIO, "":
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

// Module provides the MCP server
var Module = fx.Module("mcp_server",
	fx.Provide(
		NewServer,
	),
)
