package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/parser"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const musicSpec = `{
	"openapi": "3.0.0",
	"info": {"title": "Music", "version": "1.0.0"},
	"servers": [{"url": "%s"}],
	"paths": {
		"/search": {
			"get": {
				"summary": "Search tracks",
				"parameters": [
					{"name": "term", "in": "query", "required": true, "schema": {"type": "string"}},
					{"name": "limit", "in": "query", "schema": {"type": "integer"}}
				],
				"responses": {"200": {"description": "OK"}}
			}
		},
		"/tracks/{id}": {
			"get": {
				"parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
				"responses": {"200": {"description": "OK"}}
			}
		}
	}
}`

// writeSpec writes the music spec pointing at baseURL and returns its path
func writeSpec(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(musicSpec, baseURL)), 0o600))
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func waitForPort(t *testing.T, port int) {
	t.Helper()
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", fmt.Sprintf("localhost:%d", port))
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)
}

func newRequester() *requester.Requester {
	return requester.NewRequester(requester.NewHTTPTransport(5*time.Second, "swapi-test"))
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", c)
		return ""
	}
}

func TestServer_SSEEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"resultCount":1,"term":%q}`, r.URL.Query().Get("term"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"unknown track"}`))
		}
	}))
	defer upstream.Close()

	port := freePort(t)
	cfg := &config.Config{
		OpenAPIFile: writeSpec(t, upstream.URL),
		Server: config.ServerConfig{
			Host:    "localhost",
			Port:    port,
			Mode:    config.ServerModeSSE,
			Name:    "swapi",
			Version: "test",
		},
	}

	srv, err := NewServer(cfg, parser.NewOpenAPIParser(nil, &cfg.EndpointConfig), newRequester())
	require.NoError(t, err)

	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()
	go func() {
		if err := srv.Start(serverCtx); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()
	waitForPort(t, port)

	clientCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sseClient, err := client.NewSSEMCPClient(fmt.Sprintf("http://localhost:%d/sse", port))
	require.NoError(t, err)
	defer sseClient.Close()
	require.NoError(t, sseClient.Start(clientCtx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	_, err = sseClient.Initialize(clientCtx, initReq)
	require.NoError(t, err)

	t.Run("list tools", func(t *testing.T) {
		tools, err := sseClient.ListTools(clientCtx, mcp.ListToolsRequest{})
		require.NoError(t, err)

		names := make([]string, 0, len(tools.Tools))
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"get_search", "get_tracks_id"}, names)
	})

	t.Run("call tool", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Name = "get_search"
		req.Params.Arguments = map[string]any{"term": "jack johnson", "limit": 5}

		res, err := sseClient.CallTool(clientCtx, req)
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.JSONEq(t, `{"resultCount":1,"term":"jack johnson"}`, textOf(t, res))
	})

	t.Run("call tool with api error", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Name = "get_tracks_id"
		req.Params.Arguments = map[string]any{"id": "missing"}

		res, err := sseClient.CallTool(clientCtx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, `not_found (HTTP 404): {"error":"unknown track"}`, textOf(t, res))
	})
}

func TestServer_ContextCancellation(t *testing.T) {
	for _, mode := range []config.ServerMode{config.ServerModeSSE, config.ServerModeHTTP} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := &config.Config{
				OpenAPIFile: writeSpec(t, "http://example.com"),
				Server: config.ServerConfig{
					Host: "localhost",
					Port: freePort(t),
					Mode: mode,
				},
			}
			srv, err := NewServer(cfg, parser.NewOpenAPIParser(nil, nil), newRequester())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()
			waitForPort(t, cfg.Server.Port)
			cancel()

			select {
			case err := <-errCh:
				assert.NoError(t, err, "Server should shut down gracefully")
			case <-time.After(5 * time.Second):
				t.Fatal("Server did not shut down within timeout")
			}
		})
	}
}

func TestServer_UnsupportedMode(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Mode: "carrier-pigeon"}}
	srv, err := NewServer(cfg, &mockParser{}, newRequester())
	require.NoError(t, err)

	assert.ErrorContains(t, srv.Start(context.Background()), "unsupported server mode")
}

func TestNewServer(t *testing.T) {
	t.Run("registers parsed tools", func(t *testing.T) {
		mock := &mockParser{tools: []*parser.EndpointTool{{
			Definition: &requester.Definition{HTTPMethod: requester.MethodGet, Base: "http://example.com", RoutePath: "/test"},
			Tool:       mcp.NewTool("get_test"),
		}}}
		cfg := &config.Config{OpenAPIFile: "spec.json", AdjustmentsFile: "adjust.yaml"}

		srv, err := NewServer(cfg, mock, newRequester())
		require.NoError(t, err)
		assert.NotNil(t, srv.MCP())
		assert.Equal(t, "spec.json", mock.specFile)
		assert.Equal(t, "adjust.yaml", mock.adjustmentsFile)
	})

	t.Run("parser failure", func(t *testing.T) {
		_, err := NewServer(&config.Config{}, &mockParser{err: errors.New("boom")}, newRequester())
		assert.ErrorContains(t, err, "failed to initialize parser: boom")
	})

	t.Run("nil dependencies", func(t *testing.T) {
		_, err := NewServer(nil, &mockParser{}, newRequester())
		assert.Error(t, err)
		_, err = NewServer(&config.Config{}, nil, newRequester())
		assert.Error(t, err)
		_, err = NewServer(&config.Config{}, &mockParser{}, nil)
		assert.Error(t, err)
	})
}

// mockParser implements parser.Parser for testing
type mockParser struct {
	tools           []*parser.EndpointTool
	err             error
	specFile        string
	adjustmentsFile string
}

func (m *mockParser) Init(openAPISpec string, adjustmentsFile string) error {
	m.specFile = openAPISpec
	m.adjustmentsFile = adjustmentsFile
	return m.err
}

func (m *mockParser) ParseReader(reader io.Reader) error {
	return nil
}

func (m *mockParser) GetEndpointTools() []*parser.EndpointTool {
	return m.tools
}
