// Package tool turns MCP tool calls into endpoint requests.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/brizzai/swapi/internal/logger"
	"github.com/brizzai/swapi/internal/parser"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Handler executes tool calls through a Requester
type Handler struct {
	requester *requester.Requester
}

// NewHandler creates a new tool handler.
func NewHandler(r *requester.Requester) *Handler {
	return &Handler{requester: r}
}

// CreateHandler creates the handler function for one endpoint tool. Request
// failures become tool errors, never Go errors, so the model sees them.
func (h *Handler) CreateHandler(et *parser.EndpointTool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		def, err := BuildDefinition(et, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		logger.Debug("Calling endpoint",
			zap.String("tool", et.Tool.Name),
			zap.String("method", string(def.Method())),
			zap.String("path", def.Path()),
		)

		var res requester.RawResult
		select {
		case res = <-h.requester.RequestRaw(ctx, def):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if res.Err != nil {
			logger.Warn("Endpoint call failed",
				zap.String("tool", et.Tool.Name),
				zap.String("kind", res.Err.Kind.String()),
				zap.Int("status", res.Err.StatusCode()),
			)
			return mcp.NewToolResultError(FormatError(res)), nil
		}
		return mcp.NewToolResultText(string(res.Body)), nil
	}
}

// FormatError renders a failed call as "<kind> (HTTP <status>): <body>". The
// status is left out when no response was received and the error text stands
// in for an absent body.
func FormatError(res requester.RawResult) string {
	var b strings.Builder
	b.WriteString(res.Err.Kind.String())
	if status := res.Err.StatusCode(); status > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", status)
	}
	b.WriteString(": ")
	if len(res.Body) > 0 {
		b.Write(res.Body)
	} else {
		b.WriteString(res.Err.Error())
	}
	return b.String()
}

// BuildDefinition fills a copy of the tool's definition with call arguments.
// Path arguments are escaped into the route, query arguments become
// parameters (or additional query items when parameters travel in the body),
// header arguments become headers and body arguments become parameters.
func BuildDefinition(et *parser.EndpointTool, args map[string]any) (*requester.Definition, error) {
	def := et.Definition.Clone()

	route := def.RoutePath
	for _, name := range et.PathParams {
		value, ok := args[name]
		if !ok || value == nil {
			return nil, fmt.Errorf("missing required path parameter: %s", name)
		}
		route = strings.ReplaceAll(route, "{"+name+"}", url.PathEscape(stringify(value)))
	}
	def.RoutePath = route

	params := make(map[string]string)
	for _, name := range et.QueryParams {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		if def.Params == requester.ParamsJSONBody {
			if def.ExtraQuery == nil {
				def.ExtraQuery = make(map[string]string)
			}
			def.ExtraQuery[name] = stringify(value)
		} else {
			params[name] = stringify(value)
		}
	}
	for _, name := range et.BodyParams {
		if value, ok := args[name]; ok && value != nil {
			params[name] = stringify(value)
		}
	}
	for _, name := range et.HeaderParams {
		if value, ok := args[name]; ok && value != nil {
			if def.Header == nil {
				def.Header = make(map[string]string)
			}
			def.Header[name] = stringify(value)
		}
	}

	if len(params) > 0 {
		def.Parameter = params
	}
	return def, nil
}

// stringify flattens an argument into the single string value parameters carry.
// Arrays and objects are sent as JSON text.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
