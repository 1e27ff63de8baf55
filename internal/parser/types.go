package parser

import (
	"io"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// EndpointTool pairs an endpoint definition with the MCP tool that exposes it.
// The parameter lists name the tool arguments by where they end up in the request.
type EndpointTool struct {
	Definition   *requester.Definition
	Tool         mcp.Tool
	PathParams   []string
	QueryParams  []string
	HeaderParams []string
	BodyParams   []string
}

// Parser handles parsing of OpenAPI specifications
type Parser interface {
	// Init parses an OpenAPI specification from a file
	Init(openAPISpec string, adjustmentsFile string) error
	// ParseReader parses an OpenAPI specification from a reader
	ParseReader(reader io.Reader) error
	// GetEndpointTools returns the parsed endpoint tools
	GetEndpointTools() []*EndpointTool
}

// OpenAPIParser turns OpenAPI 3 (or Swagger 2) documents into endpoint tools
type OpenAPIParser struct {
	doc      *openapi3.T
	tools    []*EndpointTool
	adjuster *Adjuster
	endpoint *config.EndpointConfig
}
