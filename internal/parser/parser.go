package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/logger"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

var toolNameCleaner = regexp.MustCompile(`[^a-z0-9_-]+`)

// NewOpenAPIParser creates a new OpenAPIParser. endpoint may be nil.
func NewOpenAPIParser(adjuster *Adjuster, endpoint *config.EndpointConfig) *OpenAPIParser {
	if adjuster == nil {
		adjuster = NewAdjuster()
	}
	if endpoint == nil {
		endpoint = &config.EndpointConfig{}
	}
	return &OpenAPIParser{
		adjuster: adjuster,
		endpoint: endpoint,
	}
}

// GetEndpointTools returns the parsed endpoint tools
func (p *OpenAPIParser) GetEndpointTools() []*EndpointTool {
	return p.tools
}

// Init parses an OpenAPI specification from a file
func (p *OpenAPIParser) Init(openAPISpec string, adjustmentsFile string) error {
	data, err := os.ReadFile(openAPISpec)
	if err != nil {
		return fmt.Errorf("failed to read spec file: %w", err)
	}
	if err := p.adjuster.Load(adjustmentsFile); err != nil {
		return fmt.Errorf("failed to load adjustments file: %w", err)
	}
	return p.parse(data)
}

// ParseReader parses an OpenAPI specification from a reader
func (p *OpenAPIParser) ParseReader(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI spec: %w", err)
	}
	return p.parse(data)
}

func (p *OpenAPIParser) parse(data []byte) error {
	doc, err := loadDocument(data)
	if err != nil {
		return err
	}
	p.doc = doc
	p.tools = nil
	return p.processOperations()
}

// loadDocument reads an OpenAPI 3 or Swagger 2 document, JSON or YAML
func loadDocument(data []byte) (*openapi3.T, error) {
	var raw map[string]any
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON in OpenAPI spec: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML in OpenAPI spec: %w", err)
	}

	swaggerVersion, hasSwagger := raw["swagger"]
	openapiVersion, hasOpenAPI := raw["openapi"]
	if !hasSwagger && !hasOpenAPI {
		return nil, fmt.Errorf("document is missing 'swagger' or 'openapi' version field")
	}

	if hasSwagger {
		return convertSwagger2(raw, swaggerVersion)
	}

	if ver, ok := openapiVersion.(string); !ok || !strings.HasPrefix(ver, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %v", openapiVersion)
	}

	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		logger.Error("Failed to parse OpenAPI 3 spec", zap.Error(err))
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	return doc, nil
}

func convertSwagger2(raw map[string]any, swaggerVersion any) (*openapi3.T, error) {
	if fmt.Sprint(swaggerVersion) != "2.0" {
		return nil, fmt.Errorf("unsupported Swagger version: %v", swaggerVersion)
	}

	data, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}
	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	logger.Info("Detected OpenAPI 2.0 spec, converting to OpenAPI 3.0")
	doc, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		logger.Error("Failed to convert OpenAPI 2.0 to 3.0", zap.Error(err))
		return nil, fmt.Errorf("failed to convert OpenAPI 2.0 to 3.0: %w", err)
	}
	return doc, nil
}

// normalizeYAML turns the map[any]any nodes yaml produces for non-string keys
// (status codes) into JSON-encodable maps.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}

// processOperations walks paths in sorted order so tools come out stable
func (p *OpenAPIParser) processOperations() error {
	if p.doc.Paths == nil {
		return nil
	}

	baseURL := p.baseURL()
	if baseURL == "" {
		logger.Warn("No base URL configured and no server in the OpenAPI document")
	}

	paths := p.doc.Paths.Map()
	routes := make([]string, 0, len(paths))
	for route := range paths {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	for _, route := range routes {
		item := paths[route]
		operations := []struct {
			method    requester.Method
			operation *openapi3.Operation
		}{
			{requester.MethodGet, item.Get},
			{requester.MethodPost, item.Post},
			{requester.MethodPut, item.Put},
			{requester.MethodDelete, item.Delete},
			{requester.MethodHead, item.Head},
			{requester.MethodOptions, item.Options},
		}

		for _, op := range operations {
			if op.operation == nil || !p.adjuster.Selected(route, string(op.method)) {
				continue
			}
			p.tools = append(p.tools, p.createEndpointTool(baseURL, route, op.method, item, op.operation))
		}
		if item.Patch != nil {
			logger.Debug("Skipping unsupported PATCH operation", zap.String("path", route))
		}
	}

	logger.Info("Parsed OpenAPI spec", zap.Int("tools", len(p.tools)))
	return nil
}

// baseURL prefers the configured base URL over the first server of the document
func (p *OpenAPIParser) baseURL() string {
	if p.endpoint.BaseURL != "" {
		return strings.TrimSuffix(p.endpoint.BaseURL, "/")
	}
	if len(p.doc.Servers) == 0 || p.doc.Servers[0] == nil {
		return ""
	}

	server := p.doc.Servers[0]
	u := server.URL
	for name, variable := range server.Variables {
		if variable != nil {
			u = strings.ReplaceAll(u, "{"+name+"}", variable.Default)
		}
	}
	return strings.TrimSuffix(u, "/")
}

// createEndpointTool builds the definition and the tool for one operation
func (p *OpenAPIParser) createEndpointTool(baseURL, route string, method requester.Method, item *openapi3.PathItem, operation *openapi3.Operation) *EndpointTool {
	desc := operation.Description
	if desc == "" {
		desc = operation.Summary
	}
	desc = p.adjuster.Description(route, string(method), desc)

	def := &requester.Definition{
		HTTPMethod:    method,
		Base:          baseURL,
		RoutePath:     route,
		Params:        requester.ParamsQueryString,
		Header:        make(map[string]string),
		SharedHeader:  copyHeaders(p.endpoint.Headers),
		Description:   desc,
		OperationName: operation.OperationID,
	}
	if accept := responseContentType(operation); accept != "" {
		def.Header["Accept"] = accept
	}
	p.applyAPIKey(def, operation)

	et := &EndpointTool{Definition: def}
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf("%s %s\n%s", method, route, desc)),
	}
	seen := make(map[string]bool)

	for _, param := range extractPathParams(route) {
		seen[param] = true
		et.PathParams = append(et.PathParams, param)
		opts = append(opts, mcp.WithString(param,
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Path parameter: %s", param)),
		))
	}

	for _, param := range mergeParameters(item.Parameters, operation.Parameters) {
		if seen[param.Name] {
			continue
		}
		switch param.In {
		case openapi3.ParameterInQuery:
			et.QueryParams = append(et.QueryParams, param.Name)
		case openapi3.ParameterInHeader:
			et.HeaderParams = append(et.HeaderParams, param.Name)
		default:
			continue
		}
		seen[param.Name] = true
		opts = append(opts, propertyOption(param.Name, param.Schema, param.Required, param.Description))
	}

	if contentType, schema, required := requestBody(operation); contentType != "" {
		def.Params = requester.ParamsJSONBody
		if contentType == contentTypeForm {
			def.Header["Content-Type"] = contentTypeForm
		}
		for _, name := range sortedProperties(schema) {
			if seen[name] {
				continue
			}
			seen[name] = true
			et.BodyParams = append(et.BodyParams, name)
			opts = append(opts, propertyOption(name, schema.Properties[name], required && contains(schema.Required, name), ""))
		}
	}

	et.Tool = mcp.NewTool(toolName(method, route), opts...)
	return et
}

// applyAPIKey sets the API key fields from the first apiKey security scheme
// the operation requires, falling back to the configured key name and location.
func (p *OpenAPIParser) applyAPIKey(def *requester.Definition, operation *openapi3.Operation) {
	name, location := p.apiKeyScheme(operation)
	if name == "" {
		var err error
		name = p.endpoint.APIKeyName
		location, err = requester.ParseValueLocation(p.endpoint.APIKeyLocation)
		if err != nil {
			return
		}
	}
	if name == "" || location == requester.LocationNone {
		return
	}

	def.KeyRequired = true
	def.KeyName = requester.String(name)
	def.KeyLocation = location
	if p.endpoint.APIKey != "" {
		def.Key = requester.String(p.endpoint.APIKey)
	}
}

func (p *OpenAPIParser) apiKeyScheme(operation *openapi3.Operation) (string, requester.ValueLocation) {
	if p.doc.Components == nil {
		return "", requester.LocationNone
	}

	requirements := p.doc.Security
	if operation.Security != nil {
		requirements = *operation.Security
	}

	for _, requirement := range requirements {
		names := make([]string, 0, len(requirement))
		for name := range requirement {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ref := p.doc.Components.SecuritySchemes[name]
			if ref == nil || ref.Value == nil || ref.Value.Type != "apiKey" {
				continue
			}
			location, err := requester.ParseValueLocation(ref.Value.In)
			if err != nil || location == requester.LocationNone {
				logger.Debug("Skipping API key scheme", zap.String("scheme", name), zap.String("in", ref.Value.In))
				continue
			}
			return ref.Value.Name, location
		}
	}
	return "", requester.LocationNone
}

// mergeParameters applies operation parameters over path item parameters
func mergeParameters(pathParams, opParams openapi3.Parameters) []*openapi3.Parameter {
	var merged []*openapi3.Parameter
	index := make(map[string]int)
	for _, refs := range []openapi3.Parameters{pathParams, opParams} {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := ref.Value.In + ":" + ref.Value.Name
			if i, ok := index[key]; ok {
				merged[i] = ref.Value
				continue
			}
			index[key] = len(merged)
			merged = append(merged, ref.Value)
		}
	}
	return merged
}

// requestBody picks the body content type, preferring JSON, then form data.
// Bodies whose schema is not an object with properties are ignored.
func requestBody(operation *openapi3.Operation) (string, *openapi3.Schema, bool) {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return "", nil, false
	}
	body := operation.RequestBody.Value
	if len(body.Content) == 0 {
		return "", nil, false
	}

	contentType := ""
	switch {
	case body.Content.Get(contentTypeJSON) != nil:
		contentType = contentTypeJSON
	case body.Content.Get(contentTypeForm) != nil:
		contentType = contentTypeForm
	default:
		types := make([]string, 0, len(body.Content))
		for ct := range body.Content {
			types = append(types, ct)
		}
		sort.Strings(types)
		contentType = types[0]
	}

	media := body.Content.Get(contentType)
	if media == nil || media.Schema == nil || media.Schema.Value == nil || len(media.Schema.Value.Properties) == 0 {
		logger.Debug("Skipping request body without object properties", zap.String("operation", operation.OperationID))
		return "", nil, false
	}
	return contentType, media.Schema.Value, body.Required
}

// responseContentType returns the content type of the success responses,
// preferring JSON.
func responseContentType(operation *openapi3.Operation) string {
	if operation.Responses == nil {
		return ""
	}

	var types []string
	for code, ref := range operation.Responses.Map() {
		if !strings.HasPrefix(code, "2") && code != "default" {
			continue
		}
		if ref == nil || ref.Value == nil {
			continue
		}
		for ct := range ref.Value.Content {
			types = append(types, ct)
		}
	}
	if len(types) == 0 {
		return ""
	}
	sort.Strings(types)
	if contains(types, contentTypeJSON) {
		return contentTypeJSON
	}
	return types[0]
}

// toolName derives a tool name such as get_users_id from method and path
func toolName(method requester.Method, route string) string {
	path := strings.TrimPrefix(route, "/")
	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "{", "")
	path = strings.ReplaceAll(path, "}", "")
	name := strings.ToLower(fmt.Sprintf("%s_%s", method, path))
	return strings.TrimSuffix(toolNameCleaner.ReplaceAllString(name, "_"), "_")
}

// extractPathParams extracts path parameters from a URL path
func extractPathParams(path string) []string {
	var params []string
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			params = append(params, strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}"))
		}
	}
	return params
}

func sortedProperties(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
