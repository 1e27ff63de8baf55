package parser

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxSchemaDepth bounds nested schema rendering; OpenAPI schemas may be recursive
const maxSchemaDepth = 6

// propertyOption describes one tool argument from its OpenAPI schema. A
// missing or untyped schema becomes a string argument. description wins over
// the schema's own description when set.
func propertyOption(name string, ref *openapi3.SchemaRef, required bool, description string) mcp.ToolOption {
	var schema *openapi3.Schema
	if ref != nil {
		schema = ref.Value
	}
	if description == "" && schema != nil {
		description = schema.Description
	}

	var opts []mcp.PropertyOption
	if description != "" {
		opts = append(opts, mcp.Description(description))
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	if schema == nil || schema.Type == nil {
		return mcp.WithString(name, opts...)
	}

	switch {
	case schema.Type.Includes(openapi3.TypeArray):
		if schema.Items != nil && schema.Items.Value != nil {
			opts = append(opts, mcp.Items(jsonSchema(schema.Items.Value, 1)))
		}
		return mcp.WithArray(name, opts...)

	case schema.Type.Includes(openapi3.TypeObject):
		if props := propertySchemas(schema, 1); len(props) > 0 {
			opts = append(opts, mcp.Properties(props))
		}
		return mcp.WithObject(name, opts...)

	case schema.Type.Includes(openapi3.TypeNumber), schema.Type.Includes(openapi3.TypeInteger):
		if schema.Min != nil {
			opts = append(opts, mcp.Min(*schema.Min))
		}
		if schema.Max != nil {
			opts = append(opts, mcp.Max(*schema.Max))
		}
		if schema.MultipleOf != nil {
			opts = append(opts, mcp.MultipleOf(*schema.MultipleOf))
		}
		return mcp.WithNumber(name, opts...)

	case schema.Type.Includes(openapi3.TypeBoolean):
		return mcp.WithBoolean(name, opts...)

	default:
		return mcp.WithString(name, append(opts, stringConstraints(schema)...)...)
	}
}

func stringConstraints(schema *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	var enum []string
	for _, v := range schema.Enum {
		if s, ok := v.(string); ok {
			enum = append(enum, s)
		}
	}
	if len(enum) > 0 {
		opts = append(opts, mcp.Enum(enum...))
	}
	if schema.MinLength != 0 {
		opts = append(opts, mcp.MinLength(int(schema.MinLength)))
	}
	if schema.MaxLength != nil {
		opts = append(opts, mcp.MaxLength(int(*schema.MaxLength)))
	}
	if schema.Pattern != "" {
		opts = append(opts, mcp.Pattern(schema.Pattern))
	}
	return opts
}

// jsonSchema renders schema as a plain JSON schema map for nested arguments
func jsonSchema(schema *openapi3.Schema, depth int) map[string]any {
	m := make(map[string]any)
	if schema.Type != nil && len(schema.Type.Slice()) > 0 {
		m["type"] = schema.Type.Slice()[0]
	}
	if schema.Description != "" {
		m["description"] = schema.Description
	}
	if len(schema.Enum) > 0 {
		m["enum"] = schema.Enum
	}
	if schema.Format != "" {
		m["format"] = schema.Format
	}
	if depth >= maxSchemaDepth {
		return m
	}

	if schema.Items != nil && schema.Items.Value != nil {
		m["items"] = jsonSchema(schema.Items.Value, depth+1)
	}
	if props := propertySchemas(schema, depth+1); len(props) > 0 {
		m["properties"] = props
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	return m
}

func propertySchemas(schema *openapi3.Schema, depth int) map[string]any {
	if len(schema.Properties) == 0 {
		return nil
	}
	props := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		props[name] = jsonSchema(prop.Value, depth)
	}
	return props
}
