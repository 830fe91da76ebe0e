// Package toolspec decodes the gateway tool schema document and converts it
// into AgentCore inline tool definitions.
//
// The document is a JSON array of MCP tool descriptors, or an object with a
// "tools" array (the shape of an MCP tools/list result):
//
//	[{"name": "lookup", "description": "...", "inputSchema": {"type": "object", ...}}]
package toolspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrEmpty is returned when the document declares no tools.
var ErrEmpty = errors.New("tool schema declares no tools")

var schemaTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

// rawTool holds the schema fields read as plain JSON: mcp.ToolInputSchema
// has no description, and the output schema is converted node by node.
type rawTool struct {
	InputSchema struct {
		Description string `json:"description"`
	} `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

type toolList struct {
	Tools json.RawMessage `json:"tools"`
}

// parse decodes doc into MCP tools and validates names.
func parse(doc string) ([]mcp.Tool, []rawTool, error) {
	data := []byte(strings.TrimSpace(doc))
	if len(data) == 0 {
		return nil, nil, ErrEmpty
	}

	if data[0] == '{' {
		var list toolList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, nil, fmt.Errorf("decoding tool schema: %w", err)
		}
		if len(list.Tools) == 0 {
			return nil, nil, ErrEmpty
		}
		data = list.Tools
	}

	var tools []mcp.Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, nil, fmt.Errorf("decoding tool schema: %w", err)
	}
	var raw []rawTool
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decoding tool schema: %w", err)
	}
	if len(tools) == 0 {
		return nil, nil, ErrEmpty
	}

	seen := make(map[string]bool, len(tools))
	for i, t := range tools {
		if t.Name == "" {
			return nil, nil, fmt.Errorf("tool %d: name is required", i)
		}
		if seen[t.Name] {
			return nil, nil, fmt.Errorf("tool %q: duplicate name", t.Name)
		}
		seen[t.Name] = true
	}
	return tools, raw, nil
}

// Definitions decodes doc and converts every tool to an AgentCore tool
// definition, preserving document order.
func Definitions(doc string) ([]bactypes.ToolDefinition, error) {
	tools, raw, err := parse(doc)
	if err != nil {
		return nil, err
	}

	defs := make([]bactypes.ToolDefinition, 0, len(tools))
	for i, t := range tools {
		input, err := inputSchema(t, raw[i].InputSchema.Description)
		if err != nil {
			return nil, fmt.Errorf("tool %q: inputSchema: %w", t.Name, err)
		}
		def := bactypes.ToolDefinition{
			Name:        aws.String(t.Name),
			InputSchema: &input,
		}
		if t.Description != "" {
			def.Description = aws.String(t.Description)
		}
		if out := raw[i].OutputSchema; len(out) > 0 {
			schema, err := convertSchema(out, "$")
			if err != nil {
				return nil, fmt.Errorf("tool %q: outputSchema: %w", t.Name, err)
			}
			def.OutputSchema = &schema
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func inputSchema(t mcp.Tool, description string) (bactypes.SchemaDefinition, error) {
	root := map[string]any{"type": t.InputSchema.Type}
	if t.InputSchema.Type == "" {
		root["type"] = "object"
	}
	if description != "" {
		root["description"] = description
	}
	if len(t.InputSchema.Properties) > 0 {
		root["properties"] = t.InputSchema.Properties
	}
	if len(t.InputSchema.Required) > 0 {
		required := make([]any, len(t.InputSchema.Required))
		for i, r := range t.InputSchema.Required {
			required[i] = r
		}
		root["required"] = required
	}
	return convertSchema(root, "$")
}

// convertSchema maps a decoded JSON Schema node onto the subset AgentCore
// accepts: type, description, properties, required and items.
func convertSchema(node map[string]any, path string) (bactypes.SchemaDefinition, error) {
	typ, _ := node["type"].(string)
	if !schemaTypes[typ] {
		return bactypes.SchemaDefinition{}, fmt.Errorf("%s: unsupported type %q", path, typ)
	}

	def := bactypes.SchemaDefinition{Type: bactypes.SchemaType(typ)}
	if desc, ok := node["description"].(string); ok && desc != "" {
		def.Description = aws.String(desc)
	}

	if props, ok := node["properties"].(map[string]any); ok && len(props) > 0 {
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		def.Properties = make(map[string]bactypes.SchemaDefinition, len(props))
		for _, name := range names {
			child, ok := props[name].(map[string]any)
			if !ok {
				return bactypes.SchemaDefinition{}, fmt.Errorf("%s.properties.%s: expected object", path, name)
			}
			converted, err := convertSchema(child, path+".properties."+name)
			if err != nil {
				return bactypes.SchemaDefinition{}, err
			}
			def.Properties[name] = converted
		}
	}

	if req, ok := node["required"].([]any); ok {
		for _, r := range req {
			s, ok := r.(string)
			if !ok {
				return bactypes.SchemaDefinition{}, fmt.Errorf("%s.required: expected strings", path)
			}
			def.Required = append(def.Required, s)
		}
	}

	if items, ok := node["items"].(map[string]any); ok {
		child, err := convertSchema(items, path+".items")
		if err != nil {
			return bactypes.SchemaDefinition{}, err
		}
		def.Items = &child
	} else if typ == "array" {
		return bactypes.SchemaDefinition{}, fmt.Errorf("%s: array schema requires items", path)
	}

	return def, nil
}
