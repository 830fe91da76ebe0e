package toolspec

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherSpec = `[
  {
    "name": "get_weather",
    "description": "Current weather for a city",
    "inputSchema": {
      "type": "object",
      "properties": {
        "city": {"type": "string", "description": "City name"},
        "days": {"type": "integer"},
        "units": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["city"]
    },
    "outputSchema": {
      "type": "object",
      "properties": {"summary": {"type": "string"}}
    }
  },
  {
    "name": "ping",
    "inputSchema": {"type": "object"}
  }
]`

func TestParse(t *testing.T) {
	tools, _, err := parse(weatherSpec)
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "get_weather", tools[0].Name)
	assert.Equal(t, "Current weather for a city", tools[0].Description)
	assert.Equal(t, []string{"city"}, tools[0].InputSchema.Required)
	assert.Equal(t, "ping", tools[1].Name)
}

func TestParse_ToolsObject(t *testing.T) {
	tools, _, err := parse(`{"tools": [{"name": "ping", "inputSchema": {"type": "object"}}]}`)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "ping", tools[0].Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty document", "   ", "no tools"},
		{"empty list", "[]", "no tools"},
		{"empty tools object", `{"tools": []}`, "no tools"},
		{"not json", "tools please", "decoding tool schema"},
		{"missing name", `[{"description": "x"}]`, "name is required"},
		{"duplicate name", `[{"name": "a"}, {"name": "a"}]`, "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parse(tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefinitions(t *testing.T) {
	defs, err := Definitions(weatherSpec)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	weather := defs[0]
	assert.Equal(t, "get_weather", aws.ToString(weather.Name))
	assert.Equal(t, "Current weather for a city", aws.ToString(weather.Description))
	require.NotNil(t, weather.InputSchema)
	assert.Equal(t, bactypes.SchemaType("object"), weather.InputSchema.Type)
	assert.Equal(t, []string{"city"}, weather.InputSchema.Required)

	city := weather.InputSchema.Properties["city"]
	assert.Equal(t, bactypes.SchemaType("string"), city.Type)
	assert.Equal(t, "City name", aws.ToString(city.Description))
	assert.Equal(t, bactypes.SchemaType("integer"), weather.InputSchema.Properties["days"].Type)

	units := weather.InputSchema.Properties["units"]
	assert.Equal(t, bactypes.SchemaType("array"), units.Type)
	require.NotNil(t, units.Items)
	assert.Equal(t, bactypes.SchemaType("string"), units.Items.Type)

	require.NotNil(t, weather.OutputSchema)
	assert.Equal(t, bactypes.SchemaType("string"), weather.OutputSchema.Properties["summary"].Type)

	ping := defs[1]
	assert.Nil(t, ping.Description)
	assert.Nil(t, ping.OutputSchema)
	require.NotNil(t, ping.InputSchema)
	assert.Equal(t, bactypes.SchemaType("object"), ping.InputSchema.Type)
}

func TestDefinitions_DefaultsInputType(t *testing.T) {
	defs, err := Definitions(`[{"name": "noop", "inputSchema": {"properties": {"x": {"type": "number"}}}}]`)
	require.NoError(t, err)
	assert.Equal(t, bactypes.SchemaType("object"), defs[0].InputSchema.Type)
	assert.Equal(t, bactypes.SchemaType("number"), defs[0].InputSchema.Properties["x"].Type)
}

func TestDefinitions_InvalidSchemas(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"unsupported type",
			`[{"name": "a", "inputSchema": {"type": "object", "properties": {"x": {"type": "date"}}}}]`,
			`$.properties.x: unsupported type "date"`,
		},
		{
			"array without items",
			`[{"name": "a", "inputSchema": {"type": "object", "properties": {"x": {"type": "array"}}}}]`,
			"array schema requires items",
		},
		{
			"property not an object",
			`[{"name": "a", "inputSchema": {"type": "object", "properties": {"x": "string"}}}]`,
			"expected object",
		},
		{
			"bad output schema",
			`[{"name": "a", "inputSchema": {"type": "object"}, "outputSchema": {"type": "tuple"}}]`,
			"outputSchema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Definitions(tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefinitions_InputSchemaDescription(t *testing.T) {
	defs, err := Definitions(`[{"name": "lookup_order", "inputSchema": {"type": "object", "description": "Order lookup arguments", "properties": {"orderId": {"type": "string"}}}}]`)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.NotNil(t, defs[0].InputSchema)
	assert.Equal(t, "Order lookup arguments", aws.ToString(defs[0].InputSchema.Description))
	assert.Contains(t, defs[0].InputSchema.Properties, "orderId")
}
