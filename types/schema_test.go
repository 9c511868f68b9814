package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardSchema = `{
	"type": ["null", "object"],
	"properties": {
		"id": {"type": ["null", "string"]},
		"updated_at": {"type": ["null", "string"], "format": "date-time"},
		"owners": {
			"type": ["null", "array"],
			"items": {"type": ["null", "object"], "properties": {"id": {"type": ["null", "string"]}}}
		},
		"tags": {"type": "array", "items": {"type": "string"}},
		"settings": {"type": "object"}
	}
}`

func TestSchemaUnmarshal(t *testing.T) {
	schema := &Schema{}
	require.NoError(t, json.Unmarshal([]byte(boardSchema), schema))

	assert.True(t, schema.IsObject())
	assert.Equal(t, []string{"id", "owners", "settings", "tags", "updated_at"}, schema.Keys())
	assert.Equal(t, String, schema.Properties["id"].DataType())
	assert.True(t, schema.Properties["id"].Nullable())
	assert.Equal(t, "date-time", schema.Properties["updated_at"].Format)

	testCases := []struct {
		name          string
		property      string
		object        bool
		arrayOfObject bool
	}{
		{"array of objects", "owners", false, true},
		{"array of scalars", "tags", false, false},
		{"object without properties", "settings", false, false},
		{"scalar", "id", false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			property := schema.Properties[tc.property]
			assert.Equal(t, tc.object, property.IsObject())
			assert.Equal(t, tc.arrayOfObject, property.IsArrayOfObjects())
		})
	}
}

func TestSchemaTypeListInvalid(t *testing.T) {
	schema := &Schema{}
	assert.Error(t, json.Unmarshal([]byte(`{"type": 12}`), schema))
}

func TestSchemaFilter(t *testing.T) {
	schema := &Schema{}
	require.NoError(t, json.Unmarshal([]byte(boardSchema), schema))

	record := Record{"id": "1", "updated_at": "2024-01-01T00:00:00Z", "creator": map[string]any{"id": "7"}}
	assert.Equal(t, Record{"id": "1", "updated_at": "2024-01-01T00:00:00Z"}, schema.Filter(record))

	var empty *Schema
	assert.Equal(t, record, empty.Filter(record))
}

func TestSchemaToParquet(t *testing.T) {
	schema := &Schema{}
	require.NoError(t, json.Unmarshal([]byte(boardSchema), schema))

	pq := schema.ToParquet("boards", map[string]DataType{"_olake_id": String})
	names := []string{}
	for _, field := range pq.Fields() {
		names = append(names, field.Name())
		assert.True(t, field.Optional())
	}
	assert.ElementsMatch(t, []string{"_olake_id", "id", "owners", "settings", "tags", "updated_at"}, names)
}
