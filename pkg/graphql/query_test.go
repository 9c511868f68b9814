package graphql

import (
	"testing"

	"github.com/datazip-inc/olake-monday/types"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, raw string) *types.Schema {
	t.Helper()
	schema := &types.Schema{}
	require.NoError(t, json.Unmarshal([]byte(raw), schema))
	return schema
}

func TestBuildQuery(t *testing.T) {
	flat := `{"type": "object", "properties": {"name": {"type": "string"}, "id": {"type": "string"}}}`
	nested := `{"type": "object", "properties": {
		"id": {"type": "string"},
		"details": {"type": ["null", "object"], "properties": {"field2": {"type": "string"}, "field1": {"type": "string"}}}
	}}`
	board := `{"type": "object", "properties": {
		"id": {"type": "string"},
		"creator_id": {"type": "string"},
		"owners": {"type": ["null", "array"], "items": {"type": ["null", "object"], "properties": {"id": {"type": "string"}}}},
		"top_group_id": {"type": "string"},
		"tags": {"type": "array", "items": {"type": "string"}}
	}}`

	testCases := []struct {
		name     string
		schema   string
		extra    ExtraFields
		excluded []string
		root     string
		expected string
	}{
		{
			name:     "alphabetical order",
			schema:   flat,
			root:     "items",
			expected: "query { items { id name }}",
		},
		{
			name:     "exclusion wins over extra field",
			schema:   flat,
			extra:    ExtraFields{"extra": {}},
			excluded: []string{"extra"},
			root:     "items",
			expected: "query { items { id name }}",
		},
		{
			name:     "extra fields merged into object",
			schema:   nested,
			extra:    ExtraFields{"details.extra1": {}, "details.extra2": {}},
			root:     "items",
			expected: "query { items { details { extra1 extra2 field1 field2 } id }}",
		},
		{
			name:     "nested exclusion",
			schema:   nested,
			excluded: []string{"details.field2"},
			root:     "items",
			expected: "query { items { details { field1 } id }}",
		},
		{
			name:     "extra only object and array of objects",
			schema:   board,
			extra:    ExtraFields{"creator": {"id"}, "top_group": {"id"}},
			excluded: []string{"creator_id", "top_group_id"},
			root:     "boards(limit: 100, page: 1)",
			expected: "query { boards(limit: 100, page: 1) { creator { id } id owners { id } tags top_group { id } }}",
		},
		{
			name:     "empty extra branch renders bare field",
			schema:   flat,
			extra:    ExtraFields{"daily_analytics.last_updated": {}},
			root:     "platform_api",
			expected: "query { platform_api { daily_analytics { last_updated } id name }}",
		},
		{
			name:     "extra leaf excluded by full path",
			schema:   flat,
			extra:    ExtraFields{"creator": {"id"}},
			excluded: []string{"creator.id"},
			root:     "items",
			expected: "query { items { creator id name }}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query := BuildQuery(mustSchema(t, tc.schema), tc.extra, tc.excluded, tc.root)
			assert.Equal(t, tc.expected, query)
		})
	}
}

func TestBuildQueryIsDeterministic(t *testing.T) {
	schema := mustSchema(t, `{"type": "object", "properties": {"b": {"type": "string"}, "a": {"type": "string"}, "c": {"type": "string"}}}`)
	first := BuildQuery(schema, ExtraFields{"z": {"y", "x"}}, nil, "root")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildQuery(schema, ExtraFields{"z": {"y", "x"}}, nil, "root"))
	}
	assert.Equal(t, "query { root { a b c z { x y } }}", first)
}

func TestBuildQueryWithOpenPrefix(t *testing.T) {
	schema := mustSchema(t, `{"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}}}`)

	root, closing := Prefix(
		Call("boards", Arg{Name: "ids", Value: Raw("42")}),
		Call("items_page", Arg{Name: "limit", Value: 20}),
		"cursor items",
	)
	query := BuildQuery(schema, nil, nil, root) + closing

	assert.Equal(t, "query { boards(ids: 42) { items_page(limit: 20) { cursor items { id name }}}}", query)
}

func TestCall(t *testing.T) {
	testCases := []struct {
		name     string
		field    string
		args     []Arg
		expected string
	}{
		{"no arguments", "account", nil, "account"},
		{"page arguments", "boards", []Arg{{"limit", 100}, {"page", 2}}, "boards(limit: 100, page: 2)"},
		{"quoted cursor", "next_items_page", []Arg{{"limit", 20}, {"cursor", "MSw5NzI4"}}, `next_items_page(limit: 20, cursor: "MSw5NzI4")`},
		{"raw id list", "items", []Arg{{"ids", []Raw{"1", "2"}}}, "items(ids: [1, 2])"},
		{"string id list", "items", []Arg{{"ids", []string{"1"}}}, `items(ids: ["1"])`},
		{"enum and bool", "boards", []Arg{{"state", Raw("all")}, {"newest_first", true}}, "boards(state: all, newest_first: true)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Call(tc.field, tc.args...))
		})
	}
}
