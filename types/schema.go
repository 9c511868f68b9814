package types

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// TypeList holds a json schema "type" keyword which may be a single name or a list
type TypeList []DataType

func (t *TypeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var single DataType
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*t = TypeList{single}
		return nil
	}

	var many []DataType
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("invalid schema type %s: %s", string(data), err)
	}
	*t = many
	return nil
}

// Schema is a json schema node describing a stream or one of its properties
type Schema struct {
	Type                 TypeList           `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

func (s *Schema) HasType(typ DataType) bool {
	if s == nil {
		return false
	}
	for _, one := range s.Type {
		if one == typ {
			return true
		}
	}
	return false
}

// IsObject reports whether the node declares nested properties
func (s *Schema) IsObject() bool {
	return s.HasType(Object) && len(s.Properties) > 0
}

// IsArrayOfObjects reports whether the node is an array whose items declare properties
func (s *Schema) IsArrayOfObjects() bool {
	return s.HasType(Array) && s.Items != nil && s.Items.IsObject()
}

// DataType returns the first non-null type of the node
func (s *Schema) DataType() DataType {
	if s == nil {
		return Unknown
	}
	for _, one := range s.Type {
		if one != Null {
			return one
		}
	}
	return Null
}

func (s *Schema) Nullable() bool {
	return s.HasType(Null)
}

// Keys returns the top level property names in alphabetical order
func (s *Schema) Keys() []string {
	keys := make([]string, 0, len(s.Properties))
	for key := range s.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Filter drops top level keys the schema does not declare
func (s *Schema) Filter(record Record) Record {
	if s == nil || len(s.Properties) == 0 {
		return record
	}

	filtered := make(Record, len(record))
	for key, value := range record {
		if _, found := s.Properties[key]; found {
			filtered[key] = value
		}
	}
	return filtered
}

// ToParquet builds a flat parquet schema out of the top level properties plus extra columns
func (s *Schema) ToParquet(name string, extra map[string]DataType) *parquet.Schema {
	group := parquet.Group{}
	for key, property := range s.Properties {
		group[key] = property.DataType().ToNewParquet()
	}
	for key, typ := range extra {
		group[key] = typ.ToNewParquet()
	}

	return parquet.NewSchema(name, group)
}
