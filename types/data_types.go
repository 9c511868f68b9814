package types

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

type DataType string

const (
	Null    DataType = "null"
	Int64   DataType = "integer"
	Float64 DataType = "number"
	String  DataType = "string"
	Bool    DataType = "boolean"
	Object  DataType = "object"
	Array   DataType = "array"
	Unknown DataType = "unknown"
)

type Record map[string]any

// GetStringifiedJSONValue renders nested values as json and scalars with %v
func (r Record) GetStringifiedJSONValue(key string) (string, error) {
	value := r[key]
	switch value.(type) {
	case map[string]any, []any, []map[string]any:
		s, err := json.Marshal(value)
		return string(s), err
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

// ToNewParquet returns the optional parquet leaf used for this type; nested
// types are written as json strings
func (d DataType) ToNewParquet() parquet.Node {
	var node parquet.Node
	switch d {
	case Int64:
		node = parquet.Int(64)
	case Float64:
		node = parquet.Leaf(parquet.DoubleType)
	case Bool:
		node = parquet.Leaf(parquet.BooleanType)
	case Object, Array:
		node = parquet.JSON()
	default:
		node = parquet.String()
	}

	return parquet.Optional(node)
}
