package abstract

import (
	"fmt"
	"strings"

	"github.com/datazip-inc/olake-monday/types"
)

// MissingFieldError is raised when a record lacks a field its stream relies on
type MissingFieldError struct {
	Stream string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("stream[%s]: field %q missing from record", e.Stream, e.Field)
}

// ExtractPath resolves a dot-path inside a response. A missing segment yields
// nothing, a single object yields one record and non object entries are skipped.
func ExtractPath(response map[string]any, path string) []map[string]any {
	var current any = response
	if path != "" {
		for _, segment := range strings.Split(path, ".") {
			object, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			current, ok = object[segment]
			if !ok || current == nil {
				return nil
			}
		}
	}

	return asRecords(current)
}

// First returns the first object of the list held at path, used for
// responses shaped like {"boards": [{...}]}
func First(response map[string]any, path string) map[string]any {
	records := ExtractPath(response, path)
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

func asRecords(value any) []map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []map[string]any:
		return v
	case []any:
		records := make([]map[string]any, 0, len(v))
		for _, elem := range v {
			if object, ok := elem.(map[string]any); ok {
				records = append(records, object)
			}
		}
		return records
	default:
		return nil
	}
}

// ProjectObjectIDs sets <alias>_id to record[field].id, or nil when the nested object is null
func ProjectObjectIDs(stream string, record types.Record, mapping map[string]string) error {
	for field, alias := range mapping {
		value, found := record[field]
		if !found {
			return &MissingFieldError{Stream: stream, Field: field}
		}

		key := alias + "_id"
		object, ok := value.(map[string]any)
		if value == nil || !ok {
			record[key] = nil
			continue
		}
		record[key] = object["id"]
	}
	return nil
}

// ParentID returns the id of the parent record
func ParentID(stream string, parent types.Record) (any, error) {
	if parent == nil {
		return nil, &MissingFieldError{Stream: stream, Field: "parent"}
	}
	id, found := parent["id"]
	if !found || id == nil {
		return nil, &MissingFieldError{Stream: stream, Field: "id"}
	}
	return id, nil
}

// ParentField copies a field of the parent record, failing when it is absent
func ParentField(stream string, parent types.Record, field string) (any, error) {
	if parent == nil {
		return nil, &MissingFieldError{Stream: stream, Field: "parent"}
	}
	value, found := parent[field]
	if !found {
		return nil, &MissingFieldError{Stream: stream, Field: field}
	}
	return value, nil
}

// NewRecord copies a raw api object into a record
func NewRecord(raw map[string]any) types.Record {
	record := make(types.Record, len(raw))
	for key, value := range raw {
		record[key] = value
	}
	return record
}
