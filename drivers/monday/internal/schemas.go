package driver

import (
	"embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/olake-monday/types"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// loadSchema reads the json schema shipped for a stream
func loadSchema(streamID string) (*types.Schema, error) {
	data, err := schemaFiles.ReadFile(fmt.Sprintf("schemas/%s.json", streamID))
	if err != nil {
		return nil, fmt.Errorf("schema of stream %s not found: %s", streamID, err)
	}

	schema := &types.Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema of stream %s: %s", streamID, err)
	}
	return schema, nil
}
