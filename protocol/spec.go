package protocol

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-monday/destination"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

// specCmd prints the json schema of the connector config, or of a destination config with --destination-type
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Print the json schema of the source or destination config",
	RunE: func(_ *cobra.Command, _ []string) error {
		var config any
		if destinationType == notSet {
			config = connector.Spec()
		} else {
			writerType := types.DestinationType(strings.ToUpper(destinationType))
			newFunc, found := destination.RegisteredWriters[writerType]
			if !found {
				return fmt.Errorf("invalid destination type has been passed [%s]", writerType)
			}
			config = newFunc().Spec()
		}

		schema, err := configSchema(config)
		if err != nil {
			return fmt.Errorf("failed to reflect config: %s", err)
		}

		logger.Print(types.Message{Type: types.SpecMessage, Spec: schema})
		return nil
	},
}

// configSchema reflects a config struct into a generic json schema. Fields
// without omitempty are required, formats and enums come from jsonschema tags.
func configSchema(config any) (map[string]any, error) {
	reflector := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(config)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %s", err)
	}

	generic := map[string]any{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %s", err)
	}
	return generic, nil
}
