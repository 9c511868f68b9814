package protocol

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == notSet {
			return fmt.Errorf("--config not passed")
		}

		return utils.UnmarshalFile(configPath, connector.GetConfigRef(), true)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := connector.Setup(cmd.Context()); err != nil {
			return err
		}

		discovered, err := connector.Discover(cmd.Context())
		if err != nil {
			return err
		}
		if len(discovered.Streams) == 0 {
			return errors.New("no streams found in connector")
		}

		if err := logger.FileLogger(discovered, viper.GetString(constants.StreamsPath)); err != nil {
			return fmt.Errorf("failed to write catalog: %s", err)
		}
		logger.Print(types.Message{Type: types.CatalogMessage, Catalog: discovered})
		return nil
	},
}
