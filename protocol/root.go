package protocol

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

const notSet = "not-set"

var (
	configPath            string
	destinationConfigPath string
	destinationType       string
	statePath             string
	streamsPath           string
	noSave                bool
	encryptionKey         string
	metricsAddr           string
	catalog               *types.Catalog
	state                 *types.State
	destinationConfig     *types.WriterConfig

	commands  = []*cobra.Command{}
	connector *abstract.AbstractDriver
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "olake-monday",
	Short: "monday.com source connector",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// set global variables
		if !noSave {
			configFolder := utils.Ternary(configPath == notSet, filepath.Dir(destinationConfigPath), filepath.Dir(configPath)).(string)
			streamsPathEnv := utils.Ternary(streamsPath == "", filepath.Join(configFolder, "streams.json"), streamsPath).(string)
			statePathEnv := utils.Ternary(statePath == "", filepath.Join(configFolder, "state.json"), statePath).(string)
			viper.Set(constants.ConfigFolder, configFolder)
			viper.Set(constants.StatePath, statePathEnv)
			viper.Set(constants.StreamsPath, streamsPathEnv)
		}

		if encryptionKey != "" {
			viper.Set(constants.EncryptionKey, encryptionKey)
		}
		if metricsAddr != "" {
			viper.Set(constants.MetricsAddr, metricsAddr)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'olake-monday --help' to display usage guide", args[0])
		}

		return nil
	},
}

func CreateRootCommand(_ bool, driver any) *cobra.Command {
	RootCmd.AddCommand(commands...)
	connector = abstract.NewAbstractDriver(RootCmd.Context(), driver.(abstract.DriverInterface))

	return RootCmd
}

// loadCatalog reads the catalog passed through --catalog or --streams
func loadCatalog() error {
	if streamsPath == "" {
		return fmt.Errorf("--catalog not passed")
	}

	catalog = &types.Catalog{}
	return utils.UnmarshalFile(streamsPath, catalog, false)
}

// loadState reads --state when passed, otherwise starts from an empty state
func loadState() error {
	state = types.NewState()
	if statePath == "" {
		return nil
	}
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		logger.Warnf("state file[%s] not found, starting from an empty state", statePath)
		return nil
	}
	if err := utils.UnmarshalFile(statePath, state, false); err != nil {
		return err
	}
	if state.Bookmarks == nil {
		state.Bookmarks = map[string]map[string]any{}
	}
	return nil
}

func init() {
	commands = append(commands, specCmd, checkCmd, discoverCmd, syncCmd, clearCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", notSet, "(Required) Config for connector")
	RootCmd.PersistentFlags().StringVarP(&destinationConfigPath, "destination", "", notSet, "Destination config for connector, records are written to stdout when not passed")
	RootCmd.PersistentFlags().StringVarP(&destinationType, "destination-type", "", notSet, "Destination type for spec")
	RootCmd.PersistentFlags().StringVarP(&streamsPath, "catalog", "", "", "Path to the catalog file for the connector")
	RootCmd.PersistentFlags().StringVarP(&streamsPath, "streams", "", "", "Path to the catalog file for the connector")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) State for connector")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip logging artifacts in file")
	RootCmd.PersistentFlags().StringVarP(&encryptionKey, "encryption-key", "", "", "(Optional) Decryption key. Provide the ARN of a KMS key or a custom string based on your encryption configuration.")
	RootCmd.PersistentFlags().StringVarP(&metricsAddr, "metrics-addr", "", "", "(Optional) Address serving prometheus metrics during sync, e.g. :9090")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
