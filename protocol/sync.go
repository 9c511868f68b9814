package protocol

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/destination"
	"github.com/datazip-inc/olake-monday/pkg/metrics"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
	"github.com/datazip-inc/olake-monday/utils/safego"
)

// syncCmd represents the sync command which reads the selected streams into the destination
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Olake Sync command",
	Long:  `Sync command initiates source fetchers and destination writes and starts running sync`,
	Example: `
// Base command, records are written to stdout as singer messages:
olake-monday sync --config path/to/config --catalog path/to/catalog

// With a destination and state:
olake-monday sync --config path/to/config --destination path/to/destination/config --catalog path/to/catalog --state /path/to/state
`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == notSet {
			return fmt.Errorf("--config not passed")
		}

		if err := utils.UnmarshalFile(configPath, connector.GetConfigRef(), true); err != nil {
			return err
		}

		destinationConfig = &types.WriterConfig{Type: types.Singer, WriterConfig: map[string]any{}}
		if destinationConfigPath != notSet {
			if err := utils.UnmarshalFile(destinationConfigPath, destinationConfig, true); err != nil {
				return err
			}
		}

		if err := loadCatalog(); err != nil {
			return err
		}
		return loadState()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if err := connector.Setup(ctx); err != nil {
			return err
		}

		pool, err := destination.NewWriter(ctx, destinationConfig)
		if err != nil {
			return err
		}

		if addr := viper.GetString(constants.MetricsAddr); addr != "" {
			safego.Run(func() {
				if err := metrics.Serve(ctx, addr); err != nil {
					logger.Errorf("metrics server stopped: %s", err)
				}
			})
		}

		start := time.Now()
		counts, readErr := connector.Read(ctx, catalog, state, pool)
		closeErr := pool.Close(ctx)
		logSummary(counts, time.Since(start))

		if readErr != nil {
			return fmt.Errorf("sync failed: %s", readErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close destination: %s", closeErr)
		}

		logger.Infof("Sync completed, %d records written", pool.SyncedRecords())
		return nil
	},
}

func logSummary(counts map[string]int, elapsed time.Duration) {
	streams := make([]string, 0, len(counts))
	for stream := range counts {
		streams = append(streams, stream)
	}
	sort.Strings(streams)

	for _, stream := range streams {
		logger.Infof("Stream[%s]: %d records", stream, counts[stream])
	}
	logger.Infof("Sync took %s", elapsed.Round(time.Millisecond))
}
