package protocol

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

// clearCmd drops the bookmarks of the selected streams so the next sync starts from start_date
var clearCmd = &cobra.Command{
	Use:   "clear-state",
	Short: "Olake clear command to reset the state of selected streams",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if statePath == "" {
			return fmt.Errorf("--state not passed")
		}

		if err := loadCatalog(); err != nil {
			return err
		}
		return loadState()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		cleared := clearStreams(state, catalog.SelectedStreams())
		if len(cleared) == 0 {
			logger.Info("No bookmarks to clear for the selected streams")
		}

		if err := logger.FileLogger(state, statePath); err != nil {
			return fmt.Errorf("failed to write state: %s", err)
		}
		logger.Infof("Cleared bookmarks of streams %v", cleared)
		logger.Print(types.Message{Type: types.StateMessage, Value: state})
		return nil
	},
}

// clearStreams removes the bookmarks of streams, including the parent keyed ones
// stored under a child, and returns the streams that had any
func clearStreams(state *types.State, streams []string) []string {
	cleared := []string{}
	for _, stream := range streams {
		if _, found := state.Bookmarks[stream]; found {
			delete(state.Bookmarks, stream)
			cleared = append(cleared, stream)
		}
	}

	if state.CurrentlySyncing != nil && utils.Contains(streams, *state.CurrentlySyncing) {
		state.CurrentlySyncing = nil
	}
	return cleared
}
