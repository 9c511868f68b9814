/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package protocol

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-monday/destination"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

var errNothingToCheck = errors.New("no connector config or destination config provided")

// checkCmd verifies the source credentials, or the destination when --destination is given
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the monday.com token or the destination settings",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		switch {
		case destinationConfigPath != notSet:
			destinationConfig = &types.WriterConfig{}
			return utils.UnmarshalFile(destinationConfigPath, destinationConfig, true)
		case configPath != notSet:
			return utils.UnmarshalFile(configPath, connector.GetConfigRef(), true)
		default:
			return errNothingToCheck
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		logger.Print(connectionStatus(runCheck(cmd.Context())))
	},
}

func runCheck(ctx context.Context) error {
	if destinationConfig == nil {
		return connector.Check(ctx)
	}

	pool, err := destination.NewWriter(ctx, destinationConfig)
	if err != nil {
		return err
	}
	return pool.Close(ctx)
}

// connectionStatus turns a check result into the CONNECTION_STATUS message
func connectionStatus(err error) types.Message {
	status := &types.StatusRow{Status: types.ConnectionSucceed}
	if err != nil {
		status.Status = types.ConnectionFailed
		status.Message = err.Error()
	}
	return types.Message{Type: types.ConnectionStatusMessage, ConnectionStatus: status}
}
