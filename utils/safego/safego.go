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

package safego

import (
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/datazip-inc/olake-monday/utils/logger"
)

type RecoverHandler func(value any)

var GlobalRecoverHandler RecoverHandler = func(value any) {
	logger.Errorf("recovered from panic in goroutine: %v", value)
	logStack()
}

var startTime = time.Now()

// Run runs f in a new goroutine; a panic is handed to GlobalRecoverHandler
// instead of crashing the process
func Run(f func()) {
	handler := GlobalRecoverHandler
	go func() {
		defer func() {
			if r := recover(); r != nil {
				handler(r)
			}
		}()
		f()
	}()
}

// Recovery must be deferred directly. It logs a panic with its stack and, when
// exit is set, stops the process with status 1.
func Recovery(exit bool) {
	r := recover()
	if r == nil {
		return
	}

	logger.Error(r)
	logStack()
	if exit {
		logger.Infof("Time of execution %v", time.Since(startTime).String())
		os.Exit(1)
	}
}

func logStack() {
	for _, str := range strings.Split(string(debug.Stack()), "\n") {
		logger.Error(strings.ReplaceAll(str, "\t", ""))
	}
}
