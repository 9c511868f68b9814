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

package destination

import (
	"context"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/types"
)

type Config interface {
	Validate() error
}

type Options struct {
	// Identifier is the sync run id, shared by every writer of a run
	Identifier string
	Number     int64
}

type Writer interface {
	GetConfigRef() Config
	Spec() any
	Type() string
	// Check validates the config and reaches the destination
	//
	// Note: Check is called on a writer that is never Setup
	Check(ctx context.Context) error
	// Setup dedicates the writer to a single stream
	Setup(stream *abstract.StreamDefinition, opts *Options) error
	Write(ctx context.Context, record types.Record) error
	Close(ctx context.Context) error
}

// StateWriter is implemented by writers that forward replication state downstream
type StateWriter interface {
	WriteState(ctx context.Context, state *types.State) error
}
