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

package types

import "time"

type MessageType string

const (
	SchemaMessage           MessageType = "SCHEMA"
	RecordMessage           MessageType = "RECORD"
	StateMessage            MessageType = "STATE"
	ConnectionStatusMessage MessageType = "CONNECTION_STATUS"
	CatalogMessage          MessageType = "CATALOG"
	SpecMessage             MessageType = "SPEC"
)

type ConnectionStatus string

const (
	ConnectionSucceed ConnectionStatus = "SUCCEEDED"
	ConnectionFailed  ConnectionStatus = "FAILED"
)

// Message is a dto for a single line of connector output
type Message struct {
	Type MessageType `json:"type"`

	// SCHEMA and RECORD
	Stream             string     `json:"stream,omitempty"`
	Schema             *Schema    `json:"schema,omitempty"`
	KeyProperties      []string   `json:"key_properties,omitempty"`
	BookmarkProperties []string   `json:"bookmark_properties,omitempty"`
	Record             Record     `json:"record,omitempty"`
	TimeExtracted      *time.Time `json:"time_extracted,omitempty"`

	// STATE
	Value *State `json:"value,omitempty"`

	ConnectionStatus *StatusRow     `json:"connectionStatus,omitempty"`
	Catalog          *Catalog       `json:"catalog,omitempty"`
	Spec             map[string]any `json:"spec,omitempty"`
}

// StatusRow is a dto for check result serialization
type StatusRow struct {
	Status  ConnectionStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}
