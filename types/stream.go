package types

type ReplicationMethod string

const (
	Incremental ReplicationMethod = "INCREMENTAL"
	FullTable   ReplicationMethod = "FULL_TABLE"
)

// Metadata is a singer style metadata entry; an empty breadcrumb addresses the
// stream itself and ["properties", <field>] addresses a field
type Metadata struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   MetadataValues `json:"metadata"`
}

type MetadataValues struct {
	Selected                *bool             `json:"selected,omitempty"`
	Inclusion               string            `json:"inclusion,omitempty"`
	ForcedReplicationMethod ReplicationMethod `json:"forced-replication-method,omitempty"`
	ValidReplicationKeys    []string          `json:"valid-replication-keys,omitempty"`
	TableKeyProperties      []string          `json:"table-key-properties,omitempty"`
	ParentTapStreamID       string            `json:"parent-tap-stream-id,omitempty"`
}

const (
	InclusionAutomatic   = "automatic"
	InclusionAvailable   = "available"
	InclusionUnsupported = "unsupported"
)

// Stream is a catalog entry
type Stream struct {
	TapStreamID   string     `json:"tap_stream_id"`
	Stream        string     `json:"stream"`
	KeyProperties []string   `json:"key_properties"`
	Schema        *Schema    `json:"schema"`
	Metadata      []Metadata `json:"metadata"`
}

func (s *Stream) ID() string {
	return s.TapStreamID
}

// StreamMetadata returns the stream level metadata values
func (s *Stream) StreamMetadata() *MetadataValues {
	for idx := range s.Metadata {
		if len(s.Metadata[idx].Breadcrumb) == 0 {
			return &s.Metadata[idx].Metadata
		}
	}
	return nil
}

func (s *Stream) fieldMetadata(field string) *MetadataValues {
	for idx := range s.Metadata {
		crumb := s.Metadata[idx].Breadcrumb
		if len(crumb) == 2 && crumb[0] == "properties" && crumb[1] == field {
			return &s.Metadata[idx].Metadata
		}
	}
	return nil
}

// Selected reports whether the stream was selected in the catalog
func (s *Stream) Selected() bool {
	meta := s.StreamMetadata()
	return meta != nil && meta.Selected != nil && *meta.Selected
}

// FieldSelected reports whether a field should be written; automatic fields are
// always written and fields without metadata default to selected
func (s *Stream) FieldSelected(field string) bool {
	meta := s.fieldMetadata(field)
	if meta == nil {
		return true
	}
	if meta.Inclusion == InclusionAutomatic {
		return true
	}
	if meta.Inclusion == InclusionUnsupported {
		return false
	}
	return meta.Selected == nil || *meta.Selected
}

// Transform applies the schema and field selection to a record
func (s *Stream) Transform(record Record) Record {
	filtered := s.Schema.Filter(record)
	for key := range filtered {
		if !s.FieldSelected(key) {
			delete(filtered, key)
		}
	}
	return filtered
}
