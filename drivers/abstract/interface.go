package abstract

import (
	"context"

	"github.com/datazip-inc/olake-monday/types"
)

type Config interface {
	Validate() error
}

// Request is a single call on the HTTP collaborator
type Request struct {
	Method   string
	Endpoint string
	Params   map[string]string
	Headers  map[string]string
	Body     any
	// Stream labels metrics and logs
	Stream string
}

// Requester performs a request, retrying transient failures, and returns the decoded json body
type Requester interface {
	Request(ctx context.Context, req *Request) (map[string]any, error)
}

// Stream is the capability every stream variant implements
type Stream interface {
	Definition() *StreamDefinition
	// BuildRequest renders the request for the given page; parent is nil for root streams
	BuildRequest(parent types.Record, page *PageState) (*Request, error)
	// ExtractPage returns the raw records of a response and stores the continuation token in page
	ExtractPage(response map[string]any, page *PageState) ([]map[string]any, error)
	NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error)
}

// Embedded streams are read out of their parent's payload without any request
type Embedded interface {
	ExtractEmbedded(parent types.Record) ([]map[string]any, error)
}

// Catalog answers selection queries without side effects
type Catalog interface {
	IsSelected(streamID string) bool
	Transform(streamID string, record types.Record) types.Record
}

// Sink receives everything a sync produces
type Sink interface {
	WriteSchema(ctx context.Context, def *StreamDefinition) error
	WriteRecord(ctx context.Context, streamID string, record types.Record) error
	WriteState(ctx context.Context, state *types.State) error
}

type DriverInterface interface {
	GetConfigRef() Config
	Spec() any
	Type() string
	// Setup validates the config and prepares the API client
	Setup(ctx context.Context) error
	// Check performs a live round trip with the API
	Check(ctx context.Context) error
	Streams() []Stream
	Requester() Requester
	StartDate() string
}
