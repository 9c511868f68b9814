package singer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/olake-monday/destination"
	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
)

var (
	output io.Writer = os.Stdout
	// every stream writer shares output; lines must not interleave
	omu sync.Mutex
)

type Config struct {
	// TimeExtracted stamps every record message with the time it was written
	TimeExtracted bool `json:"time_extracted,omitempty"`
}

func (c *Config) Validate() error {
	return utils.Validate(c)
}

// Singer emits SCHEMA, RECORD and STATE messages as json lines
type Singer struct {
	config *Config
	stream *abstract.StreamDefinition
}

func (s *Singer) GetConfigRef() destination.Config {
	s.config = &Config{}
	return s.config
}

func (s *Singer) Spec() any {
	return Config{}
}

func (s *Singer) Type() string {
	return string(types.Singer)
}

func (s *Singer) Check(_ context.Context) error {
	return s.config.Validate()
}

func (s *Singer) Setup(stream *abstract.StreamDefinition, _ *destination.Options) error {
	s.stream = stream
	return emit(&types.Message{
		Type:               types.SchemaMessage,
		Stream:             stream.ID,
		Schema:             stream.Schema,
		KeyProperties:      stream.KeyProperties,
		BookmarkProperties: stream.BookmarkProperties(),
	})
}

func (s *Singer) Write(_ context.Context, record types.Record) error {
	if s.stream == nil {
		return fmt.Errorf("singer writer used before setup")
	}

	message := &types.Message{Type: types.RecordMessage, Stream: s.stream.ID, Record: record}
	if s.config != nil && s.config.TimeExtracted {
		now := time.Now().UTC()
		message.TimeExtracted = &now
	}
	return emit(message)
}

func (s *Singer) WriteState(_ context.Context, state *types.State) error {
	return emit(&types.Message{Type: types.StateMessage, Value: state})
}

func (s *Singer) Close(_ context.Context) error {
	return nil
}

func emit(message *types.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %s", message.Type, err)
	}

	omu.Lock()
	defer omu.Unlock()
	_, err = fmt.Fprintln(output, string(data))
	return err
}

func init() {
	destination.RegisteredWriters[types.Singer] = func() destination.Writer {
		return new(Singer)
	}
}
