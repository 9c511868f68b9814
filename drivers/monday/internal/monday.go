package driver

import (
	"context"
	"fmt"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

const checkQuery = "query { me { id } }"

// Monday is the monday.com GraphQL source
type Monday struct {
	config  *Config
	client  *Client
	streams []abstract.Stream
}

func (m *Monday) GetConfigRef() abstract.Config {
	m.config = &Config{}
	return m.config
}

func (m *Monday) Spec() any {
	return Config{}
}

func (m *Monday) Type() string {
	return "monday"
}

// Setup validates the config, then prepares the client and the stream variants
func (m *Monday) Setup(_ context.Context) error {
	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}

	streams, err := newStreams(m.config)
	if err != nil {
		return fmt.Errorf("failed to load streams: %s", err)
	}

	m.client = NewClient(m.config)
	m.streams = streams
	return nil
}

// Check sends a minimal query to verify the token
func (m *Monday) Check(ctx context.Context) error {
	response, err := m.client.Request(ctx, &abstract.Request{
		Body:   map[string]string{"query": checkQuery},
		Stream: "check",
	})
	if err != nil {
		return fmt.Errorf("failed to reach monday.com: %w", err)
	}
	if abstract.First(response, "data.me") == nil {
		return fmt.Errorf("unexpected response to connection check")
	}

	logger.Info("Successfully connected to monday.com")
	return nil
}

func (m *Monday) Streams() []abstract.Stream {
	return m.streams
}

func (m *Monday) Requester() abstract.Requester {
	return m.client
}

func (m *Monday) StartDate() string {
	return m.config.StartTime()
}

func (m *Monday) Close() {
	if m.client != nil {
		m.client.httpClient.CloseIdleConnections()
	}
}
