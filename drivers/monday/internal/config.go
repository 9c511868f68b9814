package driver

import (
	"time"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/typeutils"
)

// Config holds the monday.com credentials and sync options
type Config struct {
	APIToken  string `json:"api_token" validate:"required"`
	StartDate string `json:"start_date" validate:"required,rfc3339" jsonschema:"format=date-time"`
	// RequestTimeout is in seconds
	RequestTimeout int    `json:"request_timeout,omitempty" validate:"gte=0"`
	APIVersion     string `json:"api_version,omitempty"`
	// PageSize overrides the page size per stream id
	PageSize   map[string]int `json:"page_size,omitempty" validate:"omitempty,dive,gt=0"`
	MaxRetries int            `json:"max_retries,omitempty" validate:"gte=0,lte=20"`
	// RateLimit is the number of requests per second
	RateLimit float64 `json:"rate_limit,omitempty" validate:"gte=0"`
	// BaseURL points the client to another endpoint, used by tests and proxies
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url" jsonschema:"format=uri"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return err
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = int(constants.DefaultRequestTimeout / time.Second)
	}
	if c.APIVersion == "" {
		c.APIVersion = constants.MondayAPIVersion
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = constants.DefaultMaxRetries
	}
	if c.RateLimit == 0 {
		c.RateLimit = constants.DefaultRateLimit
	}
	if c.BaseURL == "" {
		c.BaseURL = constants.MondayAPIURL
	}

	return nil
}

// Timeout returns the per request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// StartTime returns start_date normalized to RFC3339
func (c *Config) StartTime() string {
	parsed, err := typeutils.ParseTimestamp(c.StartDate)
	if err != nil {
		return c.StartDate
	}
	return typeutils.FormatTimestamp(parsed)
}

// PageSizeFor returns the configured page size of a stream or fallback
func (c *Config) PageSizeFor(stream string, fallback int) int {
	if size, found := c.PageSize[stream]; found && size > 0 {
		return size
	}
	return fallback
}
