package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/pkg/metrics"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

const (
	defaultInitialInterval = 2 * time.Second
	defaultMaxInterval     = 2 * time.Minute
	rateBurst              = 1
)

// Client is the rate limited, retrying http collaborator of every stream
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	// initialInterval is the first backoff delay, doubled on every retry
	initialInterval time.Duration
}

func NewClient(config *Config) *Client {
	return &Client{
		config:          config,
		httpClient:      &http.Client{Timeout: config.Timeout()},
		limiter:         rate.NewLimiter(rate.Limit(config.RateLimit), rateBurst),
		initialInterval: defaultInitialInterval,
	}
}

// retryAfterBackOff waits for the delay requested by a rate limited response
// instead of the next exponential step
type retryAfterBackOff struct {
	backoff.BackOff
	retryAfter time.Duration
}

func (r *retryAfterBackOff) NextBackOff() time.Duration {
	next := r.BackOff.NextBackOff()
	if next == backoff.Stop || r.retryAfter <= 0 {
		return next
	}
	wait := r.retryAfter
	r.retryAfter = 0
	return wait
}

func (c *Client) newBackOff() *retryAfterBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.initialInterval
	expo.Multiplier = 2
	expo.MaxInterval = defaultMaxInterval
	expo.MaxElapsedTime = 0
	return &retryAfterBackOff{BackOff: expo}
}

// Request sends req and returns its decoded body, retrying rate limits, server
// and transport failures until max_retries attempts have been made
func (c *Client) Request(ctx context.Context, req *abstract.Request) (map[string]any, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported method: %s", method)
	}

	var payload []byte
	if method == http.MethodPost && req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %s", err)
		}
		payload = encoded
	}

	policy := c.newBackOff()
	retries := uint64(0)
	if c.config.MaxRetries > 1 {
		retries = uint64(c.config.MaxRetries - 1)
	}

	var response map[string]any
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		body, err := c.do(ctx, method, req, payload)
		if err != nil {
			var mondayErr *MondayError
			if errors.As(err, &mondayErr) && mondayErr.Retryable() {
				policy.retryAfter = mondayErr.RetryAfter
				return err
			}
			return backoff.Permanent(err)
		}

		response = body
		return nil
	}

	notify := func(err error, wait time.Duration) {
		kind := string(Unknown)
		var mondayErr *MondayError
		if errors.As(err, &mondayErr) {
			kind = string(mondayErr.Kind)
		}
		metrics.Retries.WithLabelValues(req.Stream, kind).Inc()
		logger.Warnf("stream[%s]: request failed, retrying in %s: %s", req.Stream, wait, err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) do(ctx context.Context, method string, req *abstract.Request, payload []byte) (map[string]any, error) {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = c.config.BaseURL
	}
	if len(req.Params) > 0 {
		query := url.Values{}
		for key, value := range req.Params {
			query.Set(key, value)
		}
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("API-Version", c.config.APIVersion)
	httpReq.Header.Set("Authorization", c.config.APIToken)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.RequestDuration.WithLabelValues(req.Stream).Observe(elapsed.Seconds())
	metrics.Requests.WithLabelValues(req.Stream, strconv.Itoa(resp.StatusCode)).Inc()
	logger.LogRequest(req.Stream, resp.StatusCode, elapsed)
	if err != nil {
		return nil, transportError(err)
	}

	var body map[string]any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil && isSuccess(resp.StatusCode) {
			return nil, fmt.Errorf("failed to decode response of stream %s: %s", req.Stream, err)
		}
	}

	if !isSuccess(resp.StatusCode) || body["errors"] != nil {
		return nil, responseError(resp.StatusCode, body)
	}
	return body, nil
}

func isSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated || status == http.StatusNoContent
}
