package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

type ErrorKind string

const (
	BadRequest          ErrorKind = "bad_request"
	Unauthorized        ErrorKind = "unauthorized"
	Forbidden           ErrorKind = "forbidden"
	NotFound            ErrorKind = "not_found"
	Conflict            ErrorKind = "conflict"
	UnprocessableEntity ErrorKind = "unprocessable_entity"
	RateLimited         ErrorKind = "rate_limited"
	InternalServer      ErrorKind = "internal_server_error"
	NotImplemented      ErrorKind = "not_implemented"
	BadGateway          ErrorKind = "bad_gateway"
	ServiceUnavailable  ErrorKind = "service_unavailable"
	Timeout             ErrorKind = "timeout"
	ConnectionReset     ErrorKind = "connection_reset"
	ChunkedEncoding     ErrorKind = "chunked_encoding"
	Unknown             ErrorKind = "unknown"
)

type statusInfo struct {
	kind    ErrorKind
	message string
}

var statusErrors = map[int]statusInfo{
	http.StatusBadRequest:          {BadRequest, "A validation exception has occurred."},
	http.StatusUnauthorized:        {Unauthorized, "The access token provided is expired, revoked, malformed or invalid for other reasons."},
	http.StatusForbidden:           {Forbidden, "You are missing the following required scopes: read"},
	http.StatusNotFound:            {NotFound, "The resource you have specified cannot be found."},
	http.StatusConflict:            {Conflict, "The API request cannot be completed because the requested operation would conflict with an existing item."},
	http.StatusUnprocessableEntity: {UnprocessableEntity, "The request content itself is not processable by the server."},
	http.StatusTooManyRequests:     {RateLimited, "The API rate limit for your organisation/application pairing has been exceeded."},
	http.StatusInternalServerError: {InternalServer, "The server encountered an unexpected condition which prevented it from fulfilling the request."},
	http.StatusNotImplemented:      {NotImplemented, "The server does not support the functionality required to fulfill the request."},
	http.StatusBadGateway:          {BadGateway, "Server received an invalid response."},
	http.StatusServiceUnavailable:  {ServiceUnavailable, "API service is currently unavailable."},
}

// MondayError is any failed round trip with the API
type MondayError struct {
	Kind    ErrorKind
	Status  int
	Message string
	// Code is errors[0].extensions.code of a graphql error response
	Code string
	// RetryAfter is the server requested delay of a rate limited response, zero when absent
	RetryAfter time.Duration
	cause      error
}

func (e *MondayError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("HTTP-error-code: %d, Error: %s, Error Extensions: %s", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("HTTP-error-code: %d, Error: %s", e.Status, e.Message)
}

func (e *MondayError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the request may succeed when sent again
func (e *MondayError) Retryable() bool {
	switch e.Kind {
	case RateLimited, InternalServer, BadGateway, ServiceUnavailable, Timeout, ConnectionReset, ChunkedEncoding:
		return true
	default:
		return false
	}
}

// responseError builds the error of a response carrying a failure status or a graphql errors list
func responseError(status int, body map[string]any) *MondayError {
	info, found := statusErrors[status]
	if !found {
		info = statusInfo{kind: Unknown, message: "Unknown Error"}
	}

	mondayErr := &MondayError{Kind: info.kind, Status: status, Message: info.message}
	if message, ok := body["message"].(string); ok && message != "" {
		mondayErr.Message = message
	}

	list, _ := body["errors"].([]any)
	if len(list) == 0 {
		return mondayErr
	}

	first, _ := list[0].(map[string]any)
	if message, ok := first["message"].(string); ok {
		mondayErr.Message = message
	}
	extensions, _ := first["extensions"].(map[string]any)
	if code, ok := extensions["code"].(string); ok {
		mondayErr.Code = code
	}
	if mondayErr.Code == "" {
		mondayErr.Code = "None"
	}
	if seconds, ok := extensions["retry_in_seconds"].(float64); ok && seconds >= 0 {
		mondayErr.RetryAfter = time.Duration(seconds * float64(time.Second))
	}

	return mondayErr
}

// transportError classifies a failure that happened before a response was read
func transportError(err error) *MondayError {
	kind := ConnectionReset
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = Unknown
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = Timeout
	case errors.Is(err, io.ErrUnexpectedEOF):
		kind = ChunkedEncoding
	}
	return &MondayError{Kind: kind, Message: err.Error(), cause: err}
}
