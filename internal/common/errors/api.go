package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks failures where no usable response was obtained from the query endpoint.
	ErrTransport = errors.New("QUERY_TRANSPORT_FAILED")
	// ErrMalformedResponse marks a success status whose body could not be decoded.
	ErrMalformedResponse = errors.New("QUERY_RESPONSE_MALFORMED")
)

// APIError is a non-success response from the query endpoint.
// Detail and Message are taken from the error body when present.
type APIError struct {
	Status  int    `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError[%d]: %s", e.Status, e.UserMessage())
}

// UserMessage picks detail, then message, then a generic status line.
func (e *APIError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// AsAPIError unwraps err into an *APIError when it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
