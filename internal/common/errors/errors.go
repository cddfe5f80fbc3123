// Package errors provides standardized error handling for the search pipeline and its workflow jobs.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeLLMRequestFailed     ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeNoToolCall           ErrorCode = "NO_TOOL_CALL"
	ErrCodeInvalidToolArguments ErrorCode = "INVALID_TOOL_ARGUMENTS"
	ErrCodeInvalidSearchParams  ErrorCode = "INVALID_SEARCH_PARAMS"
	ErrCodeMissingLocation      ErrorCode = "MISSING_LOCATION"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"

	ErrCodePlacesNotConfigured    ErrorCode = "PLACES_NOT_CONFIGURED"
	ErrCodePlacesClientError      ErrorCode = "PLACES_CLIENT_ERROR"
	ErrCodePlacesUnavailable      ErrorCode = "PLACES_UNAVAILABLE"
	ErrCodePlacesConnectionFailed ErrorCode = "PLACES_CONNECTION_FAILED"
	ErrCodePlacesResponseInvalid  ErrorCode = "PLACES_RESPONSE_INVALID"
	ErrCodeSearchIndexFailed      ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeSearchLogFailed ErrorCode = "SEARCH_LOG_FAILED"

	ErrCodeWorkflowUnavailable ErrorCode = "WORKFLOW_UNAVAILABLE"
	ErrCodeWorkflowTimeout     ErrorCode = "WORKFLOW_TIMEOUT"
	ErrCodeWorkflowRejected    ErrorCode = "WORKFLOW_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// User-facing messages. These end up in the "detail" field of error responses.
const (
	MsgInternal            = "An internal server error occurred."
	MsgInvalidToolJSON     = "LLM returned invalid JSON for tool arguments."
	MsgMissingLocation     = "Please specify a location for the search (e.g., 'near downtown LA', or provide coordinates)."
	MsgRephrase            = "Sorry, I couldn't determine the search parameters from your request. Could you please rephrase?"
	MsgPlacesNotConfigured = "Foursquare API key is not configured."
	MsgPlacesUnavailable   = "The restaurant service (Foursquare) is currently unavailable. Please try again later."
	MsgPlacesBadRequest    = "Could not process the request. Please check the location or search terms."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandardError unwraps err into a *StandardError when it carries one.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewLLMRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMRequestFailed,
		Message:   MsgInternal,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   MsgInternal,
		Details:   "LLM call exceeded timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoToolCallError uses the model's own reply as the message when it gave one.
func NewNoToolCallError(llmContent string) *StandardError {
	msg := strings.TrimSpace(llmContent)
	if msg == "" {
		msg = MsgRephrase
	}
	return &StandardError{
		Code:      ErrCodeNoToolCall,
		Message:   msg,
		Details:   "model did not call restaurant_search",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidToolArgumentsError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidToolArguments,
		Message:   MsgInvalidToolJSON,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidSearchParamsError(field, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSearchParams,
		Message:   fmt.Sprintf("Invalid parameter for '%s': %s. Please check your request.", field, reason),
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingLocationError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingLocation,
		Message:   MsgMissingLocation,
		Details:   "must specify either ll and radius, or near, or both ne and sw",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request body must contain a non-empty 'message' string.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPlacesNotConfiguredError() *StandardError {
	return &StandardError{
		Code:      ErrCodePlacesNotConfigured,
		Message:   MsgPlacesNotConfigured,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlacesClientError builds the user-facing message for a 4xx from the places provider.
// A 400 on a near/ll search is reported against the location the user gave.
func NewPlacesClientError(status int, providerMsg string, near, ll string) *StandardError {
	msg := MsgPlacesBadRequest
	if providerMsg != "" {
		msg = "Restaurant search failed: " + providerMsg
	}
	if status == http.StatusBadRequest {
		switch {
		case near != "":
			msg = fmt.Sprintf("Could not find results for the location: '%s'. Please check the location name or try a different one.", near)
		case ll != "":
			msg = fmt.Sprintf("Could not find results for the provided coordinates: '%s'. Please check the coordinates.", ll)
		}
	}
	return &StandardError{
		Code:      ErrCodePlacesClientError,
		Message:   msg,
		Details:   fmt.Sprintf("status: %d, message: %s", status, providerMsg),
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewPlacesUnavailableError(status int) *StandardError {
	return &StandardError{
		Code:      ErrCodePlacesUnavailable,
		Message:   MsgPlacesUnavailable,
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewPlacesConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlacesConnectionFailed,
		Message:   fmt.Sprintf("Could not connect to Foursquare API: %v", err),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewPlacesResponseInvalidError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlacesResponseInvalid,
		Message:   MsgPlacesUnavailable,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   MsgPlacesUnavailable,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchLogFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchLogFailed,
		Message:   "Failed to record search",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowError describes a failed call to the workflow broker.
func NewWorkflowError(code ErrorCode, operation string, err error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("Workflow operation '%s' failed", operation),
		Details:   err.Error(),
		Retryable: code != ErrCodeWorkflowRejected,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   MsgInternal,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLLMRequestFailed:       "LLM_REQUEST_FAILED",
	ErrCodeLLMTimeout:             "LLM_TIMEOUT",
	ErrCodeNoToolCall:             "NO_TOOL_CALL",
	ErrCodeInvalidToolArguments:   "INVALID_TOOL_ARGUMENTS",
	ErrCodeInvalidSearchParams:    "INVALID_SEARCH_PARAMS",
	ErrCodeMissingLocation:        "MISSING_LOCATION",
	ErrCodeInvalidRequest:         "INVALID_REQUEST",
	ErrCodePlacesNotConfigured:    "PLACES_NOT_CONFIGURED",
	ErrCodePlacesClientError:      "PLACES_CLIENT_ERROR",
	ErrCodePlacesUnavailable:      "PLACES_UNAVAILABLE",
	ErrCodePlacesConnectionFailed: "PLACES_CONNECTION_FAILED",
	ErrCodePlacesResponseInvalid:  "PLACES_RESPONSE_INVALID",
	ErrCodeSearchIndexFailed:      "SEARCH_INDEX_FAILED",
	ErrCodeSearchLogFailed:        "SEARCH_LOG_FAILED",
}

// HTTPStatus maps an error code to the status returned by the query endpoint.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNoToolCall,
		ErrCodeInvalidSearchParams,
		ErrCodeMissingLocation,
		ErrCodePlacesClientError:
		return http.StatusBadRequest
	case ErrCodeInvalidRequest:
		return http.StatusUnprocessableEntity
	case ErrCodePlacesUnavailable,
		ErrCodePlacesResponseInvalid,
		ErrCodeSearchIndexFailed:
		return http.StatusBadGateway
	case ErrCodePlacesConnectionFailed,
		ErrCodeWorkflowUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeWorkflowTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLLMRequestFailed,
		ErrCodePlacesConnectionFailed,
		ErrCodeSearchLogFailed,
		ErrCodeWorkflowUnavailable:
		return 3

	case ErrCodePlacesUnavailable,
		ErrCodeSearchIndexFailed:
		return 2

	case ErrCodeLLMTimeout,
		ErrCodeWorkflowTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LLM") || strings.Contains(codeStr, "TOOL"):
		return "AI"
	case strings.HasPrefix(codeStr, "PLACES") || strings.Contains(codeStr, "SEARCH_INDEX"):
		return "PLACES"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "SEARCH_LOG"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
