// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/models"
)

// ExecutePath is the backend route the chat client posts to.
const ExecutePath = "/api/execute"

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// QueryClient posts chat messages to the restaurant query endpoint.
type QueryClient struct {
	client  *Client
	baseURL string
}

func NewQueryClient(baseURL string, timeout time.Duration) *QueryClient {
	return &QueryClient{
		client:  NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type executeRequest struct {
	Message string `json:"message"`
}

// errorBody is decoded loosely: detail may be a string or any JSON value.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// Execute sends one message and decodes the search response.
// Non-2xx statuses come back as *errors.APIError; everything else that
// prevents a usable response wraps errors.ErrTransport or errors.ErrMalformedResponse.
func (q *QueryClient) Execute(ctx context.Context, message string) (*models.SearchResponse, error) {
	payload, err := json.Marshal(executeRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", apperrors.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+ExecutePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperrors.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var out models.SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}
	return &out, nil
}

// A body that is not JSON still yields an APIError carrying only the status.
func decodeAPIError(status int, body []byte) *apperrors.APIError {
	apiErr := &apperrors.APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}
	apiErr.Message = eb.Message

	raw := bytes.TrimSpace(eb.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return apiErr
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		apiErr.Detail = s
	} else {
		apiErr.Detail = string(raw)
	}
	return apiErr
}
