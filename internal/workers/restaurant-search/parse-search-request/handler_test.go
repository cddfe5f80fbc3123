// internal/workers/restaurant-search/parse-search-request/handler_test.go
package parsesearchrequest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinediscover/internal/common/camunda/camundatest"
	"dinediscover/internal/common/config"
	apperrors "dinediscover/internal/common/errors"
	"dinediscover/pkg/registry"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Test Helper Functions
// ==========================

func toolCallResponse(name, arguments string) string {
	resp := map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{
				"finish_reason": "tool_calls",
				"message": map[string]interface{}{
					"role": "assistant",
					"tool_calls": []interface{}{
						map[string]interface{}{
							"id":   "call_1",
							"type": "function",
							"function": map[string]interface{}{
								"name":      name,
								"arguments": arguments,
							},
						},
					},
				},
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func textResponse(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			},
		},
	})
	return string(data)
}

type capturedRequest struct {
	auth string
	body chatRequest
}

func newLLMServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		captured.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestHandler(t *testing.T, baseURL string) *Handler {
	t.Helper()
	cfg := LoadConfig(config.LLMConfig{BaseURL: baseURL, APIKey: "test-key", Timeout: 2000})
	h, err := NewHandler(cfg, registry.Default(), NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.StandardError {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %T: %v", err, err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
		validate  func(t *testing.T, out *Output)
	}{
		{
			name:      "near with query",
			arguments: `{"query":"ramen","near":"Portland, OR"}`,
			validate: func(t *testing.T, out *Output) {
				assert.Equal(t, "ramen", out.Params.Query)
				assert.Equal(t, "Portland, OR", out.Params.Near)
				require.NotNil(t, out.Params.Limit)
				assert.Equal(t, 10, *out.Params.Limit)
			},
		},
		{
			name:      "coordinates with radius and options",
			arguments: `{"ll":"40.7128,-74.0060","radius":1500,"limit":5,"open_now":true,"sort":"DISTANCE","price":"1,2"}`,
			validate: func(t *testing.T, out *Output) {
				assert.Equal(t, "40.7128,-74.0060", out.Params.LL)
				require.NotNil(t, out.Params.Radius)
				assert.Equal(t, 1500, *out.Params.Radius)
				assert.Equal(t, 5, *out.Params.Limit)
				require.NotNil(t, out.Params.OpenNow)
				assert.True(t, *out.Params.OpenNow)
				assert.Equal(t, "DISTANCE", out.Params.Sort)
			},
		},
		{
			name:      "null values are ignored",
			arguments: `{"query":"tacos","near":"Austin","sort":null,"radius":null}`,
			validate: func(t *testing.T, out *Output) {
				assert.Empty(t, out.Params.Sort)
				assert.Nil(t, out.Params.Radius)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, captured := newLLMServer(t, http.StatusOK, toolCallResponse("restaurant_search", tt.arguments))
			h := newTestHandler(t, srv.URL)

			out, err := h.Execute(context.Background(), &Input{Message: "  find food  "})
			require.NoError(t, err)
			assert.Equal(t, "restaurant_search", out.ToolName)
			tt.validate(t, out)

			assert.Equal(t, "Bearer test-key", captured.auth)
			assert.Equal(t, config.DefaultLLMModel, captured.body.Model)
			require.Len(t, captured.body.Messages, 2)
			assert.Equal(t, "system", captured.body.Messages[0].Role)
			assert.Equal(t, DefaultSystemPrompt, captured.body.Messages[0].Content)
			assert.Equal(t, "find food", captured.body.Messages[1].Content)
			assert.Equal(t, "function", captured.body.ToolChoice["type"])
			require.Len(t, captured.body.Tools, 1)
		})
	}
}

// ==========================
// Error Mapping Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		code        apperrors.ErrorCode
		wantMessage string
	}{
		{
			name:        "no tool call uses assistant text",
			status:      http.StatusOK,
			body:        textResponse("Which city are you in?"),
			code:        apperrors.ErrCodeNoToolCall,
			wantMessage: "Which city are you in?",
		},
		{
			name:        "no tool call and no text",
			status:      http.StatusOK,
			body:        textResponse(""),
			code:        apperrors.ErrCodeNoToolCall,
			wantMessage: apperrors.MsgRephrase,
		},
		{
			name:        "different function",
			status:      http.StatusOK,
			body:        toolCallResponse("weather", `{}`),
			code:        apperrors.ErrCodeNoToolCall,
			wantMessage: apperrors.MsgRephrase,
		},
		{
			name:        "invalid json arguments",
			status:      http.StatusOK,
			body:        toolCallResponse("restaurant_search", `{"near": "Boston"`),
			code:        apperrors.ErrCodeInvalidToolArguments,
			wantMessage: apperrors.MsgInvalidToolJSON,
		},
		{
			name:        "radius above maximum",
			status:      http.StatusOK,
			body:        toolCallResponse("restaurant_search", `{"ll":"1,2","radius":250000}`),
			code:        apperrors.ErrCodeInvalidSearchParams,
			wantMessage: "Invalid parameter for 'radius'",
		},
		{
			name:        "sort outside enum",
			status:      http.StatusOK,
			body:        toolCallResponse("restaurant_search", `{"near":"Boston","sort":"RATING"}`),
			code:        apperrors.ErrCodeInvalidSearchParams,
			wantMessage: "Invalid parameter for 'sort'",
		},
		{
			name:        "no location",
			status:      http.StatusOK,
			body:        toolCallResponse("restaurant_search", `{"query":"pizza"}`),
			code:        apperrors.ErrCodeMissingLocation,
			wantMessage: apperrors.MsgMissingLocation,
		},
		{
			name:        "ll without radius",
			status:      http.StatusOK,
			body:        toolCallResponse("restaurant_search", `{"ll":"40.1,-74.2"}`),
			code:        apperrors.ErrCodeMissingLocation,
			wantMessage: apperrors.MsgMissingLocation,
		},
		{
			name:        "upstream failure",
			status:      http.StatusTooManyRequests,
			body:        `{"error":"rate limited"}`,
			code:        apperrors.ErrCodeLLMRequestFailed,
			wantMessage: apperrors.MsgInternal,
		},
		{
			name:        "undecodable completion",
			status:      http.StatusOK,
			body:        `not json`,
			code:        apperrors.ErrCodeLLMRequestFailed,
			wantMessage: apperrors.MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newLLMServer(t, tt.status, tt.body)
			h := newTestHandler(t, srv.URL)

			_, err := h.Execute(context.Background(), &Input{Message: "food"})
			stdErr := requireCode(t, err, tt.code)
			assert.Contains(t, stdErr.Message, tt.wantMessage)
		})
	}
}

func TestHandler_Execute_EmptyMessage(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1")
	_, err := h.Execute(context.Background(), &Input{Message: "   "})
	requireCode(t, err, apperrors.ErrCodeInvalidRequest)
}

func TestHandler_Execute_MissingAPIKey(t *testing.T) {
	cfg := LoadConfig(config.LLMConfig{BaseURL: "http://127.0.0.1:1"})
	h, err := NewHandler(cfg, registry.Default(), NewTestLogger(t))
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{Message: "sushi"})
	requireCode(t, err, apperrors.ErrCodeLLMRequestFailed)
}

func TestHandler_Execute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{Message: "sushi"})
	requireCode(t, err, apperrors.ErrCodeLLMTimeout)
}

// ==========================
// Job Handling Tests
// ==========================

func TestHandler_Handle_CompletesJob(t *testing.T) {
	srv, _ := newLLMServer(t, http.StatusOK, toolCallResponse("restaurant_search", `{"query":"ramen","near":"Portland, OR"}`))
	h := newTestHandler(t, srv.URL)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.NewJob(11, TaskType, 3, `{"message":"ramen in portland"}`))

	completed := client.Gateway.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(11), completed[0].JobKey)

	var out Output
	require.NoError(t, json.Unmarshal([]byte(completed[0].Variables), &out))
	assert.Equal(t, "restaurant_search", out.ToolName)
	assert.Equal(t, "Portland, OR", out.Params.Near)
	assert.Empty(t, client.Gateway.Failed())
	assert.Empty(t, client.Gateway.Thrown())
}

func TestHandler_Handle_ReportsTimeoutAfterDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := LoadConfig(config.LLMConfig{BaseURL: srv.URL, APIKey: "test-key", Timeout: 50})
	h, err := NewHandler(cfg, registry.Default(), NewTestLogger(t))
	require.NoError(t, err)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.NewJob(12, TaskType, 3, `{"message":"sushi"}`))

	assert.Empty(t, client.Gateway.Rejected())
	failed := client.Gateway.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(12), failed[0].JobKey)
	assert.Equal(t, int32(1), failed[0].Retries)
	assert.Contains(t, failed[0].Variables, string(apperrors.ErrCodeLLMTimeout))
}

func TestHandler_Handle_ThrowsBusinessErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		variables string
		wantCode  string
	}{
		{
			name:      "no tool call",
			body:      textResponse("I only know restaurants."),
			variables: `{"message":"tell me a joke"}`,
			wantCode:  "NO_TOOL_CALL",
		},
		{
			name:      "undecodable variables",
			body:      textResponse(""),
			variables: `not json`,
			wantCode:  "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newLLMServer(t, http.StatusOK, tt.body)
			h := newTestHandler(t, srv.URL)
			client := camundatest.NewJobClient()

			h.Handle(client, camundatest.NewJob(13, TaskType, 3, tt.variables))

			thrown := client.Gateway.Thrown()
			require.Len(t, thrown, 1)
			assert.Equal(t, tt.wantCode, thrown[0].ErrorCode)
			assert.Empty(t, client.Gateway.Failed())
			assert.Empty(t, client.Gateway.Completed())
		})
	}
}

func TestNewHandler_RequiresTool(t *testing.T) {
	_, err := NewHandler(LoadConfig(config.LLMConfig{}), &registry.ToolRegistry{}, NewTestLogger(t))
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(config.LLMConfig{})
	assert.Equal(t, config.DefaultLLMBaseURL, cfg.BaseURL)
	assert.Equal(t, config.DefaultLLMModel, cfg.Model)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
