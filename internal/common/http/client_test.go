package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "dinediscover/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ExecutePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMessage = req.Message

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotMessage
}

func TestQueryClient_Success(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"results":[
		{"fsq_id":"1","name":"Pok Pok","location":{"formatted_address":"3226 SE Division St"}},
		{"name":"No Address"}
	]}`)

	qc := NewQueryClient(srv.URL+"/", time.Second)
	resp, err := qc.Execute(context.Background(), "thai in portland")
	require.NoError(t, err)

	assert.Equal(t, "thai in portland", *got)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Pok Pok", resp.Results[0].Name)
	assert.Equal(t, "3226 SE Division St", resp.Results[0].Location.FormattedAddress)
	assert.Empty(t, resp.Results[1].Location.FormattedAddress)
}

func TestQueryClient_MissingResultsIsEmpty(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)

	resp, err := NewQueryClient(srv.URL, time.Second).Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestQueryClient_APIErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantDetail  string
		wantMessage string
		wantUser    string
	}{
		{
			name:       "string detail",
			status:     http.StatusBadRequest,
			body:       `{"detail":"Please specify a location"}`,
			wantDetail: "Please specify a location",
			wantUser:   "Please specify a location",
		},
		{
			name:       "structured detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["body","message"]}]}`,
			wantDetail: `[{"loc":["body","message"]}]`,
			wantUser:   `[{"loc":["body","message"]}]`,
		},
		{
			name:        "message only",
			status:      http.StatusInternalServerError,
			body:        `{"message":"boom"}`,
			wantMessage: "boom",
			wantUser:    "boom",
		},
		{
			name:     "null detail",
			status:   http.StatusBadGateway,
			body:     `{"detail":null}`,
			wantUser: "HTTP error! status: 502",
		},
		{
			name:     "not json",
			status:   http.StatusServiceUnavailable,
			body:     `<html>down</html>`,
			wantUser: "HTTP error! status: 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)

			_, err := NewQueryClient(srv.URL, time.Second).Execute(context.Background(), "q")
			require.Error(t, err)

			apiErr, ok := apperrors.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantUser, apiErr.UserMessage())
		})
	}
}

func TestQueryClient_MalformedSuccessBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"results": "nope"`)

	_, err := NewQueryClient(srv.URL, time.Second).Execute(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedResponse))
	_, isAPI := apperrors.AsAPIError(err)
	assert.False(t, isAPI)
}

func TestQueryClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewQueryClient(url, time.Second).Execute(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransport))
}

func TestQueryClient_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewQueryClient(srv.URL, 5*time.Second).Execute(ctx, "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransport))
}
