package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
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

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// fakeQuery blocks until release is closed, then returns resp/err.
type fakeQuery struct {
	mu       sync.Mutex
	calls    []string
	release  chan struct{}
	response *models.SearchResponse
	err      error
}

func newFakeQuery(resp *models.SearchResponse, err error) *fakeQuery {
	q := &fakeQuery{release: make(chan struct{}), response: resp, err: err}
	close(q.release)
	return q
}

func newBlockingQuery(resp *models.SearchResponse, err error) *fakeQuery {
	return &fakeQuery{release: make(chan struct{}), response: resp, err: err}
}

func (q *fakeQuery) Execute(ctx context.Context, message string) (*models.SearchResponse, error) {
	q.mu.Lock()
	q.calls = append(q.calls, message)
	q.mu.Unlock()
	<-q.release
	return q.response, q.err
}

func (q *fakeQuery) Calls() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.calls...)
}

func newTestController(t *testing.T, q QueryService) (*Controller, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewController(q, n, NewTestLogger(t)), n
}

func waitCompletion(t *testing.T, c *Controller) Completion {
	t.Helper()
	select {
	case comp := <-c.Done():
		return comp
	case <-time.After(2 * time.Second):
		t.Fatal("query did not complete")
		return Completion{}
	}
}

// ==========================
// Submit guards
// ==========================

func TestController_Submit_IgnoresBlankInput(t *testing.T) {
	q := newFakeQuery(&models.SearchResponse{}, nil)
	c, n := newTestController(t, q)

	for _, input := range []string{"", "   ", "\n\t"} {
		c.SetInput(input)
		assert.False(t, c.Submit(context.Background()))
		assert.Equal(t, StateIdle, c.State())
		assert.Empty(t, c.Entries())
		assert.Equal(t, input, c.Input())
	}
	assert.Empty(t, q.Calls())
	assert.Empty(t, n.Messages())
}

func TestController_Submit_AppendsUserEntryBeforeResult(t *testing.T) {
	q := newBlockingQuery(&models.SearchResponse{}, nil)
	c, _ := newTestController(t, q)

	c.SetInput("  ramen near Portland  ")
	require.True(t, c.Submit(context.Background()))

	assert.Equal(t, StateSubmitting, c.State())
	assert.Equal(t, "", c.Input())

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.RoleUser, entries[0].Role)
	assert.Equal(t, "ramen near Portland", entries[0].Content)

	close(q.release)
	assert.Equal(t, OutcomeSuccess, c.Resolve(waitCompletion(t, c)))
	assert.Equal(t, []string{"ramen near Portland"}, q.Calls())
}

func TestController_Submit_IgnoredWhileSubmitting(t *testing.T) {
	q := newBlockingQuery(&models.SearchResponse{}, nil)
	c, _ := newTestController(t, q)

	c.SetInput("first")
	require.True(t, c.Submit(context.Background()))

	c.SetInput("second")
	assert.False(t, c.Submit(context.Background()))
	assert.Len(t, c.Entries(), 1)
	assert.Equal(t, "second", c.Input())
	assert.Equal(t, StateSubmitting, c.State())

	close(q.release)
	c.Resolve(waitCompletion(t, c))

	assert.Equal(t, []string{"first"}, q.Calls())
	assert.Equal(t, StateIdle, c.State())
}

// ==========================
// Outcomes
// ==========================

func TestController_Success(t *testing.T) {
	resp := &models.SearchResponse{Results: []models.Place{
		{Name: "Tsukiji", Location: models.Location{FormattedAddress: "1 Pike St"}},
		{Name: "Hole in the Wall"},
	}}
	c, n := newTestController(t, newFakeQuery(resp, nil))

	c.SetInput("sushi")
	outcome := c.SubmitAndWait(context.Background())

	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, n.Messages())

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.RoleAssistant, entries[1].Role)
	assert.Equal(t, "- Tsukiji (1 Pike St)\n- Hole in the Wall (Address N/A)", entries[1].Content)
}

func TestController_Success_EmptyResults(t *testing.T) {
	c, _ := newTestController(t, newFakeQuery(&models.SearchResponse{}, nil))

	c.SetInput("unicorn steakhouse near nowhere")
	assert.Equal(t, OutcomeSuccess, c.SubmitAndWait(context.Background()))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "No results found.", entries[1].Content)

	view := c.View()
	assert.False(t, view.Items[1].IsRestaurantResult)
}

func TestController_TransportFailure(t *testing.T) {
	c, n := newTestController(t, newFakeQuery(nil, errors.New("dial tcp: connection refused")))

	c.SetInput("tacos")
	assert.Equal(t, OutcomeTransportError, c.SubmitAndWait(context.Background()))

	assert.Equal(t, StateIdle, c.State())
	assert.Len(t, c.Entries(), 1)
	assert.Equal(t, []string{TransportFailureText}, n.Messages())
}

func TestController_NilResponseIsTransportFailure(t *testing.T) {
	c, n := newTestController(t, newFakeQuery(nil, nil))

	c.SetInput("tacos")
	assert.Equal(t, OutcomeTransportError, c.SubmitAndWait(context.Background()))
	assert.Len(t, c.Entries(), 1)
	assert.Equal(t, []string{TransportFailureText}, n.Messages())
}

func TestController_ApplicationFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "detail preferred",
			err:      &apperrors.APIError{Status: 400, Detail: "Please specify a location", Message: "ignored"},
			expected: "Please specify a location",
		},
		{
			name:     "message only",
			err:      &apperrors.APIError{Status: 500, Message: "upstream exploded"},
			expected: "upstream exploded",
		},
		{
			name:     "status only",
			err:      &apperrors.APIError{Status: 502},
			expected: "HTTP error! status: 502",
		},
		{
			name:     "wrapped",
			err:      errors.Join(errors.New("execute"), &apperrors.APIError{Status: 404, Detail: "not here"}),
			expected: "not here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, n := newTestController(t, newFakeQuery(nil, tt.err))

			c.SetInput("pizza")
			assert.Equal(t, OutcomeApplicationError, c.SubmitAndWait(context.Background()))
			assert.Equal(t, StateIdle, c.State())
			assert.Len(t, c.Entries(), 1)
			assert.Equal(t, []string{tt.expected}, n.Messages())
		})
	}
}

func TestController_RecoversAfterFailure(t *testing.T) {
	q := newFakeQuery(nil, errors.New("timeout"))
	c, _ := newTestController(t, q)

	c.SetInput("first")
	c.SubmitAndWait(context.Background())

	q.mu.Lock()
	q.err = nil
	q.response = &models.SearchResponse{Results: []models.Place{{Name: "A"}}}
	q.mu.Unlock()

	c.SetInput("second")
	assert.Equal(t, OutcomeSuccess, c.SubmitAndWait(context.Background()))

	entries := c.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, models.RoleUser, entries[0].Role)
	assert.Equal(t, models.RoleUser, entries[1].Role)
	assert.Equal(t, models.RoleAssistant, entries[2].Role)
}

func TestController_ResolveWhileIdleIsIgnored(t *testing.T) {
	c, n := newTestController(t, newFakeQuery(nil, nil))

	outcome := c.Resolve(Completion{Response: &models.SearchResponse{Results: []models.Place{{Name: "A"}}}})
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, c.Entries())
	assert.Empty(t, n.Messages())
}

func TestController_ViewDoesNotSubmit(t *testing.T) {
	q := newFakeQuery(&models.SearchResponse{}, nil)
	c, _ := newTestController(t, q)

	c.SetInput("burgers")
	for i := 0; i < 3; i++ {
		_ = c.View()
		_ = c.Entries()
	}
	assert.Empty(t, q.Calls())
	assert.Equal(t, StateIdle, c.State())
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "transport_error", OutcomeTransportError.String())
	assert.Equal(t, "application_error", OutcomeApplicationError.String())
	assert.Equal(t, "ignored", OutcomeIgnored.String())
}
