package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/common/metrics"
	"dinediscover/internal/models"
)

const (
	// TransportFailureText is shown when the query could not be completed at all.
	TransportFailureText = "Failed to fetch results. Please check the console."
	// AddressUnavailable stands in for a result without a formatted address.
	AddressUnavailable = "Address N/A"
)

// State is the submission state. Exactly one request may be outstanding.
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is how a submit cycle ended.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeSuccess
	OutcomeApplicationError
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeSuccess:
		return "success"
	case OutcomeApplicationError:
		return "application_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// QueryService turns one message into restaurant results.
// Application failures are returned as *errors.APIError; any other error is a transport failure.
type QueryService interface {
	Execute(ctx context.Context, message string) (*models.SearchResponse, error)
}

// Notifier raises a transient user-visible message.
type Notifier interface {
	Notify(message string)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Completion carries the result of one query back to the owning goroutine.
type Completion struct {
	Message  string
	Response *models.SearchResponse
	Err      error
	Duration time.Duration
}

// Controller owns the transcript, the input buffer and the submission state.
// All methods except the query itself run on the caller's goroutine; the
// query result comes back on Done and is applied with Resolve.
type Controller struct {
	query      QueryService
	notifier   Notifier
	parser     ResultParser
	logger     Logger
	transcript *Transcript
	state      State
	input      string
	done       chan Completion
}

func NewController(query QueryService, notifier Notifier, log Logger) *Controller {
	return &Controller{
		query:      query,
		notifier:   notifier,
		parser:     LineParser{},
		logger:     log.With(map[string]interface{}{"component": "chat-controller"}),
		transcript: NewTranscript(),
		state:      StateIdle,
		done:       make(chan Completion, 1),
	}
}

// UseParser swaps the result parser used for views.
func (c *Controller) UseParser(p ResultParser) {
	c.parser = p
}

func (c *Controller) SetInput(text string) {
	c.input = text
}

func (c *Controller) Input() string {
	return c.input
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Submitting() bool {
	return c.state == StateSubmitting
}

func (c *Controller) Entries() []models.ChatEntry {
	return c.transcript.Entries()
}

// Done delivers the completion of the outstanding query.
func (c *Controller) Done() <-chan Completion {
	return c.done
}

// Submit starts a query for the current input. It returns false without
// side effects when a query is already outstanding or the input is blank.
func (c *Controller) Submit(ctx context.Context) bool {
	if c.state == StateSubmitting {
		return false
	}
	message := strings.TrimSpace(c.input)
	if message == "" {
		return false
	}

	c.state = StateSubmitting
	entry := c.transcript.Append(models.NewChatEntry(models.RoleUser, message))
	c.input = ""

	c.logger.Info("submitting query", map[string]interface{}{
		"entryId": entry.ID,
		"seq":     entry.Seq,
	})

	go func() {
		start := time.Now()
		resp, err := c.query.Execute(ctx, message)
		c.done <- Completion{
			Message:  message,
			Response: resp,
			Err:      err,
			Duration: time.Since(start),
		}
	}()

	return true
}

// Resolve applies a completion to the transcript. The submitting state is
// cleared on every path.
func (c *Controller) Resolve(comp Completion) (outcome Outcome) {
	if c.state != StateSubmitting {
		return OutcomeIgnored
	}
	defer func() {
		c.state = StateIdle
		metrics.ChatSubmissions.WithLabelValues(outcome.String()).Inc()
	}()

	fields := map[string]interface{}{
		"durationMs": comp.Duration.Milliseconds(),
	}

	if comp.Err != nil {
		if apiErr, ok := apperrors.AsAPIError(comp.Err); ok {
			fields["status"] = apiErr.Status
			c.logger.Warn("query rejected", fields)
			c.notifier.Notify(apiErr.UserMessage())
			return OutcomeApplicationError
		}
		fields["error"] = comp.Err.Error()
		c.logger.Error("query failed", fields)
		c.notifier.Notify(TransportFailureText)
		return OutcomeTransportError
	}

	if comp.Response == nil {
		c.logger.Error("query returned no response", fields)
		c.notifier.Notify(TransportFailureText)
		return OutcomeTransportError
	}

	entry := c.transcript.Append(models.NewChatEntry(models.RoleAssistant, FormatResults(comp.Response.Results)))

	fields["resultCount"] = len(comp.Response.Results)
	fields["entryId"] = entry.ID
	c.logger.Info("query answered", fields)
	return OutcomeSuccess
}

// SubmitAndWait submits and blocks until the query resolves.
func (c *Controller) SubmitAndWait(ctx context.Context) Outcome {
	if !c.Submit(ctx) {
		return OutcomeIgnored
	}
	return c.Resolve(<-c.done)
}

// View builds the read-only render view of the current state.
func (c *Controller) View() View {
	return BuildView(c.transcript.Entries(), c.Submitting(), c.parser)
}

// FormatResults renders places as bullet lines, or NoResultsText when empty.
func FormatResults(places []models.Place) string {
	if len(places) == 0 {
		return NoResultsText
	}
	lines := make([]string, 0, len(places))
	for _, p := range places {
		address := p.Location.FormattedAddress
		if address == "" {
			address = AddressUnavailable
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", p.Name, address))
	}
	return strings.Join(lines, "\n")
}
