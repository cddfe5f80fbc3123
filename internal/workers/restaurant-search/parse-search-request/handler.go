// internal/workers/restaurant-search/parse-search-request/handler.go
package parsesearchrequest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	apperrors "dinediscover/internal/common/errors"
	apphttp "dinediscover/internal/common/http"
	"dinediscover/internal/common/metrics"
	"dinediscover/internal/common/observability"
	"dinediscover/internal/common/validation"
	"dinediscover/internal/models"
	"dinediscover/pkg/registry"
)

const (
	TaskType = registry.TaskParseSearchRequest
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config     *Config
	client     *apphttp.Client
	tool       registry.Tool
	logger     Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler fails only when the registry has no restaurant_search tool.
func NewHandler(config *Config, reg *registry.ToolRegistry, log Logger) (*Handler, error) {
	tool, ok := reg.Find(registry.RestaurantSearchTool)
	if !ok {
		return nil, fmt.Errorf("tool %q missing from registry", registry.RestaurantSearchTool)
	}
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		client:     apphttp.NewClient(config.Timeout),
		tool:       tool,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (out *Output, err error) {
	ctx, span := observability.StartSpan(ctx, TaskType, attribute.String("llm.model", h.config.Model))
	defer func() { observability.EndSpan(span, err) }()

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewInvalidRequestError("message is empty")
	}

	call, content, err := h.callLLM(ctx, message)
	if err != nil {
		return nil, err
	}
	if call == nil || call.Function.Name != h.tool.Name {
		h.logger.Warn("llm did not call the search tool", map[string]interface{}{"content": content})
		return nil, apperrors.NewNoToolCallError(content)
	}

	args, err := decodeArguments(call.Function.Arguments)
	if err != nil {
		return nil, apperrors.NewInvalidToolArgumentsError(err)
	}

	result, err := validation.Validate(h.tool.Parameters, args)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if first, bad := result.First(); bad {
		field := first.Field
		if field == validation.RootField {
			field = "unknown"
		}
		return nil, apperrors.NewInvalidSearchParamsError(field, first.Message)
	}

	params, err := toSearchParams(args)
	if err != nil {
		return nil, apperrors.NewInvalidToolArgumentsError(err)
	}
	if params.Limit == nil && h.config.DefaultLimit > 0 {
		limit := h.config.DefaultLimit
		params.Limit = &limit
	}
	if !params.HasLocation() {
		return nil, apperrors.NewMissingLocationError()
	}

	h.logger.Info("search parameters extracted", map[string]interface{}{
		"params": params.Values().Encode(),
	})

	return &Output{Params: params, ToolName: call.Function.Name}, nil
}

// callLLM returns the first tool call, if any, and the assistant text.
func (h *Handler) callLLM(ctx context.Context, message string) (*toolCall, string, error) {
	if h.config.APIKey == "" {
		return nil, "", apperrors.NewLLMRequestFailedError(errors.New("llm api key is not configured"))
	}

	body, err := json.Marshal(chatRequest{
		Model: h.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: h.config.SystemPrompt},
			{Role: "user", Content: message},
		},
		Tools: []map[string]interface{}{h.tool.OpenAI()},
		ToolChoice: map[string]interface{}{
			"type":     "function",
			"function": map[string]interface{}{"name": h.tool.Name},
		},
	})
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}

	url := strings.TrimRight(h.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", apperrors.NewLLMRequestFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.config.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, "", apperrors.NewLLMTimeoutError()
		}
		return nil, "", apperrors.NewLLMRequestFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", apperrors.NewLLMRequestFailedError(
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, "", apperrors.NewLLMRequestFailedError(fmt.Errorf("decode completion: %w", err))
	}
	if len(completion.Choices) == 0 {
		return nil, "", nil
	}

	msg := completion.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return nil, msg.Content, nil
	}
	return &msg.ToolCalls[0], msg.Content, nil
}

// decodeArguments parses the tool argument string. Null values count as absent.
func decodeArguments(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var args map[string]interface{}
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, errors.New("arguments are not a JSON object")
	}
	for k, v := range args {
		if v == nil {
			delete(args, k)
		}
	}
	return args, nil
}

func toSearchParams(args map[string]interface{}) (models.PlaceSearchParams, error) {
	var params models.PlaceSearchParams
	data, err := json.Marshal(args)
	if err != nil {
		return params, err
	}
	err = json.Unmarshal(data, &params)
	return params, err
}

// Job commands go out on a fresh context: the execution context may already have expired.
func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	code := string(apperrors.ErrCodeInternal)
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}
