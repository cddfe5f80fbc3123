// internal/workers/restaurant-search/query-places/handler.go
package queryplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"dinediscover/internal/common/config"
	"dinediscover/internal/common/database"
	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/common/metrics"
	"dinediscover/internal/common/observability"
	"dinediscover/internal/models"
	"dinediscover/pkg/registry"
)

const (
	TaskType = registry.TaskQueryPlaces

	cacheKeyPrefix = "places:search:"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Cache is the subset of database.RedisClient used for responses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var _ Cache = (*database.RedisClient)(nil)

type Handler struct {
	config     *Config
	provider   Provider
	cache      Cache
	logger     Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler wires the provider named in cfg. es may be nil for foursquare, cache may be nil.
func NewHandler(cfg *Config, es Searcher, cache Cache, log Logger) (*Handler, error) {
	var provider Provider
	switch cfg.Provider {
	case config.ProviderFoursquare:
		provider = NewFoursquareProvider(cfg)
	case config.ProviderElasticsearch:
		if es == nil {
			return nil, fmt.Errorf("provider %s needs an elasticsearch client", cfg.Provider)
		}
		provider = NewElasticsearchProvider(es, cfg.Index)
	default:
		return nil, fmt.Errorf("unknown places provider %q", cfg.Provider)
	}
	return NewHandlerWithProvider(cfg, provider, cache, log), nil
}

func NewHandlerWithProvider(cfg *Config, provider Provider, cache Cache, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType, "provider": provider.Name()})
	return &Handler{
		config:     cfg,
		provider:   provider,
		cache:      cache,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
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
	ctx, span := observability.StartSpan(ctx, TaskType, attribute.String("places.provider", h.provider.Name()))
	defer func() { observability.EndSpan(span, err) }()

	if !input.Params.HasLocation() {
		return nil, apperrors.NewMissingLocationError()
	}

	key := CacheKey(h.provider.Name(), input.Params)
	if cached, ok := h.lookup(ctx, key); ok {
		return &Output{Response: *cached, Cached: true}, nil
	}

	resp, err := h.provider.Search(ctx, input.Params)
	if err != nil {
		return nil, err
	}

	h.store(ctx, key, resp)
	h.logger.Info("places search completed", map[string]interface{}{
		"resultCount": len(resp.Results),
	})
	return &Output{Response: *resp}, nil
}

// CacheKey is stable for equal parameters: url.Values encodes keys in sorted order.
func CacheKey(provider string, params models.PlaceSearchParams) string {
	return cacheKeyPrefix + provider + ":" + params.Values().Encode()
}

func (h *Handler) cacheEnabled() bool {
	return h.cache != nil && h.config.CacheTTL > 0
}

func (h *Handler) lookup(ctx context.Context, key string) (*models.SearchResponse, bool) {
	if !h.cacheEnabled() {
		return nil, false
	}
	var resp models.SearchResponse
	found, err := h.cache.GetJSON(ctx, key, &resp)
	switch {
	case err != nil:
		metrics.PlacesCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("places cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return nil, false
	case !found:
		metrics.PlacesCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.PlacesCacheLookups.WithLabelValues("hit").Inc()
		return &resp, true
	}
}

func (h *Handler) store(ctx context.Context, key string, resp *models.SearchResponse) {
	if !h.cacheEnabled() {
		return
	}
	if err := h.cache.SetJSON(ctx, key, resp, h.config.CacheTTL); err != nil {
		h.logger.Warn("places cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

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
