package app

import (
	"fmt"

	"dinediscover/internal/api"
	"dinediscover/internal/common/config"
	"dinediscover/internal/common/logger"
	"dinediscover/internal/common/observability"
	psr "dinediscover/internal/workers/restaurant-search/parse-search-request"
	qp "dinediscover/internal/workers/restaurant-search/query-places"
	rs "dinediscover/internal/workers/restaurant-search/record-search"
	"dinediscover/pkg/registry"
)

// Handlers are shared by the API pipeline and the job workers.
type Handlers struct {
	Parse  *psr.Handler
	Places *qp.Handler
	Record *rs.Handler
}

// BuildHandlers creates the three search steps. Stores missing from infra switch the matching feature off.
func BuildHandlers(cfg *config.Config, reg *registry.ToolRegistry, infra *Infra, log logger.Logger) (*Handlers, error) {
	if infra == nil {
		infra = &Infra{}
	}

	parse, err := psr.NewHandler(psr.LoadConfig(cfg.LLM), reg, &ParseLogger{log})
	if err != nil {
		return nil, fmt.Errorf("parse-search-request: %w", err)
	}

	// Interfaces stay nil unless the store exists; a typed nil pointer would look configured.
	var searcher qp.Searcher
	if infra.Elasticsearch != nil {
		searcher = infra.Elasticsearch
	}
	var cache qp.Cache
	if infra.Redis != nil {
		cache = infra.Redis
	}
	places, err := qp.NewHandler(qp.LoadConfig(cfg.Places), searcher, cache, &PlacesLogger{log})
	if err != nil {
		return nil, fmt.Errorf("query-places: %w", err)
	}

	var db rs.Execer
	if infra.Postgres != nil {
		db = infra.Postgres
	}
	record := rs.NewHandler(rs.LoadConfig(), db, &RecordLogger{log})

	return &Handlers{Parse: parse, Places: places, Record: record}, nil
}

// Pipeline runs the handlers in-process for the HTTP API.
func (h *Handlers) Pipeline(obs *observability.Observability, log logger.Logger) *api.Pipeline {
	return api.NewPipeline(h.Parse, h.Places, h.Record, obs, &APILogger{log})
}

// NewAPIServer builds the HTTP surface around the in-process pipeline.
func NewAPIServer(cfg *config.Config, h *Handlers, infra *Infra, obs *observability.Observability, log logger.Logger) *api.Server {
	var checks map[string]api.ReadinessCheck
	if infra != nil {
		checks = infra.Checks()
	}
	return api.NewServer(h.Pipeline(obs, log), api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Checks:         checks,
		Observability:  obs,
	}, &APILogger{log})
}
