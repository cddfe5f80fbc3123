package api

import (
	"context"
	"time"

	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/common/observability"
	"dinediscover/internal/models"
	parsesearchrequest "dinediscover/internal/workers/restaurant-search/parse-search-request"
	queryplaces "dinediscover/internal/workers/restaurant-search/query-places"
	recordsearch "dinediscover/internal/workers/restaurant-search/record-search"
)

type RequestParser interface {
	Execute(ctx context.Context, input *parsesearchrequest.Input) (*parsesearchrequest.Output, error)
}

type PlacesSearcher interface {
	Execute(ctx context.Context, input *queryplaces.Input) (*queryplaces.Output, error)
}

type SearchRecorder interface {
	Execute(ctx context.Context, input *recordsearch.Input) (*recordsearch.Output, error)
}

// Pipeline runs the three search steps in-process, in the same order the workflow does.
type Pipeline struct {
	parser   RequestParser
	places   PlacesSearcher
	recorder SearchRecorder
	logger   Logger
	obs      *observability.Observability

	recordTimeout time.Duration
}

// NewPipeline accepts a nil recorder and a nil obs.
func NewPipeline(parser RequestParser, places PlacesSearcher, recorder SearchRecorder, obs *observability.Observability, log Logger) *Pipeline {
	return &Pipeline{
		parser:        parser,
		places:        places,
		recorder:      recorder,
		obs:           obs,
		logger:        log.With(map[string]interface{}{"component": "search-pipeline"}),
		recordTimeout: 3 * time.Second,
	}
}

func (p *Pipeline) Run(ctx context.Context, message string) (*models.SearchResponse, error) {
	start := time.Now()

	var params models.PlaceSearchParams
	resp, err := p.search(ctx, message, &params)

	p.record(ctx, message, params, resp, err, time.Since(start))
	return resp, err
}

func (p *Pipeline) search(ctx context.Context, message string, params *models.PlaceSearchParams) (*models.SearchResponse, error) {
	t := time.Now()
	parsed, err := p.parser.Execute(ctx, &parsesearchrequest.Input{Message: message})
	p.obs.RecordUpstream(ctx, "llm", time.Since(t), err == nil)
	if err != nil {
		return nil, err
	}
	*params = parsed.Params

	t = time.Now()
	found, err := p.places.Execute(ctx, &queryplaces.Input{Params: parsed.Params})
	if found == nil || !found.Cached {
		p.obs.RecordUpstream(ctx, "places", time.Since(t), err == nil)
	}
	if err != nil {
		return nil, err
	}

	resp := found.Response
	return &resp, nil
}

// record never fails the request; the log is best effort.
func (p *Pipeline) record(ctx context.Context, message string, params models.PlaceSearchParams, resp *models.SearchResponse, searchErr error, elapsed time.Duration) {
	if p.recorder == nil {
		return
	}

	in := &recordsearch.Input{
		Message:    message,
		Params:     params,
		Status:     models.SearchStatusSucceeded,
		DurationMs: elapsed.Milliseconds(),
	}
	if resp != nil {
		in.ResultCount = len(resp.Results)
	}
	if searchErr != nil {
		in.Status = models.SearchStatusFailed
		in.ErrorCode = string(apperrors.ErrCodeInternal)
		if stdErr, ok := apperrors.AsStandardError(searchErr); ok {
			in.ErrorCode = string(stdErr.Code)
		}
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.recordTimeout)
	defer cancel()
	if _, err := p.recorder.Execute(rctx, in); err != nil {
		p.logger.Warn("failed to record search", map[string]interface{}{"error": err.Error()})
	}
}
