package app

import (
	"dinediscover/internal/api"
	"dinediscover/internal/chat"
	"dinediscover/internal/common/logger"
	psr "dinediscover/internal/workers/restaurant-search/parse-search-request"
	qp "dinediscover/internal/workers/restaurant-search/query-places"
	rs "dinediscover/internal/workers/restaurant-search/record-search"
)

// Logger adapters for packages that declare their own Logger interface.

type ParseLogger struct{ logger.Logger }

func (a *ParseLogger) With(fields map[string]interface{}) psr.Logger {
	return &ParseLogger{a.Logger.With(fields)}
}

type PlacesLogger struct{ logger.Logger }

func (a *PlacesLogger) With(fields map[string]interface{}) qp.Logger {
	return &PlacesLogger{a.Logger.With(fields)}
}

type RecordLogger struct{ logger.Logger }

func (a *RecordLogger) With(fields map[string]interface{}) rs.Logger {
	return &RecordLogger{a.Logger.With(fields)}
}

type APILogger struct{ logger.Logger }

func (a *APILogger) With(fields map[string]interface{}) api.Logger {
	return &APILogger{a.Logger.With(fields)}
}

type ChatLogger struct{ logger.Logger }

func (a *ChatLogger) With(fields map[string]interface{}) chat.Logger {
	return &ChatLogger{a.Logger.With(fields)}
}
