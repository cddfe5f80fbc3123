package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_ExportsWithStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tr := newTracer(TracingConfig{ServiceName: "api-server"}, exporter)

	ctx, span := StartSpan(context.Background(), "parse-search-request", attribute.String("provider", "foursquare"))
	_, child := StartSpan(ctx, "llm.chat")
	EndSpan(child, errors.New("timeout"))
	EndSpan(span, nil)

	require.NoError(t, tr.Shutdown(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "llm.chat", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].Parent.TraceID())
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
}

func TestNilReceiversAreSafe(t *testing.T) {
	var o *Observability
	o.RecordRequest(context.Background(), "ok")
	o.RecordJobProcessed(context.Background(), "query-places", "completed")
	o.Shutdown()

	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}
