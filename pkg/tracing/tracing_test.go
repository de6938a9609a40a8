package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
)

func TestSpansAreExported(t *testing.T) {
	built := 0
	newExporter = func(opts ...stdouttrace.Option) (*stdouttrace.Exporter, error) {
		built++
		return stdouttrace.New(opts...)
	}
	defer func() { newExporter = stdouttrace.New }()

	var buf, ignored bytes.Buffer
	require.NoError(t, Init("advent-test", "test", &buf))
	require.NoError(t, Init("advent-test", "test", &ignored))
	assert.Equal(t, 1, built)

	_, span := StartSpan(context.Background(), "allocate", attribute.Int("pool_size", 3))
	EndSpan(span, nil)
	_, span = StartSpan(context.Background(), "fetch_roster")
	EndSpan(span, errors.New("unreachable"))

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"allocate"`)
	assert.Contains(t, buf.String(), "unreachable")
	assert.Empty(t, ignored.String())
}
