package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingNone(t *testing.T) {
	shutdown, err := InitTracing("staffdash-test", "none")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracingWithWriter("staffdash-test", "stdout", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "fetch.batch")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "fetch.batch")
}

func TestInitTracingUnknown(t *testing.T) {
	_, err := InitTracing("staffdash-test", "zipkin")
	assert.Error(t, err)
}
