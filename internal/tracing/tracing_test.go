package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProviderNone(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderStdout(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(Config{Exporter: "stdout", Writer: &buf})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "datasource.GetPkgReleases")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "datasource.GetPkgReleases")
}

func TestNewProviderUnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Exporter: "zipkin"})
	require.Error(t, err)
}
