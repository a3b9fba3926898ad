package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestInitMeterProvider(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	mp, err := InitMeterProvider(reg)
	require.NoError(t, err)

	counter, err := mp.Meter("test").Int64Counter("hospital_test_events")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	duration, err := mp.Meter("otelhttp").Float64Histogram("http.client.request.duration", metric.WithUnit("s"))
	require.NoError(t, err)
	duration.Record(ctx, 0.2, metric.WithAttributes(
		attribute.String("http.request.method", "GET"),
		attribute.Int("http.response.status_code", 200),
		attribute.String("server.address", "127.0.0.1"),
	))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true

		if f.GetName() == "http_client_request_duration_seconds" {
			for _, m := range f.GetMetric() {
				for _, l := range m.GetLabel() {
					assert.NotEqual(t, "server_address", l.GetName())
				}
			}
		}
	}
	assert.True(t, names["hospital_test_events_total"])
	assert.True(t, names["http_client_request_duration_seconds"])

	require.NoError(t, Shutdown(ctx, mp))
}

type failingProvider struct{}

func (failingProvider) Shutdown(context.Context) error { return errors.New("flush failed") }

func TestShutdown_JoinsErrors(t *testing.T) {
	err := Shutdown(context.Background(), nil, failingProvider{})
	assert.EqualError(t, err, "flush failed")
}
