// Package telemetry bridges OpenTelemetry metrics, such as the otelhttp client
// instruments on backend calls, into the Prometheus registry served at /metrics.
package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// clientAttributes are the labels kept on outgoing HTTP metrics. The backend address is
// the same for every request and would only add noise.
var clientAttributes = attribute.NewAllowKeysFilter(
	"http.request.method",
	"http.response.status_code",
	"error.type",
)

// InitMeterProvider installs a global meter provider whose instruments are gathered
// through reg.
func InitMeterProvider(reg prometheus.Registerer) (*metric.MeterProvider, error) {
	exporter, err := prometheusexporter.New(
		prometheusexporter.WithRegisterer(reg),
		prometheusexporter.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, err
	}

	clientView := metric.NewView(
		metric.Instrument{Name: "http.client.*"},
		metric.Stream{AttributeFilter: clientAttributes},
	)

	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithView(clientView))
	otel.SetMeterProvider(mp)
	log.Debug().Msg("meter provider exporting to prometheus")

	return mp, nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Shutdown flushes and stops every provider. Nil entries are skipped.
func Shutdown(ctx context.Context, providers ...shutdowner) error {
	var errs []error
	for _, p := range providers {
		if p == nil {
			continue
		}

		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("telemetry shutdown incomplete")
	}

	return err
}
