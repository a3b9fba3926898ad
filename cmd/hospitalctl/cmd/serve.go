package cmd

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.pilab.hu/hospital/internal/metrics"
	"go.pilab.hu/hospital/internal/telemetry"
	"go.pilab.hu/hospital/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Serve the dashboard over HTTP",
	Annotations: map[string]string{annotationLazySession: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := app.Config

		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		opts := web.Options{
			Session:   app.Session,
			API:       app.API,
			Analytics: app.Analytics,
			History:   app.History,
		}

		if cfg.MetricsEnabled {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics.InitCustomMetrics(reg)

			mp, err := telemetry.InitMeterProvider(reg)
			if err != nil {
				return err
			}
			defer telemetry.Shutdown(context.WithoutCancel(ctx), mp)

			opts.Gatherer = reg
		}

		log.Ctx(ctx).Info().
			Str("api_base_url", app.API.BaseURL()).
			Bool("metrics", cfg.MetricsEnabled).
			Msg("starting dashboard")

		return web.NewServer(opts).Start(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http_addr)")
	rootCmd.AddCommand(serveCmd)
}
