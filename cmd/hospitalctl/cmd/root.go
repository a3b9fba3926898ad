package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.pilab.hu/hospital/cmd/hospitalctl/client"
	"go.pilab.hu/hospital/config"
	"go.pilab.hu/hospital/internal/telemetry"
	hlog "go.pilab.hu/hospital/log"
	"go.pilab.hu/hospital/tracing"
)

// annotationLazySession marks commands that initialize the session themselves.
const annotationLazySession = "lazy-session"

var (
	cfgFile      string
	outputFormat string

	appLogger hlog.Logger
	app       *client.Client
	tp        *trace.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:           "hospitalctl",
	Short:         "hospitalctl is a command-line client for the hospital readmission dashboard",
	Long:          `A command-line client for doctors and hospital management: sign in, manage patients, and read readmission analytics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutput(outputFormat); err != nil {
			return err
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}

		appLogger, err = hlog.Configure(cfg.LogLevel, cfg.LogPretty)
		if err != nil {
			appLogger.Warn(cmd.Context(), "invalid log level, using info", map[string]any{"log_level": cfg.LogLevel})
		}

		ctx := log.Logger.WithContext(cmd.Context())
		cmd.SetContext(ctx)

		var export io.Writer
		if cfg.TraceStdout {
			export = os.Stderr
		}

		tp, err = tracing.InitTracerProvider(cfg.OtelServiceName, export)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}

		app, err = client.Open(ctx, cfg)
		if err != nil {
			return err
		}

		if cmd.Annotations[annotationLazySession] == "" {
			app.Session.Initialize(ctx)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd.Context())
	},
}

func closeApp(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	if tp != nil {
		_ = telemetry.Shutdown(ctx, tp)
		tp = nil
	}

	if app == nil {
		return nil
	}

	err := app.Close()
	app = nil

	return err
}

// Execute runs the root command with ctx and logs a failure.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if appLogger != nil {
			appLogger.Error(ctx, "hospitalctl failed", err)
		}

		fmt.Fprintln(os.Stderr, "Error:", err)

		// PersistentPostRunE does not run after a failed RunE.
		_ = closeApp(ctx)
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default is %s/%s.%s)", config.DefaultDir(), config.ConfigFileName, config.ConfigFileType))
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable,
		"output format: table, json or yaml")
}
