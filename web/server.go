// Package web serves the dashboard on a loopback address. Every page is a JSON view model
// behind the route guard; form submissions are JSON POSTs next to their pages.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/guard"
	"go.pilab.hu/hospital/nav"
	"go.pilab.hu/hospital/session"
)

// Options holds the dependencies of the dashboard server.
type Options struct {
	Session   *session.Store
	API       *apiclient.Client
	Analytics *apiclient.CachedAnalytics
	History   *nav.History
	// Gatherer, when set, is exposed at /metrics.
	Gatherer prometheus.Gatherer
}

// Server is the dashboard HTTP server.
type Server struct {
	sess      *session.Store
	guard     *guard.Guard
	api       *apiclient.Client
	analytics *apiclient.CachedAnalytics
	history   *nav.History
	gatherer  prometheus.Gatherer
}

// NewServer wires the dashboard.
func NewServer(opts Options) *Server {
	analytics := opts.Analytics
	if analytics == nil {
		analytics = apiclient.NewCachedAnalytics(opts.API.Management(), 0)
	}

	return &Server{
		sess:      opts.Session,
		guard:     guard.New(opts.Session),
		api:       opts.API,
		analytics: analytics,
		history:   opts.History,
		gatherer:  opts.Gatherer,
	}
}

// Echo builds the echo instance with every route registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())

	s.RegisterRoutes(e)

	return e
}

// RegisterRoutes registers the pages, the form actions and the operational endpoints.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/readyz", s.ReadyHandler)

	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})))
	}

	pages := map[string]echo.HandlerFunc{
		"login":                s.AuthPageHandler("login"),
		"signup":               s.AuthPageHandler("signup"),
		"forgot-password":      s.AuthPageHandler("forgot-password"),
		"dashboard":            s.DashboardHandler,
		"profile":              s.ProfileHandler,
		"patients":             s.PatientsHandler,
		"patient-add":          s.PatientFormHandler,
		"patient-details":      s.PatientDetailsHandler,
		"patient-edit":         s.PatientEditHandler,
		"management-dashboard": s.ManagementDashboardHandler,
		"management-analytics": s.ManagementAnalyticsHandler,
		"management-doctors":   s.ManagementDoctorsHandler,
	}

	for _, r := range guard.Routes {
		h, ok := pages[r.Name]
		if r.Kind == guard.KindAlias {
			h, ok = aliasHandler(r.Target), true
		}
		if !ok {
			continue
		}

		mw := []echo.MiddlewareFunc{s.guard.Middleware(r)}
		if r.Kind == guard.KindProtected {
			mw = append(mw, s.recordVisit)
		}

		e.GET(r.Pattern, h, mw...)
	}

	s.registerActions(e)
}

// ReadyHandler answers 503 until the session store has initialized.
func (s *Server) ReadyHandler(c echo.Context) error {
	if s.sess.Loading() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}

	return c.String(http.StatusOK, "OK")
}

// Start initializes the session store, then serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	e := s.Echo()

	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		MaxHeaderBytes:    8 * 1024,
	}

	// Requests that arrive before the session is restored get 503.
	go s.sess.Initialize(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Info().Msg("shutting down dashboard")

		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) recordVisit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.history != nil {
			s.history.Record(c.Request().Context(), c.Request().URL.Path)
		}

		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Ctx(c.Request().Context()).Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")

			return nil
		},
	})
}
