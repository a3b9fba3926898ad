package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Counters are constructed eagerly so callers can record before (or without) registration.
var (
	SignInSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hospital_signins_success_total",
		Help: "Total number of successful sign-ins.",
	})
	SignInFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hospital_signins_failure_total",
		Help: "Total number of failed sign-ins.",
	})
	SignOutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hospital_signouts_total",
		Help: "Total number of local sign-outs.",
	})
	ActiveSessionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hospital_active_session",
		Help: "1 while a session is materialized in memory.",
	})
	GuardDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_guard_decisions_total",
		Help: "Route guard decisions by outcome.",
	}, []string{"outcome"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_api_requests_total",
		Help: "Backend API requests by method and status class.",
	}, []string{"method", "status_class"})
)

// InitCustomMetrics registers the custom Prometheus metrics on reg.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}

	collectors := map[string]prometheus.Collector{
		"SignInSuccessTotal":  SignInSuccessTotal,
		"SignInFailureTotal":  SignInFailureTotal,
		"SignOutTotal":        SignOutTotal,
		"ActiveSessionGauge":  ActiveSessionGauge,
		"GuardDecisionsTotal": GuardDecisionsTotal,
		"APIRequestsTotal":    APIRequestsTotal,
	}

	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}

	log.Info().Msg("Custom Prometheus metrics registered.")
}

// ObserveAPIRequest counts one backend call. A status of 0 marks a transport failure.
func ObserveAPIRequest(method string, status int) {
	APIRequestsTotal.WithLabelValues(method, StatusClass(status)).Inc()
}

// StatusClass buckets an HTTP status as "2xx", "4xx" and so on.
func StatusClass(status int) string {
	if status <= 0 {
		return "transport_error"
	}

	return strconv.Itoa(status/100) + "xx"
}
