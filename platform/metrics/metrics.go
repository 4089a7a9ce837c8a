// Package metrics exposes Prometheus collectors for the HTTP layer and the
// automation sweeps.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestDurationHistogram records HTTP handler latency by route.
var RequestDurationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "crm_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// SweepRunsCounter counts automation sweeps by kind and outcome.
var SweepRunsCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crm_automation_sweeps_total",
		Help: "Automation sweeps executed per tenant, by kind and result",
	},
	[]string{"kind", "result"},
)

// SweepChangesCounter counts records mutated by automation sweeps.
var SweepChangesCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crm_automation_changes_total",
		Help: "Records changed by automation sweeps",
	},
	[]string{"kind"},
)

// DecryptFallbackCounter counts field reads that fell back to the stored value.
var DecryptFallbackCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "crm_field_decrypt_fallback_total",
		Help: "Encrypted field reads that returned the raw stored value",
	},
)

// LeadsImportedCounter counts leads created through spreadsheet import.
var LeadsImportedCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "crm_leads_imported_total",
		Help: "Leads created by spreadsheet imports",
	},
)

func init() {
	prometheus.MustRegister(RequestDurationHistogram)
	prometheus.MustRegister(SweepRunsCounter)
	prometheus.MustRegister(SweepChangesCounter)
	prometheus.MustRegister(DecryptFallbackCounter)
	prometheus.MustRegister(LeadsImportedCounter)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request durations keyed by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDurationHistogram.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveSweep records one sweep outcome.
func ObserveSweep(kind string, changed int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SweepRunsCounter.WithLabelValues(kind, result).Inc()
	if changed > 0 {
		SweepChangesCounter.WithLabelValues(kind).Add(float64(changed))
	}
}
