// Package metrics holds the Prometheus collectors shared by the HTTP layer and
// the Sheets gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apbiz_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apbiz_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	SheetsCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apbiz_sheets_calls_total",
			Help: "Total number of calls made to the Sheets API",
		},
		[]string{"operation", "outcome"},
	)

	TabsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apbiz_sheets_tabs_created_total",
			Help: "Tabs created lazily because they were missing",
		},
		[]string{"tab"},
	)

	SchemaMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apbiz_sheets_schema_mismatches_total",
			Help: "Existing tabs whose header row differs from the expected schema",
		},
		[]string{"tab"},
	)

	MirrorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apbiz_joblist_mirror_failures_total",
			Help: "Joblist mirror appends that failed after the primary row was written",
		},
		[]string{"kind"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apbiz_notifications_total",
			Help: "Lead notifications by outcome",
		},
		[]string{"outcome"},
	)
)

// Outcome maps an error to the label used on SheetsCalls.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
