// README: Prometheus metrics shared by modules and the HTTP layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "routecab", Name: "match_requests_total", Help: "Total match requests"})
	MatchLatency       = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "routecab", Name: "match_latency_seconds", Help: "Match latency seconds"})
	MatchValidRoutes   = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routecab",
		Name:      "match_valid_routes",
		Help:      "Valid routes found per match request",
		Buckets:   []float64{0, 1, 2, 4, 8, 16},
	})

	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "routecab", Name: "ride_transitions_total", Help: "Ride status transitions applied"},
		[]string{"to"},
	)
	RideConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "routecab", Name: "ride_conflicts_total", Help: "Conditional ride updates that lost a race"},
		[]string{"to"},
	)
	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "routecab", Name: "notification_failures_total", Help: "Notifications that could not be handed to the notifier"})

	RoleSwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "routecab", Name: "role_changes_total", Help: "Account role changes by operation and outcome"},
		[]string{"op", "outcome"},
	)

	LocationUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "routecab", Name: "location_updates_total", Help: "Accepted driver location reports"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "routecab", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "routecab",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
