package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// VotesRecorded counts vote submissions by outcome (created|updated|rejected).
	VotesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_votes_total",
			Help: "Total number of vote submissions",
		},
		[]string{"outcome"},
	)

	// CommentsSubmitted counts comment submissions accepted into moderation.
	CommentsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_comments_total",
			Help: "Total number of comments submitted",
		},
	)

	// ActiveSessions tracks sessions that are neither expired nor revoked.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agora_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agora_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
