package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bintobloom"

var (
	PickupsCreated   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "pickups_created_total", Help: "Pickup requests created"})
	PickupsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "pickups_completed_total", Help: "Pickups finalized, by requester role"}, []string{"role"})
	EcoPointsAwarded = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "eco_points_awarded_total", Help: "Eco points granted to households and businesses"})
	WasteCollectedKg = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "waste_collected_kg_total", Help: "Kilograms of waste logged, by waste type"}, []string{"waste_type"})
	BillsGenerated   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "bills_generated_total", Help: "Bills generated for business pickups"})

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "payment_verifications_total", Help: "Payment callbacks by outcome"},
		[]string{"outcome"},
	)
	LeaderboardRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "leaderboard_recompute_seconds",
		Help:      "Time spent re-ranking households",
		Buckets:   prometheus.DefBuckets,
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "websocket_clients", Help: "Connected websocket clients"})
)
