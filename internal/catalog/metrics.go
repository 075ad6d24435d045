package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Records is the number of lecture items in the current snapshot.
	Records = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sitin",
		Subsystem: "catalog",
		Name:      "records",
		Help:      "Lecture items in the current snapshot",
	})

	// LiveLectures is the count at the last reclassification.
	LiveLectures = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sitin",
		Subsystem: "catalog",
		Name:      "live_lectures",
		Help:      "Lectures in session at the last reclassification",
	})

	// UpcomingLectures is the count at the last reclassification.
	UpcomingLectures = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sitin",
		Subsystem: "catalog",
		Name:      "upcoming_lectures",
		Help:      "Lectures starting within the upcoming window at the last reclassification",
	})

	// RefreshTotal counts refresh attempts.
	// Labels: result (success, error)
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitin",
			Subsystem: "catalog",
			Name:      "refreshes_total",
			Help:      "Total number of catalog refresh attempts",
		},
		[]string{"result"},
	)

	// RefreshDuration tracks successful refresh latency.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sitin",
		Subsystem: "catalog",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of successful catalog refreshes in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
	})
)
