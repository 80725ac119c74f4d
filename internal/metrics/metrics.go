package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	WalksStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pettopia",
			Subsystem: "walk",
			Name:      "sessions_started_total",
			Help:      "Total number of walk sessions started.",
		},
	)

	WalksFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pettopia",
			Subsystem: "walk",
			Name:      "sessions_finished_total",
			Help:      "Total number of walk sessions that reached a terminal state.",
		},
		[]string{"status"},
	)

	LocationUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pettopia",
			Subsystem: "walk",
			Name:      "location_updates_total",
			Help:      "Total number of route points appended to active walks.",
		},
	)

	PhotosAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pettopia",
			Subsystem: "walk",
			Name:      "photos_added_total",
			Help:      "Total number of photos attached to active walks.",
		},
	)

	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pettopia",
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Total number of upload attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(WalksStarted, WalksFinished, LocationUpdates, PhotosAdded, Uploads)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
