package metrics

import (
	"net/http"

	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsManager struct {
	Registry                 *prometheus.Registry
	ListingsActivatedTotal   prometheus.Counter
	ListingsExpiredTotal     prometheus.Counter
	ListingsRejectedTotal    prometheus.Counter
	WebhookReplaysTotal      prometheus.Counter
	PhotoUploadsTotal        prometheus.Counter
	PhotoUploadFailuresTotal prometheus.Counter
}

func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	listingsActivatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_activated_total",
		Help:      "Total number of listings activated (approval or payment webhook).",
	})
	listingsExpiredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_expired_total",
		Help:      "Total number of listings transitioned to expired by the sweep.",
	})
	listingsRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_rejected_total",
		Help:      "Total number of listings rejected back to draft.",
	})
	webhookReplaysTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "webhook_replays_total",
		Help:      "Total number of payment webhooks discarded as replays.",
	})
	photoUploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "photo_uploads_total",
		Help:      "Total number of photos stored.",
	})
	photoUploadFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "photo_upload_failures_total",
		Help:      "Total number of photo uploads rejected or failed.",
	})

	registry.MustRegister(
		listingsActivatedTotal,
		listingsExpiredTotal,
		listingsRejectedTotal,
		webhookReplaysTotal,
		photoUploadsTotal,
		photoUploadFailuresTotal,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:                 registry,
		ListingsActivatedTotal:   listingsActivatedTotal,
		ListingsExpiredTotal:     listingsExpiredTotal,
		ListingsRejectedTotal:    listingsRejectedTotal,
		WebhookReplaysTotal:      webhookReplaysTotal,
		PhotoUploadsTotal:        photoUploadsTotal,
		PhotoUploadFailuresTotal: photoUploadFailuresTotal,
	}
}

func StartMetricsServer(port string, appLogger logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Infof("Prometheus metrics server starting on port %s", port)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
