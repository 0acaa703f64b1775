// Package metrics defines and registers all custom Prometheus metrics for the
// dealership API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dealership"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - capability: "admin" or "agent"
//   - result: "success", "invalid_credentials", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by capability and result.",
	},
	[]string{"capability", "result"},
)

// AuthRejectionsTotal counts requests rejected by the auth gateway.
// Labels:
//   - capability: the capability the route requires
//   - status: "401" or "403"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by the auth gateway.",
	},
	[]string{"capability", "status"},
)

// ── Listing metrics ───────────────────────────────────────────────────────────

// ListingsCreatedTotal counts newly created listings.
// Label:
//   - capability: who created it ("admin" or "agent")
var ListingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_created_total",
		Help:      "Total number of listings created, by author capability.",
	},
	[]string{"capability"},
)

// ── Media metrics ─────────────────────────────────────────────────────────────

// MediaImagesTotal counts watermarked images.
// Labels:
//   - mode: "single" or "archive"
//   - result: "ok" or "error"
var MediaImagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_images_total",
		Help:      "Total number of images processed by the watermark pipeline.",
	},
	[]string{"mode", "result"},
)

// MediaArchiveDuration measures how long an archive takes to build.
// Label:
//   - result: "ok" or "error"
var MediaArchiveDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_archive_duration_seconds",
		Help:      "Duration of archive builds from first fetch to finalized zip.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"result"},
)

// ── Analytics metrics ─────────────────────────────────────────────────────────

// PageViewsTotal counts page view ingestion outcomes.
// Label:
//   - result: "recorded", "dropped" (queue full), or "error"
var PageViewsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pageviews_total",
		Help:      "Total number of page views handled by the ingestion queue.",
	},
	[]string{"result"},
)

// PageViewQueueDepth tracks the number of page views waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var PageViewQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pageview_queue_depth",
		Help:      "Current number of page views pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
