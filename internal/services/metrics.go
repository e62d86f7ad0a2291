// Package services – ingestion metrics
//
// This file exposes Prometheus instrumentation for reload cycles. Labels are
// restricted to the configured provider set (plus the small action/status
// enums) so cardinality stays bounded. All collectors are safe for concurrent
// use and registered once at package init.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// reloadCycles counts completed reload cycles by provider and outcome.
	reloadCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_reload_cycles_total",
			Help: "Total number of completed feed reload cycles.",
		},
		[]string{"provider", "status"},
	)

	// reloadDuration records end-to-end cycle duration per provider.
	reloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_reload_duration_seconds",
			Help:    "Duration of feed reload cycles in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	// ingestedRecords counts upsert outcomes by provider and action.
	ingestedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_records_ingested_total",
			Help: "Total number of feed records ingested, by upsert action.",
		},
		[]string{"provider", "action"},
	)

	// retiredListings counts listings retired by absence per provider.
	retiredListings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_listings_retired_total",
			Help: "Total number of listings retired after repeated absence.",
		},
		[]string{"provider"},
	)

	// parseErrors counts per-record parse failures per provider.
	parseErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_parse_errors_total",
			Help: "Total number of unparsable feed records (skipped).",
		},
		[]string{"provider"},
	)

	// listingsByStatus gauges the current listing population per status.
	listingsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listings_by_status",
			Help: "Current number of listings per lifecycle status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(reloadCycles, reloadDuration, ingestedRecords,
		retiredListings, parseErrors, listingsByStatus)
}
