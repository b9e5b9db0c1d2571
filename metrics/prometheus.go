package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rowsScrapedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_rows_total",
			Help: "Total number of catalog rows processed, by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_page_duration_seconds",
			Help:    "Histogram of per-page scrape durations.",
			Buckets: []float64{5, 15, 30, 60, 120, 300},
		},
	)
	recordsPersistedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_persisted_total",
			Help: "Total number of product records written to storage.",
		},
	)
)

func init() {
	prometheus.MustRegister(rowsScrapedTotal)
	prometheus.MustRegister(pageDuration)
	prometheus.MustRegister(recordsPersistedTotal)
}

// RecordRow counts one processed row; outcome is "ok" or "error".
func RecordRow(outcome string) {
	rowsScrapedTotal.WithLabelValues(outcome).Inc()
}

// RecordPage observes how long one listing page took end to end.
func RecordPage(duration time.Duration) {
	pageDuration.Observe(duration.Seconds())
}

// RecordPersisted counts records written to the database.
func RecordPersisted(count int) {
	recordsPersistedTotal.Add(float64(count))
}

// Handler returns the HTTP handler exporting Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr in the background. A scrape run is long
// enough for an operator to watch progress live.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	go http.ListenAndServe(addr, mux)
}
