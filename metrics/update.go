package metrics

import "sync/atomic"

// RunMetrics aggregates in-process counters for one scrape run, summarized
// at shutdown independently of the Prometheus export.
type RunMetrics struct {
	PagesWalked  atomic.Int32
	RowsScraped  atomic.Int32
	RowsFailed   atomic.Int32
	LightRecords atomic.Int32
}
