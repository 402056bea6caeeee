package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	refreshesTotal     atomic.Int64
	fetchFailuresTotal atomic.Int64
	rowsKeptTotal      atomic.Int64
	rowsDroppedTotal   atomic.Int64
	lastRefreshUnix    atomic.Int64
)

func ObserveRefresh(rowsKept, rowsDropped int, at int64) {
	refreshesTotal.Add(1)
	rowsKeptTotal.Add(int64(rowsKept))
	rowsDroppedTotal.Add(int64(rowsDropped))
	lastRefreshUnix.Store(at)
}

func ObserveFetchFailure() {
	fetchFailuresTotal.Add(1)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP careview_dataset_refreshes_total Number of successful dataset refresh cycles.\n")
	fmt.Fprintf(w, "# TYPE careview_dataset_refreshes_total counter\n")
	fmt.Fprintf(w, "careview_dataset_refreshes_total %d\n", refreshesTotal.Load())

	fmt.Fprintf(w, "# HELP careview_dataset_fetch_failures_total Number of upstream CSV fetches that failed after retries.\n")
	fmt.Fprintf(w, "# TYPE careview_dataset_fetch_failures_total counter\n")
	fmt.Fprintf(w, "careview_dataset_fetch_failures_total %d\n", fetchFailuresTotal.Load())

	fmt.Fprintf(w, "# HELP careview_dataset_rows_kept_total Number of normalized rows kept across all refreshes.\n")
	fmt.Fprintf(w, "# TYPE careview_dataset_rows_kept_total counter\n")
	fmt.Fprintf(w, "careview_dataset_rows_kept_total %d\n", rowsKeptTotal.Load())

	fmt.Fprintf(w, "# HELP careview_dataset_rows_dropped_total Number of rows dropped by the normalizer (short, blank, or repeated-header rows).\n")
	fmt.Fprintf(w, "# TYPE careview_dataset_rows_dropped_total counter\n")
	fmt.Fprintf(w, "careview_dataset_rows_dropped_total %d\n", rowsDroppedTotal.Load())

	fmt.Fprintf(w, "# HELP careview_dataset_last_refresh_timestamp_seconds Unix time of the most recent successful refresh.\n")
	fmt.Fprintf(w, "# TYPE careview_dataset_last_refresh_timestamp_seconds gauge\n")
	fmt.Fprintf(w, "careview_dataset_last_refresh_timestamp_seconds %d\n", lastRefreshUnix.Load())
}
