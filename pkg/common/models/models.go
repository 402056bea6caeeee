package models

import "time"

// Event bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // refresh, poll-start, poll-stop
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// RefreshSummary describes the outcome of one fetch+parse cycle for a dataset.
type RefreshSummary struct {
	Dataset     string    `json:"dataset"`
	Status      string    `json:"status"` // ok, fetch-failed
	RowsKept    int       `json:"rows_kept"`
	LinesSeen   int       `json:"lines_seen"`
	RowsDropped int       `json:"rows_dropped"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// DatasetInfo is the listing entry served to browser clients.
type DatasetInfo struct {
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Rows        int        `json:"rows"`
	Polling     string     `json:"polling"` // idle, polling
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}
