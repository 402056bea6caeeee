package dashboard

import (
	"time"

	"github.com/careview/platform/pkg/normalizer"
	"github.com/careview/platform/pkg/schema"
)

const emptyMessage = "No records to display"

// DatasetPayload is the rendered form of a dataset view: the view's fixed
// columns and one display row per record. Fields a record lacks render as
// empty cells; an empty dataset carries a placeholder message, not an error.
type DatasetPayload struct {
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Count       int        `json:"count"`
	Message     string     `json:"message,omitempty"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

func Render(kind string, view schema.View, records []normalizer.Record, refreshedAt time.Time) DatasetPayload {
	payload := DatasetPayload{
		Kind:    kind,
		Title:   view.Title,
		Columns: view.Columns,
		Rows:    make([][]string, 0, len(records)),
	}

	for _, record := range records {
		row := make([]string, len(view.Columns))
		for i, col := range view.Columns {
			row[i] = record[col]
		}
		payload.Rows = append(payload.Rows, row)
	}

	payload.Count = len(payload.Rows)
	if payload.Count == 0 {
		payload.Message = emptyMessage
	}
	if !refreshedAt.IsZero() {
		payload.RefreshedAt = &refreshedAt
	}
	return payload
}
