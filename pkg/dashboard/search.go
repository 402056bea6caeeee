package dashboard

import (
	"strings"

	"github.com/careview/platform/pkg/normalizer"
)

// Filter returns the records where at least one field value contains the
// query, case-insensitively. An empty or whitespace query matches everything.
func Filter(records []normalizer.Record, query string) []normalizer.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	var matched []normalizer.Record
	for _, record := range records {
		for _, value := range record {
			if strings.Contains(strings.ToLower(value), query) {
				matched = append(matched, record)
				break
			}
		}
	}
	return matched
}
