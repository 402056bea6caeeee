package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/careview/platform/pkg/poller"
	"github.com/gorilla/mux"
)

func newTestRouter(t *testing.T, svc *Service) *mux.Router {
	t.Helper()
	pollers := map[string]*poller.Poller{
		"doctors":  poller.New("doctors", time.Hour, func(ctx context.Context) {}),
		"patients": poller.New("patients", time.Hour, func(ctx context.Context) {}),
	}
	router := mux.NewRouter()
	NewHandler(context.Background(), svc, pollers).Register(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func doRequest(t *testing.T, router *mux.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListDatasets(t *testing.T) {
	fetch := &stubFetcher{bodies: map[string]string{
		"http://sheets.test/patients": "Name,Age\nAlice,30",
	}}
	svc := newTestService(fetch, nil)
	if _, err := svc.Refresh(context.Background(), "patients"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rec := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/api/v1/datasets")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body struct {
		Items []struct {
			Kind    string `json:"kind"`
			Rows    int    `json:"rows"`
			Polling string `json:"polling"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(body.Items))
	}
	for _, item := range body.Items {
		if item.Kind == "patients" && item.Rows != 1 {
			t.Fatalf("unexpected patient rows: %d", item.Rows)
		}
		if item.Polling != "idle" {
			t.Fatalf("expected idle polling state, got %q", item.Polling)
		}
	}
}

func TestGetDatasetWithSearch(t *testing.T) {
	fetch := &stubFetcher{bodies: map[string]string{
		"http://sheets.test/patients": "Name,Age,Doctor\nAlice,30,Dr. Mehta\nBob,41,Dr. Rao",
	}}
	svc := newTestService(fetch, nil)
	if _, err := svc.Refresh(context.Background(), "patients"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	router := newTestRouter(t, svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/datasets/patients?q=rao")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload DatasetPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Count != 1 {
		t.Fatalf("expected 1 filtered row, got %d", payload.Count)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/datasets/patients")
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Count != 2 {
		t.Fatalf("expected 2 rows without query, got %d", payload.Count)
	}
}

func TestGetDatasetEmptyHasPlaceholder(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)
	rec := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/api/v1/datasets/doctors")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload DatasetPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Count != 0 || payload.Message == "" {
		t.Fatalf("expected placeholder payload, got %+v", payload)
	}
}

func TestGetUnknownDataset(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)
	rec := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/api/v1/datasets/wards")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestManualRefreshEndpoint(t *testing.T) {
	fetch := &stubFetcher{bodies: map[string]string{
		"http://sheets.test/doctors": "Name,Contact\nDr. Mehta,555-0100",
	}}
	svc := newTestService(fetch, nil)
	rec := doRequest(t, newTestRouter(t, svc), http.MethodPost, "/api/v1/datasets/doctors/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	table, _, _ := svc.Snapshot("doctors")
	if len(table.Records) != 1 {
		t.Fatalf("refresh endpoint did not update snapshot: %d records", len(table.Records))
	}
}

func TestPollingLifecycleEndpoints(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)
	router := newTestRouter(t, svc)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/datasets/doctors/polling/start")
	if rec.Code != http.StatusOK {
		t.Fatalf("start: unexpected status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["polling"] != "polling" {
		t.Fatalf("expected polling state, got %q", body["polling"])
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/datasets/doctors/polling/stop")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["polling"] != "idle" {
		t.Fatalf("expected idle state, got %q", body["polling"])
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/datasets/wards/polling/start")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown dataset, got %d", rec.Code)
	}
}
