package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/careview/platform/pkg/common/logger"
	"github.com/careview/platform/pkg/normalizer"
	"github.com/careview/platform/pkg/schema"
)

func init() {
	logger.Init()
}

type stubFetcher struct {
	bodies map[string]string
	err    error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.bodies[url], nil
}

type stubCache struct {
	payloads map[string]string
}

func (s *stubCache) Put(ctx context.Context, kind, payload string) error {
	s.payloads[kind] = payload
	return nil
}

func (s *stubCache) Get(ctx context.Context, kind string) (string, error) {
	return s.payloads[kind], nil
}

func newTestService(fetch TextFetcher, cache SnapshotCache) *Service {
	return NewService(
		schema.DefaultCatalog(),
		normalizer.NewParser(nil, 0),
		fetch,
		map[string]string{
			"doctors":  "http://sheets.test/doctors",
			"patients": "http://sheets.test/patients",
		},
		nil, cache, nil,
	)
}

func TestRefreshSwapsSnapshot(t *testing.T) {
	fetch := &stubFetcher{bodies: map[string]string{
		"http://sheets.test/patients": "Name,Age,Systolic BP\nAlice,30,120\nBob,41,118",
	}}
	svc := newTestService(fetch, nil)

	summary, err := svc.Refresh(context.Background(), "patients")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != "ok" || summary.RowsKept != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	table, refreshedAt, ok := svc.Snapshot("patients")
	if !ok || len(table.Records) != 2 {
		t.Fatalf("snapshot not swapped: ok=%v records=%d", ok, len(table.Records))
	}
	if refreshedAt.IsZero() {
		t.Fatal("expected refreshed timestamp")
	}
	if table.Records[0]["systolic"] != "120" {
		t.Fatalf("rename not applied in snapshot: %v", table.Records[0])
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	fetch := &stubFetcher{bodies: map[string]string{
		"http://sheets.test/doctors": "Name,Contact\nDr. Mehta,555-0100",
	}}
	svc := newTestService(fetch, nil)

	if _, err := svc.Refresh(context.Background(), "doctors"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetch.err = errors.New("connection refused")
	summary, err := svc.Refresh(context.Background(), "doctors")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if summary.Status != "fetch-failed" {
		t.Fatalf("unexpected status: %q", summary.Status)
	}

	table, _, _ := svc.Snapshot("doctors")
	if len(table.Records) != 1 {
		t.Fatalf("previous snapshot lost: %d records", len(table.Records))
	}
}

func TestRefreshUnknownDataset(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)
	if _, err := svc.Refresh(context.Background(), "wards"); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestSnapshotUnknownKind(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)
	if _, _, ok := svc.Snapshot("wards"); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
}

func TestRefreshWritesSnapshotCache(t *testing.T) {
	raw := "Name,Age\nAlice,30"
	fetch := &stubFetcher{bodies: map[string]string{"http://sheets.test/patients": raw}}
	cache := &stubCache{payloads: map[string]string{}}
	svc := newTestService(fetch, cache)

	if _, err := svc.Refresh(context.Background(), "patients"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.payloads["patients"] != raw {
		t.Fatalf("cache not written: %q", cache.payloads["patients"])
	}
}

func TestRestoreSeedsFromCache(t *testing.T) {
	cache := &stubCache{payloads: map[string]string{
		"doctors": "Name,Contact\nDr. Rao,555-0101",
	}}
	svc := newTestService(&stubFetcher{}, cache)

	svc.Restore(context.Background())

	table, _, ok := svc.Snapshot("doctors")
	if !ok || len(table.Records) != 1 {
		t.Fatalf("expected restored snapshot, got ok=%v records=%d", ok, len(table.Records))
	}
}
