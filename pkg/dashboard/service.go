package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/careview/platform/pkg/common/logger"
	"github.com/careview/platform/pkg/common/models"
	"github.com/careview/platform/pkg/normalizer"
	"github.com/careview/platform/pkg/observability/metrics"
	"github.com/careview/platform/pkg/schema"
)

// TextFetcher retrieves the raw CSV export at a URL.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// EventPublisher publishes refresh events to the bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// SnapshotCache holds the last good raw payload per dataset.
type SnapshotCache interface {
	Put(ctx context.Context, kind, payload string) error
	Get(ctx context.Context, kind string) (string, error)
}

const eventSource = "dashboard-service"

// Service owns the current table per dataset kind. A failed fetch never
// clears a snapshot: clients keep seeing the previous data until the upstream
// recovers. Audit, cache, and events are best-effort side channels.
type Service struct {
	mu          sync.RWMutex
	catalog     schema.Catalog
	parser      *normalizer.Parser
	fetch       TextFetcher
	sources     map[string]string
	tables      map[string]normalizer.Table
	refreshedAt map[string]time.Time

	repo     *Repository
	cache    SnapshotCache
	producer EventPublisher
}

func NewService(catalog schema.Catalog, parser *normalizer.Parser, fetch TextFetcher, sources map[string]string, repo *Repository, cache SnapshotCache, producer EventPublisher) *Service {
	return &Service{
		catalog:     catalog,
		parser:      parser,
		fetch:       fetch,
		sources:     sources,
		tables:      make(map[string]normalizer.Table),
		refreshedAt: make(map[string]time.Time),
		repo:        repo,
		cache:       cache,
		producer:    producer,
	}
}

// Refresh runs one fetch+parse cycle for the dataset. On fetch failure the
// previous snapshot is retained and the error is returned for the caller to
// log; the normalizer itself cannot fail on data shape.
func (s *Service) Refresh(ctx context.Context, kind string) (models.RefreshSummary, error) {
	url, ok := s.sources[kind]
	if !ok {
		return models.RefreshSummary{}, fmt.Errorf("unknown dataset %q", kind)
	}

	start := time.Now()
	summary := models.RefreshSummary{Dataset: kind, RefreshedAt: start}

	text, err := s.fetch.Fetch(ctx, url)
	if err != nil {
		metrics.ObserveFetchFailure()
		summary.Status = "fetch-failed"
		summary.Error = err.Error()
		summary.DurationMS = time.Since(start).Milliseconds()
		s.audit(ctx, summary, nil)
		logger.WithDataset(kind).WithError(err).Error("Fetch failed, keeping previous snapshot")
		return summary, err
	}

	table := s.parser.Parse(text)

	s.mu.Lock()
	s.tables[kind] = table
	s.refreshedAt[kind] = start
	s.mu.Unlock()

	summary.Status = "ok"
	summary.RowsKept = len(table.Records)
	summary.LinesSeen = table.LinesSeen
	summary.RowsDropped = table.RowsDropped
	summary.DurationMS = time.Since(start).Milliseconds()

	metrics.ObserveRefresh(summary.RowsKept, summary.RowsDropped, start.Unix())

	if s.cache != nil {
		_ = s.cache.Put(ctx, kind, text)
	}
	s.audit(ctx, summary, table.Columns)
	s.publish(ctx, summary)

	logger.WithDataset(kind).WithFields(map[string]interface{}{
		"rows_kept":    summary.RowsKept,
		"rows_dropped": summary.RowsDropped,
		"duration_ms":  summary.DurationMS,
	}).Info("Dataset refreshed")

	return summary, nil
}

// Restore seeds snapshots from the cache so a restarted replica has data
// before its first poll. Missing cache entries are not errors.
func (s *Service) Restore(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, kind := range s.Kinds() {
		payload, err := s.cache.Get(ctx, kind)
		if err != nil {
			logger.WithDataset(kind).WithError(err).Warn("Snapshot cache read failed")
			continue
		}
		if payload == "" {
			continue
		}
		table := s.parser.Parse(payload)

		s.mu.Lock()
		if _, exists := s.tables[kind]; !exists {
			s.tables[kind] = table
			s.refreshedAt[kind] = time.Now()
		}
		s.mu.Unlock()

		logger.WithDataset(kind).WithField("rows", len(table.Records)).Info("Snapshot restored from cache")
	}
}

// Snapshot returns the current table for the dataset, its refresh time, and
// whether the dataset kind is known to the catalog.
func (s *Service) Snapshot(kind string) (normalizer.Table, time.Time, bool) {
	if _, ok := s.catalog.View(kind); !ok {
		return normalizer.Table{}, time.Time{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[kind], s.refreshedAt[kind], true
}

func (s *Service) Catalog() schema.Catalog {
	return s.catalog
}

func (s *Service) Kinds() []string {
	kinds := s.catalog.Kinds()
	sort.Strings(kinds)
	return kinds
}

func (s *Service) audit(ctx context.Context, summary models.RefreshSummary, columns []string) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveRefresh(ctx, summary, columns); err != nil {
		logger.WithDataset(summary.Dataset).WithError(err).Warn("Failed to record refresh audit row")
	}
}

func (s *Service) publish(ctx context.Context, summary models.RefreshSummary) {
	if s.producer == nil {
		return
	}
	err := s.producer.PublishEvent(ctx, "refresh", eventSource, map[string]interface{}{
		"dataset":      summary.Dataset,
		"rows_kept":    summary.RowsKept,
		"rows_dropped": summary.RowsDropped,
		"refreshed_at": summary.RefreshedAt,
	})
	if err != nil {
		logger.WithDataset(summary.Dataset).WithError(err).Warn("Failed to publish refresh event")
	}
}
