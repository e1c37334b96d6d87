package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
)

const (
	cacheKeyCommitteeStats  = "dashboard:committee_stats"
	cacheKeyDemandingEvents = "dashboard:demanding_events"
)

type statsStore interface {
	Stats(ctx context.Context) ([]models.CommitteeStats, error)
	List(ctx context.Context) ([]models.Committee, error)
}

type demandingStore interface {
	ListDemanding(ctx context.Context) ([]dto.DemandingEvent, error)
}

// DashboardService aggregates per-committee statistics and the
// above-average-requirements event listing, with a cache-aside layer in
// front of both queries.
type DashboardService struct {
	committees statsStore
	events     demandingStore
	cache      *CacheService
	metrics    *MetricsService
	ttl        time.Duration
	logger     *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(committees statsStore, events demandingStore, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		committees: committees,
		events:     events,
		cache:      cache,
		metrics:    metrics,
		ttl:        ttl,
		logger:     logger,
	}
}

// CommitteeStats returns submission and approval counts per committee. The
// boolean reports whether the payload came from cache.
func (s *DashboardService) CommitteeStats(ctx context.Context) ([]models.CommitteeStats, bool, error) {
	var cached []models.CommitteeStats
	if hit, _ := s.cache.Get(ctx, cacheKeyCommitteeStats, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	stats, err := s.committees.Stats(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee stats")
	}
	s.metrics.ObserveDBQuery("committee_stats", time.Since(start))
	if stats == nil {
		stats = []models.CommitteeStats{}
	}
	if err := s.cache.Set(ctx, cacheKeyCommitteeStats, stats, s.ttl); err != nil {
		s.logger.Warn("failed to cache committee stats", zap.Error(err))
	}
	return stats, false, nil
}

// DemandingEvents returns events whose combined requirements text is longer
// than the average across all events.
func (s *DashboardService) DemandingEvents(ctx context.Context) ([]dto.DemandingEvent, bool, error) {
	var cached []dto.DemandingEvent
	if hit, _ := s.cache.Get(ctx, cacheKeyDemandingEvents, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	events, err := s.events.ListDemanding(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demanding events")
	}
	s.metrics.ObserveDBQuery("demanding_events", time.Since(start))
	if events == nil {
		events = []dto.DemandingEvent{}
	}
	if err := s.cache.Set(ctx, cacheKeyDemandingEvents, events, s.ttl); err != nil {
		s.logger.Warn("failed to cache demanding events", zap.Error(err))
	}
	return events, false, nil
}

// SystemMetrics returns the aggregated instrumentation snapshot shown next
// to the dashboard statistics.
func (s *DashboardService) SystemMetrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{}
	}
	return s.metrics.Snapshot()
}

// ListCommittees returns the registered committees.
func (s *DashboardService) ListCommittees(ctx context.Context) ([]models.Committee, error) {
	committees, err := s.committees.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list committees")
	}
	return committees, nil
}
