package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// InvalidationJobType tags queued cache invalidation retries.
const InvalidationJobType = "cache.invalidate"

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

const cacheKeyPrefix = "timetable-api"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics. Cache
// failures are logged and never surface to callers as request errors.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	retries    jobEnqueuer
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// CacheKey joins parts under the service prefix; empty parts become "all".
func CacheKey(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, cacheKeyPrefix)
	for _, part := range parts {
		part = strings.ToLower(strings.Join(strings.Fields(part), "_"))
		if part == "" {
			part = "all"
		}
		segments = append(segments, part)
	}
	return strings.Join(segments, ":")
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// TTL returns the default expiry for cached entries.
func (s *CacheService) TTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.defaultTTL
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// UseRetryQueue hands failed invalidations to queue instead of dropping them.
func (s *CacheService) UseRetryQueue(queue jobEnqueuer) {
	if s != nil {
		s.retries = queue
	}
}

// Invalidate removes cached values for the provided pattern. Failures are
// retried in the background when a retry queue is attached.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	err := s.repo.DeleteByPattern(ctx, pattern)
	if err == nil {
		return
	}
	s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	if s.retries == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: InvalidationJobType, Payload: pattern, Attempt: 1}
	if err := s.retries.TryEnqueue(job); err != nil {
		s.logger.Error("cache invalidate retry not queued", zap.String("pattern", pattern), zap.Error(err))
	}
}

// HandleInvalidationJob is the jobs.Handler for queued invalidation retries.
func (s *CacheService) HandleInvalidationJob(ctx context.Context, job jobs.Job) error {
	if job.Type != InvalidationJobType || !s.Enabled() {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, job.Payload)
}
