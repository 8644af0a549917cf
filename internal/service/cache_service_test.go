package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type memoryCacheRepo struct {
	values      map[string][]byte
	getErr      error
	deleteErr   error
	invalidated []string
	lastTTL     time.Duration
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(value, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = payload
	m.lastTTL = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	return m.deleteErr
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "timetable-api:timetables:public:computer_science:all:first", CacheKey("timetables", "public", "Computer  Science", "", "first"))
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	assert.False(t, svc.Get(ctx, "k", &out))

	svc.Set(ctx, "k", []string{"a"}, 0)
	assert.Equal(t, time.Minute, repo.lastTTL)
	assert.True(t, svc.Get(ctx, "k", &out))
	assert.Equal(t, []string{"a"}, out)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)

	svc.Invalidate(ctx, "timetable-api:timetables:public:*")
	assert.Equal(t, []string{"timetable-api:timetables:public:*"}, repo.invalidated)
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	repo := newMemoryCacheRepo()
	disabled := NewCacheService(repo, nil, 0, nil, false)
	disabled.Set(context.Background(), "k", []string{"a"}, 0)
	assert.Empty(t, repo.values)
	assert.Equal(t, 5*time.Minute, disabled.TTL())

	repo.getErr = errors.New("redis down")
	failing := NewCacheService(repo, nil, 0, nil, true)
	var out []string
	assert.False(t, failing.Get(context.Background(), "k", &out))
}

type enqueuerStub struct {
	queued []jobs.Job
}

func (e *enqueuerStub) TryEnqueue(job jobs.Job) error {
	e.queued = append(e.queued, job)
	return nil
}

func TestCacheServiceQueuesFailedInvalidation(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.deleteErr = errors.New("redis down")
	queue := &enqueuerStub{}
	svc := NewCacheService(repo, nil, 0, nil, true)
	svc.UseRetryQueue(queue)

	svc.Invalidate(context.Background(), "timetable-api:timetables:public:*")
	require.Len(t, queue.queued, 1)
	assert.Equal(t, InvalidationJobType, queue.queued[0].Type)
	assert.Equal(t, "timetable-api:timetables:public:*", queue.queued[0].Payload)

	repo.deleteErr = nil
	require.NoError(t, svc.HandleInvalidationJob(context.Background(), queue.queued[0]))
	assert.Len(t, repo.invalidated, 2)
	assert.NoError(t, svc.HandleInvalidationJob(context.Background(), jobs.Job{Type: "other"}))
}
