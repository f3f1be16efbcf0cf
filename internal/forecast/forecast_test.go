package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

const testTTL = 8 * 24 * time.Hour

var testDate = time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)

func key(id int, d time.Time) string {
	return fmt.Sprintf("%d:%s", id, d.Format(domain.DateLayout))
}

type memCache struct {
	mu     sync.Mutex
	data   map[string]domain.DailyDistrictForecast
	getErr error
	setErr error
	sets   int
	ttls   []time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string]domain.DailyDistrictForecast{}}
}

func (c *memCache) Get(_ context.Context, id int, d time.Time) (domain.DailyDistrictForecast, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return domain.DailyDistrictForecast{}, false, c.getErr
	}
	f, ok := c.data[key(id, d)]
	return f, ok, nil
}

func (c *memCache) Set(_ context.Context, f domain.DailyDistrictForecast, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.ttls = append(c.ttls, ttl)
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key(f.DistrictID, f.Date)] = f
	return nil
}

type memStore struct {
	data      map[string]domain.DailyDistrictForecast
	getErr    error
	upsertErr error
	gets      int
	upserted  []domain.DailyDistrictForecast
}

func newMemStore(fs ...domain.DailyDistrictForecast) *memStore {
	s := &memStore{data: map[string]domain.DailyDistrictForecast{}}
	for _, f := range fs {
		s.data[key(f.DistrictID, f.Date)] = f
	}
	return s
}

func (s *memStore) GetForecast(_ context.Context, id int, d time.Time) (domain.DailyDistrictForecast, bool, error) {
	s.gets++
	if s.getErr != nil {
		return domain.DailyDistrictForecast{}, false, s.getErr
	}
	f, ok := s.data[key(id, d)]
	return f, ok, nil
}

func (s *memStore) UpsertForecasts(_ context.Context, fs []domain.DailyDistrictForecast) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, fs...)
	for _, f := range fs {
		s.data[key(f.DistrictID, f.Date)] = f
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var dhaka = domain.DailyDistrictForecast{DistrictID: 1, Date: testDate, Temp2PM: 24.5, PM25At2PM: 41.2}

func TestLookup_CacheHit(t *testing.T) {
	cache := newMemCache()
	cache.data[key(1, testDate)] = dhaka
	store := newMemStore()
	m := observability.NewMetricsForTesting()

	res, err := NewLookup(cache, store, testTTL, discardLogger(), m).Get(context.Background(), 1, testDate)
	require.NoError(t, err)
	assert.Equal(t, domain.ForecastFound(dhaka), res)
	assert.Zero(t, store.gets)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForecastCache.WithLabelValues("hit")))
}

func TestLookup_MissHydratesOnce(t *testing.T) {
	cache := newMemCache()
	store := newMemStore(dhaka)
	l := NewLookup(cache, store, testTTL, discardLogger(), observability.NewMetricsForTesting())

	first, err := l.Get(context.Background(), 1, testDate.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, []time.Duration{testTTL}, cache.ttls)

	second, err := l.Get(context.Background(), 1, testDate)
	require.NoError(t, err)
	assert.Equal(t, first, second, "cache hit and store hit return the same result")
	assert.Equal(t, 1, store.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestLookup_NotFound(t *testing.T) {
	cache := newMemCache()
	res, err := NewLookup(cache, newMemStore(), testTTL, discardLogger(), observability.NewMetricsForTesting()).
		Get(context.Background(), 9, testDate)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Zero(t, cache.sets)
}

func TestLookup_CacheFailuresFailOpen(t *testing.T) {
	cache := newMemCache()
	cache.getErr = errors.New("redis timeout")
	cache.setErr = errors.New("redis timeout")
	m := observability.NewMetricsForTesting()

	res, err := NewLookup(cache, newMemStore(dhaka), testTTL, discardLogger(), m).Get(context.Background(), 1, testDate)
	require.NoError(t, err)
	assert.Equal(t, domain.ForecastFound(dhaka), res)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForecastCache.WithLabelValues("error")))
}

func TestLookup_StoreErrorPropagates(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("pg down")

	_, err := NewLookup(newMemCache(), store, testTTL, discardLogger(), observability.NewMetricsForTesting()).
		Get(context.Background(), 1, testDate)
	require.Error(t, err)
}

type staticDistricts struct {
	districts []domain.District
	err       error
}

func (s staticDistricts) List(context.Context) ([]domain.District, error) {
	return s.districts, s.err
}

func testBatch() domain.WeatherDataBatchFetched {
	day2 := testDate.AddDate(0, 0, 1)
	return domain.WeatherDataBatchFetched{
		BatchID: "batch-1",
		Districts: []domain.DistrictWeatherFacts{
			{DistrictID: 1, Facts: []domain.DailyWeatherFact{
				{Date: testDate, Temp2PM: 11, PM25At2PM: 6},
				{Date: day2, Temp2PM: 12, PM25At2PM: 7},
			}},
			{DistrictID: 99, Facts: []domain.DailyWeatherFact{{Date: testDate, Temp2PM: 1, PM25At2PM: 1}}},
		},
	}
}

func TestPersister_UpsertsAndHydratesKnownDistricts(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	m := observability.NewMetricsForTesting()
	p := NewPersister(store, cache, staticDistricts{districts: []domain.District{{ID: 1}}}, testTTL, discardLogger(), m)

	require.NoError(t, p.HandleBatch(context.Background(), testBatch()))
	assert.Len(t, store.upserted, 3)
	assert.Equal(t, 2, cache.sets, "orphan district 99 is persisted but not cached")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ForecastsStored))

	_, found, _ := cache.Get(context.Background(), 99, testDate)
	assert.False(t, found)
}

func TestPersister_HydrationFailuresAreSwallowed(t *testing.T) {
	cache := newMemCache()
	cache.setErr = errors.New("redis down")
	p := NewPersister(newMemStore(), cache, staticDistricts{districts: []domain.District{{ID: 1}}}, testTTL, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.HandleBatch(context.Background(), testBatch()))

	p = NewPersister(newMemStore(), newMemCache(), staticDistricts{err: errors.New("pg down")}, testTTL, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.HandleBatch(context.Background(), testBatch()))
}

func TestPersister_StoreErrorReturned(t *testing.T) {
	store := newMemStore()
	store.upsertErr = errors.New("constraint violation")
	cache := newMemCache()
	p := NewPersister(store, cache, staticDistricts{}, testTTL, discardLogger(), observability.NewMetricsForTesting())

	err := p.HandleBatch(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-1")
	assert.Zero(t, cache.sets)
}

func TestPersister_EmptyBatch(t *testing.T) {
	store := newMemStore()
	p := NewPersister(store, newMemCache(), staticDistricts{}, testTTL, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, p.HandleBatch(context.Background(), domain.WeatherDataBatchFetched{BatchID: "empty"}))
	assert.Empty(t, store.upserted)
}
