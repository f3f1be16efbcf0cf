package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/district-livability-service/internal/adapter/http"
	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/health"
	"github.com/couchcryptid/district-livability-service/internal/travel"
)

var now = time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockLeaderboard struct {
	ranked    []domain.RankedDistrict
	err       error
	lastCount int
}

func (m *mockLeaderboard) TopDistricts(_ context.Context, count int) ([]domain.RankedDistrict, error) {
	m.lastCount = count
	if m.err != nil {
		return nil, m.err
	}
	if count < len(m.ranked) {
		return m.ranked[:count], nil
	}
	return m.ranked, nil
}

type mockRecommender struct {
	res  domain.TravelRecommendationResult
	err  error
	last *travel.Request
}

func (m *mockRecommender) Describe(res domain.TravelRecommendationResult) string {
	return travel.Describe(res, 5)
}

func (m *mockRecommender) Recommend(_ context.Context, req travel.Request) (domain.TravelRecommendationResult, error) {
	m.last = &req
	return m.res, m.err
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(context.Context) health.Report { return m.report }

type fixture struct {
	srv         *httpadapter.Server
	leaderboard *mockLeaderboard
	recommender *mockRecommender
	health      *mockHealth
}

func newFixture(readyErr error) *fixture {
	f := &fixture{
		leaderboard: &mockLeaderboard{},
		recommender: &mockRecommender{},
		health:      &mockHealth{report: health.Report{Status: health.StatusUp}},
	}
	f.srv = httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, f.leaderboard, f.recommender, f.health,
		clockwork.NewFakeClockAt(now), slog.Default())
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	f.srv.ServeHTTP(rec, req)
	return rec
}

// --- probes ---

func TestHealthzReturns200(t *testing.T) {
	rec := newFixture(nil).do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := newFixture(nil).do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := newFixture(fmt.Errorf("not ready yet")).do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newFixture(nil).do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHealthReport(t *testing.T) {
	tests := []struct {
		status health.Status
		code   int
	}{
		{health.StatusUp, http.StatusOK},
		{health.StatusDegraded, http.StatusOK},
		{health.StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture(nil)
			f.health.report = health.Report{
				Status: tt.status,
				Components: map[string]health.Component{
					"database": {Status: health.StatusUp},
				},
			}
			rec := f.do(http.MethodGet, "/health", "")
			assert.Equal(t, tt.code, rec.Code)

			var body health.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, health.StatusUp, body.Components["database"].Status)
		})
	}
}

// --- leaderboard ---

func TestLeaderboard(t *testing.T) {
	ranked := []domain.RankedDistrict{
		{DistrictID: 3, DistrictName: "Sylhet", Temp2PM: 9, PM25At2PM: 8, Rank: 1},
		{DistrictID: 1, DistrictName: "Dhaka", Temp2PM: 11, PM25At2PM: 6, Rank: 2},
	}

	t.Run("default count", func(t *testing.T) {
		f := newFixture(nil)
		f.leaderboard.ranked = ranked
		rec := f.do(http.MethodGet, "/leaderboard", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 10, f.leaderboard.lastCount)

		var got []domain.RankedDistrict
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		if diff := cmp.Diff(ranked, got); diff != "" {
			t.Errorf("leaderboard mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("wire field names", func(t *testing.T) {
		f := newFixture(nil)
		f.leaderboard.ranked = ranked
		rec := f.do(http.MethodGet, "/leaderboard?count=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"districtId":3,"districtName":"Sylhet","temp2pm":9,"pm25_2pm":8,"rank":1}]`, rec.Body.String())
	})

	t.Run("empty projection", func(t *testing.T) {
		f := newFixture(nil)
		rec := f.do(http.MethodGet, "/leaderboard?count=5", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		f := newFixture(nil)
		f.leaderboard.err = domain.ErrLeaderboardNotReady
		rec := f.do(http.MethodGet, "/leaderboard", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(nil)
		f.leaderboard.err = errors.New("redis down")
		rec := f.do(http.MethodGet, "/leaderboard", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	for _, count := range []string{"0", "65", "-1", "ten"} {
		t.Run("invalid count "+count, func(t *testing.T) {
			f := newFixture(nil)
			rec := f.do(http.MethodGet, "/leaderboard?count="+count, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, f.leaderboard.lastCount)
		})
	}

	t.Run("bounds accepted", func(t *testing.T) {
		f := newFixture(nil)
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/leaderboard?count=1", "").Code)
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/leaderboard?count=64", "").Code)
		assert.Equal(t, 64, f.leaderboard.lastCount)
	})
}

// --- recommendation ---

func TestRecommendation_Success(t *testing.T) {
	f := newFixture(nil)
	f.recommender.res = domain.TravelRecommendationResult{
		IsRecommended:   true,
		TempDelta:       -2,
		AirQualityDelta: -3,
		ReasonCode:      domain.ReasonDestinationCoolerAndCleaner,
	}

	rec := f.do(http.MethodPost, "/travel/recommendation",
		`{"latitude":23.81,"longitude":90.41,"destination":"Sylhet","travelDate":"2026-02-08"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["recommended"])
	assert.Equal(t, -2.0, body["tempDelta"])
	assert.Equal(t, -3.0, body["airQualityDelta"])
	assert.Equal(t, "Your destination is 2°C cooler and has significantly better air quality. Enjoy your trip!", body["reason"])

	require.NotNil(t, f.recommender.last)
	assert.Equal(t, 23.81, f.recommender.last.Latitude)
	assert.Equal(t, "Sylhet", f.recommender.last.Destination.Name)
	assert.Equal(t, time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC), f.recommender.last.TravelDate)
}

func TestRecommendation_DestinationByID(t *testing.T) {
	f := newFixture(nil)
	f.recommender.res = domain.Rejected(domain.ReasonSameSourceAndDestination)

	rec := f.do(http.MethodPost, "/travel/recommendation",
		`{"latitude":23.81,"longitude":90.41,"destination":7,"travelDate":"2026-02-07"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, f.recommender.last.Destination.ID)
	assert.Equal(t, 7, *f.recommender.last.Destination.ID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["recommended"])
	assert.Equal(t, "You are already in the destination district.", body["reason"])
}

func TestRecommendation_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"latitude":`},
		{"missing coordinates", `{"destination":"Sylhet","travelDate":"2026-02-08"}`},
		{"blank destination name", `{"latitude":1,"longitude":2,"destination":"   ","travelDate":"2026-02-08"}`},
		{"missing destination", `{"latitude":1,"longitude":2,"travelDate":"2026-02-08"}`},
		{"null destination", `{"latitude":1,"longitude":2,"destination":null,"travelDate":"2026-02-08"}`},
		{"fractional destination id", `{"latitude":1,"longitude":2,"destination":1.5,"travelDate":"2026-02-08"}`},
		{"object destination", `{"latitude":1,"longitude":2,"destination":{"id":1},"travelDate":"2026-02-08"}`},
		{"bad date", `{"latitude":1,"longitude":2,"destination":"Sylhet","travelDate":"08/02/2026"}`},
		{"past date", `{"latitude":1,"longitude":2,"destination":"Sylhet","travelDate":"2026-02-06"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			rec := f.do(http.MethodPost, "/travel/recommendation", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, f.recommender.last)
		})
	}
}

func TestRecommendation_OutOfRangeQuotesHorizon(t *testing.T) {
	f := newFixture(nil)
	f.recommender.res = domain.Rejected(domain.ReasonDateOutOfRange)

	rec := f.do(http.MethodPost, "/travel/recommendation",
		`{"latitude":1,"longitude":2,"destination":"Sylhet","travelDate":"2026-03-30"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Forecast data is only available for the next 5 days.", body["reason"])
}

func TestRecommendation_InternalError(t *testing.T) {
	f := newFixture(nil)
	f.recommender.err = errors.New("postgres down")
	rec := f.do(http.MethodPost, "/travel/recommendation",
		`{"latitude":1,"longitude":2,"destination":"Sylhet","travelDate":"2026-02-08"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecommendation_MethodNotAllowed(t *testing.T) {
	rec := newFixture(nil).do(http.MethodGet, "/travel/recommendation", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
