package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
	"github.com/tsimlabs/egs/internal/core/services/weather"
)

type fakeLogger struct {
	record map[string]any
	err    error
}

func (l *fakeLogger) LoggerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), l.err
}

func (l *fakeLogger) Latest(ctx context.Context, table string) (map[string]any, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.record, nil
}

func (l *fakeLogger) Range(ctx context.Context, table string, minutes int) ([]map[string]any, error) {
	if l.err != nil {
		return nil, l.err
	}
	return []map[string]any{l.record}, nil
}

func (l *fakeLogger) Close() error { return nil }

type fakeWeatherStore struct {
	observations []domain.WeatherObservation
}

func (s *fakeWeatherStore) InsertObservation(obs domain.WeatherObservation) error {
	s.observations = append([]domain.WeatherObservation{obs}, s.observations...)
	return nil
}

func (s *fakeWeatherStore) LatestObservation() (*domain.WeatherObservation, error) {
	if len(s.observations) == 0 {
		return nil, nil
	}
	return &s.observations[0], nil
}

func (s *fakeWeatherStore) RecentObservations(limit int) ([]domain.WeatherObservation, error) {
	if limit > len(s.observations) {
		limit = len(s.observations)
	}
	return s.observations[:limit], nil
}

func newTestPoller(logger ports.DataLogger, store ports.WeatherStore) *weather.Poller {
	return weather.NewPoller(logger, store, "Tbl_1min", time.Minute, ports.SystemClock{})
}

func TestHandlePollIngestsRecord(t *testing.T) {
	logger := &fakeLogger{record: map[string]any{
		"Datetime": "2025-06-01 12:00:00",
		"Temp_C":   21.5,
		"WS_ms":    3.2,
	}}
	store := &fakeWeatherStore{}
	h := NewWeatherHandler(newTestPoller(logger, store), store)

	req := httptest.NewRequest(http.MethodPost, "/api/weather/poll-now", nil)
	w := httptest.NewRecorder()
	h.HandlePollNow(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.observations, 1)

	var obs domain.WeatherObservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &obs))
	require.NotNil(t, obs.TemperatureC)
	assert.InDelta(t, 21.5, *obs.TemperatureC, 0.001)
}

func TestHandlePollLinkDown(t *testing.T) {
	logger := &fakeLogger{err: errors.New("port closed")}
	store := &fakeWeatherStore{}
	h := NewWeatherHandler(newTestPoller(logger, store), store)

	req := httptest.NewRequest(http.MethodPost, "/api/weather/poll-now", nil)
	w := httptest.NewRecorder()
	h.HandlePollNow(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "port closed")
}

func TestHandleHealthServesCacheAfterLinkLoss(t *testing.T) {
	logger := &fakeLogger{record: map[string]any{
		"Datetime": "2025-06-01 12:00:00",
		"Temp_C":   18.0,
	}}
	store := &fakeWeatherStore{}
	poller := newTestPoller(logger, store)
	h := NewWeatherHandler(poller, store)

	_, err := poller.PollNow(context.Background())
	require.NoError(t, err)

	// The link drops; the cached observation must still be served.
	logger.err = errors.New("read timeout")
	_, err = poller.PollNow(context.Background())
	require.Error(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/health/weather", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var st weather.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.False(t, st.Healthy)
	assert.Equal(t, "read timeout", st.LastError)
	require.NotNil(t, st.Cached)
	assert.InDelta(t, 18.0, *st.Cached.TemperatureC, 0.001)
}

func TestHandleRecentLimit(t *testing.T) {
	store := &fakeWeatherStore{}
	for i := 0; i < 5; i++ {
		store.InsertObservation(domain.WeatherObservation{RecordTime: time.Now()})
	}
	h := NewWeatherHandler(newTestPoller(&fakeLogger{}, store), store)

	req := httptest.NewRequest(http.MethodGet, "/api/weather/recent?limit=3", nil)
	w := httptest.NewRecorder()
	h.HandleRecent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)

	req = httptest.NewRequest(http.MethodGet, "/api/weather/recent?limit=-1", nil)
	w = httptest.NewRecorder()
	h.HandleRecent(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
