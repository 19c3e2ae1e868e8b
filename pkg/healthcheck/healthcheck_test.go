package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	return m.data[key], nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func fixed(status Status) *CustomChecker {
	return NewCustomChecker("fixed", func(context.Context) (Status, string, interface{}) {
		return status, string(status), nil
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandlerAggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
		code     int
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy, http.StatusOK},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded, http.StatusOK},
		{"one unhealthy", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("test", zap.NewNop())
			for i, s := range tt.statuses {
				h.Register(string(rune('a'+i)), fixed(s))
			}

			rec := httptest.NewRecorder()
			h.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, string(tt.want), body["status"])
			assert.Equal(t, "test", body["version"])
			assert.Len(t, body["checks"], len(tt.statuses))
		})
	}
}

func TestReadinessRequiresHealthy(t *testing.T) {
	h := New("test", zap.NewNop())
	h.SetCacheTTL(0)
	h.Register("cache", fixed(StatusDegraded))

	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decode(t, rec)["status"])

	h.Register("cache", fixed(StatusHealthy))
	rec = httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestLiveness(t *testing.T) {
	h := New("test", zap.NewNop())
	h.Register("broken", fixed(StatusUnhealthy))

	rec := httptest.NewRecorder()
	h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decode(t, rec)["status"])
}

func TestCheckIsCached(t *testing.T) {
	calls := 0
	h := New("test", zap.NewNop())
	h.Register("counting", NewCustomChecker("counting", func(context.Context) (Status, string, interface{}) {
		calls++
		return StatusHealthy, "", nil
	}))

	h.Check(context.Background())
	h.Check(context.Background())
	assert.Equal(t, 1, calls)

	h.SetCacheTTL(0)
	h.Check(context.Background())
	assert.Equal(t, 2, calls)
}

func TestDatabaseChecker(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:healthcheck?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	checker := NewDatabaseChecker(sqlDB)
	check := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Contains(t, check.Metadata, "open_conns")

	require.NoError(t, sqlDB.Close())
	check = checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestCacheChecker(t *testing.T) {
	cache := &mapCache{data: map[string][]byte{}}
	checker := NewCacheChecker(cache)

	check := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Empty(t, cache.data, "sentinel key is removed")

	cache.failGet = true
	check = checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Contains(t, check.Message, "connection refused")
}

func TestCheckDurationInMilliseconds(t *testing.T) {
	data, err := json.Marshal(Check{Name: "db", Status: StatusHealthy, Duration: 1500 * time.Millisecond})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(1500), body["duration_ms"])
}
