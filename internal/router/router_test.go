package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "student-inout-api/docs"
	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/config"
	"student-inout-api/internal/database"
	"student-inout-api/internal/domain"
	"student-inout-api/internal/job"
	"student-inout-api/internal/metrics"
	"student-inout-api/internal/repository"
	"student-inout-api/internal/service"
)

const testSecret = "test-secret"

// setupTestRouter wires real services over an in-memory sqlite database
func setupTestRouter(t *testing.T, basePath string, m *metrics.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        domain.Now,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := zap.NewNop()
	hub := broadcast.NewHub(logger, m)
	go hub.Run(ctx)
	notifier := broadcast.NewBroadcaster(hub, nil, "inout:sync", logger, m)

	cfg := config.Default()
	repos := service.Repositories{
		Students:   repository.NewStudentRepository(db),
		Logs:       repository.NewLogRepository(db),
		Activities: repository.NewActivityRepository(db),
	}
	presence := service.NewPresenceService(db, repos, nil, notifier, m, logger, cfg.Feed.Retention())
	activity := service.NewActivityService(repos.Activities, notifier, logger, time.UTC)
	logs := service.NewLogService(repos.Logs, logger, time.UTC)

	schedCfg := cfg.Scheduler
	schedCfg.Enabled = false
	scheduler, err := job.NewScheduler(schedCfg, cfg.Feed, cfg.Audit, activity, logs, logger, m)
	require.NoError(t, err)

	return Setup(Config{
		DB:              func() *gorm.DB { return db },
		Logger:          logger,
		Metrics:         m,
		JWTSecret:       testSecret,
		BasePath:        basePath,
		AllowedOrigins:  []string{"http://localhost:5173"},
		AdminTimeout:    5 * time.Second,
		PollInterval:    5 * time.Second,
		PresenceService: presence,
		ActivityService: activity,
		LogService:      logs,
		Scheduler:       scheduler,
		Hub:             hub,
	})
}

func operatorToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func serve(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMetricsEndpoint_RootPath(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	router := setupTestRouter(t, "", m)

	w := serve(router, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "# TYPE")
	assert.Contains(t, body, "go_goroutines", "default registry carries runtime metrics")
}

func TestMetricsEndpoint_WithBasePath(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	basePath := "/api"
	router := setupTestRouter(t, basePath, m)

	for _, path := range []string{"/metrics", basePath + "/metrics", "/health", basePath + "/health"} {
		t.Run(path, func(t *testing.T) {
			w := serve(router, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestMetricsRegistry_ContainsPresenceMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	_ = metrics.NewWithRegistry(registry, zap.NewNop())

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	for _, name := range []string{
		"inout_service_db_connections_open",
		"inout_service_db_connections_max",
		"inout_service_db_connection_wait_total",
		"inout_service_students_present",
		"inout_service_students_total",
		"inout_service_sync_clients",
		"inout_service_partial_writes_total",
	} {
		assert.True(t, names[name], "Registry should contain metric: %s", name)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	router := setupTestRouter(t, "/api", m)

	protected := []struct{ method, path string }{
		{http.MethodPost, "/api/students"},
		{http.MethodGet, "/api/students/CS001"},
		{http.MethodGet, "/api/students/status/in"},
		{http.MethodGet, "/api/activities/stats"},
		{http.MethodDelete, "/api/activities/clear-old"},
		{http.MethodDelete, "/api/activities/clear-all"},
		{http.MethodPost, "/api/activities/cleanup/daily"},
		{http.MethodPost, "/api/activities/cleanup/weekly"},
		{http.MethodGet, "/api/activities/scheduler/status"},
		{http.MethodGet, "/api/logs"},
		{http.MethodGet, "/api/logs/stats/today"},
		{http.MethodDelete, "/api/logs/cleanup"},
	}
	for _, p := range protected {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := serve(router, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	public := []struct{ method, path string }{
		{http.MethodGet, "/api/presence/summary"},
		{http.MethodGet, "/api/activities/recent"},
	}
	for _, p := range public {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := serve(router, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestScanFlow(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	router := setupTestRouter(t, "/api", m)
	token := operatorToken(t)

	w := serve(router, http.MethodPost, "/api/students", token, map[string]string{
		"student_id": "CS001",
		"name":       "Asha",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(router, http.MethodPatch, "/api/students/cs001/toggle", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Student checked in successfully")

	w = serve(router, http.MethodPatch, "/api/students/UNKNOWN/toggle", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, "/api/presence/summary", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Data struct {
			In    int64 `json:"in"`
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(1), summary.Data.In)
	assert.Equal(t, int64(1), summary.Data.Total)

	w = serve(router, http.MethodGet, "/api/activities/recent", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recent struct {
		Data []struct {
			StudentID string `json:"student_id"`
			Action    string `json:"action"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recent))
	require.Len(t, recent.Data, 1)
	assert.Equal(t, "CS001", recent.Data[0].StudentID)
	assert.Equal(t, "in", recent.Data[0].Action)

	w = serve(router, http.MethodGet, "/api/logs/student/CS001", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":1`)

	w = serve(router, http.MethodPost, "/api/activities/cleanup/daily", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"deleted_count":1`)

	w = serve(router, http.MethodGet, "/api/activities/scheduler/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), job.DailyCleanup)
}

func TestSwaggerDocRegistered(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	router := setupTestRouter(t, "/api", m)

	w := serve(router, http.MethodGet, "/api/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "/students/{studentId}/toggle"))
}
