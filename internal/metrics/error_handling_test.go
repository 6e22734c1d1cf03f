package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/test", 200, time.Second)
		m.RecordDBQuery("select", "students", time.Millisecond, nil)
		m.RecordExternalCall("s3", "presign", time.Millisecond, nil)
		m.RecordTransition("in")
		m.RecordPartialWrite()
		m.RecordFeedEviction("daily-activity-cleanup", 2)
		m.SetSyncClients(1)
		m.UpdateDBStats(sql.DBStats{})
	})
}

func TestSafeExecuteWithPanic(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	m := NewWithRegistry(prometheus.NewRegistry(), logger)

	assert.NotPanics(t, func() {
		m.safeExecute("test_panic", func() {
			panic("intentional panic for testing")
		})
	})
}

func TestUpdateDBStats_CountsDeltas(t *testing.T) {
	m := getTestMetrics()

	m.UpdateDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 5, WaitDuration: 2 * time.Second})
	m.UpdateDBStats(sql.DBStats{OpenConnections: 4, InUse: 2, Idle: 2, WaitCount: 7, WaitDuration: 3 * time.Second})

	assert.Equal(t, 7.0, getCounterValue(t, m.DBConnectionWaitTotal))
	assert.InDelta(t, 3.0, getCounterValue(t, m.DBConnectionWaitDuration), 1e-9)
	assert.Equal(t, 2.0, getGaugeValue(t, m.DBConnectionsInUse))

	// non-stats values are ignored
	assert.NotPanics(t, func() { m.UpdateDBStats("nope") })
}

func TestRecordExternalCall_ErrorTypes(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("publish: %w", context.Canceled), "canceled"},
		{errors.New("dial tcp 10.0.0.1:6379: connect: connection refused"), "connection_refused"},
		{errors.New("lookup redis: no such host"), "dns_error"},
		{errors.New("read: connection reset by peer"), "connection_reset"},
		{errors.New("api error AccessDenied"), "forbidden"},
		{errors.New("something else"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, getErrorType(tt.err))
		})
	}

	m := getTestMetrics()
	m.RecordExternalCall("redis", "publish", time.Millisecond, errors.New("connection refused"))
	m.RecordExternalCall("redis", "publish", time.Millisecond, nil)
	assert.Equal(t, 1.0, getCounterValue(t, m.ExternalCallErrors.WithLabelValues("redis", "connection_refused")))
	assert.Equal(t, 1.0, getCounterValue(t, m.ExternalCallsTotal.WithLabelValues("redis", "publish", "success")))
}

func TestCollectorPanicRecovery(t *testing.T) {
	m := getTestMetrics()
	collector := &BusinessMetricsCollector{db: nil, metrics: m, logger: zap.NewNop()}

	assert.NotPanics(t, func() {
		collector.collect()
	})
}

func TestCollector_CountsStudents(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.Exec("CREATE TABLE students (id TEXT PRIMARY KEY, status TEXT)").Error)
	assert.NoError(t, db.Exec("INSERT INTO students (id, status) VALUES ('a','in'),('b','in'),('c','out')").Error)

	m := getTestMetrics()
	NewBusinessMetricsCollector(db, m, zap.NewNop(), time.Minute).collect()

	assert.Equal(t, 2.0, getGaugeValue(t, m.StudentsPresent))
	assert.Equal(t, 3.0, getGaugeValue(t, m.StudentsTotal))
}
