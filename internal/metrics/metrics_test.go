package metrics

import (
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestMetrics returns metrics bound to a private registry
func getTestMetrics() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), nil)
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("Failed to write counter metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		t.Fatalf("Failed to write gauge metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

var snakeCase = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// touchAll makes every vector emit at least one series so Gather sees it
func touchAll(m *Metrics) {
	m.RecordHTTPRequest("GET", "/api/activities/recent", 200, 0)
	m.RecordDBQuery("select", "students", 0, assert.AnError)
	m.RecordExternalCall("redis", "publish", 0, assert.AnError)
	m.RecordTransition("in")
	m.RecordPartialWrite()
	m.RecordFeedEviction("daily-activity-cleanup", 1)
	m.RecordCleanupFailure("weekly-activity-cleanup")
	m.RecordSyncEvent("PRESENCE_CHANGED")
}

func TestMetrics_NamingAndHelp(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry, nil)
	touchAll(m)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	for _, mf := range families {
		name := mf.GetName()
		assert.True(t, strings.HasPrefix(name, namespace+"_"), "metric %s must use the service namespace", name)
		assert.True(t, snakeCase.MatchString(name), "metric %s must be snake_case", name)
		assert.NotEmpty(t, strings.TrimSpace(mf.GetHelp()), "metric %s needs help text", name)
	}
}

func TestMetrics_DoubleRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewWithRegistry(registry, nil)
	assert.Panics(t, func() { NewWithRegistry(registry, nil) })
}

func TestCategorizeStatus(t *testing.T) {
	assert.Equal(t, "2xx", categorizeStatus(204))
	assert.Equal(t, "3xx", categorizeStatus(304))
	assert.Equal(t, "4xx", categorizeStatus(409))
	assert.Equal(t, "5xx", categorizeStatus(504))
	assert.Equal(t, "unknown", categorizeStatus(101))
}

func TestShouldSkipEndpoint(t *testing.T) {
	assert.True(t, ShouldSkipEndpoint("/metrics"))
	assert.True(t, ShouldSkipEndpoint("/ready"))
	assert.True(t, ShouldSkipEndpoint("/ws/display"))
	assert.True(t, ShouldSkipEndpoint("/api/health"))
	assert.False(t, ShouldSkipEndpoint("/api/students/:studentId/toggle"))
}
